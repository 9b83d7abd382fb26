package payloads

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/models"
)

// category tables in catalog order
var (
	basic           = tag(CategoryBasic, basicVectors)
	attributeEscape = tag(CategoryAttributeEscape, attributeEscapeVectors)
	tagContext      = tag(CategoryTagContext, tagContextVectors)
	scriptContext   = tag(CategoryScriptContext, scriptContextVectors)
	filterBypass    = tag(CategoryFilterBypass, filterBypassVectors)
	eventHandler    = tag(CategoryEventHandler, eventHandlerVectors)
	polyglot        = tag(CategoryPolyglot, polyglotVectors)

	basicSet    = concat(basic, attributeEscape[:3], tagContext[:3])
	advancedSet = Merge(basic, attributeEscape, tagContext, scriptContext, filterBypass, eventHandler, polyglot)
)

func tag(c Category, vectors []string) []Payload {
	out := make([]Payload, len(vectors))
	for i, v := range vectors {
		out[i] = Payload{Content: v, Category: c}
	}
	return out
}

func concat(sets ...[]Payload) []Payload {
	var out []Payload
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// Merge concatenates payload lists and drops repeated content. The first
// occurrence of a string wins, so its category is the one kept.
func Merge(sets ...[]Payload) []Payload {
	seen := make(map[string]bool)
	var out []Payload
	for _, s := range sets {
		for _, p := range s {
			if seen[p.Content] {
				continue
			}
			seen[p.Content] = true
			out = append(out, p)
		}
	}
	return out
}

// Basic returns the quick tier: every basic payload plus the first three
// attribute-escape and tag-context payloads.
func Basic() []Payload {
	return concat(basicSet)
}

// Advanced returns every payload in the catalog, deduplicated.
func Advanced() []Payload {
	return concat(advancedSet)
}

// Select returns the tier the scanner was configured with.
func Select(advanced bool) []Payload {
	if advanced {
		return Advanced()
	}
	return Basic()
}

// ForContext prioritises payloads built for a known reflection context and
// falls back to the full catalog otherwise.
func ForContext(ctx models.Context) []Payload {
	switch ctx {
	case models.ContextTag:
		return concat(tagContext, basic)
	case models.ContextAttribute:
		return concat(attributeEscape, basic)
	case models.ContextScript:
		return concat(scriptContext, basic)
	default:
		return Advanced()
	}
}

// WithMarker tags every opening script tag of content with the parameter it
// is sent in, so a stored payload surfacing later can be traced back to its
// field. Tags match case-insensitively and keep their original spelling.
// Payloads without a script tag are returned unchanged.
func WithMarker(content, param string) string {
	const tag = "<script>"
	var b strings.Builder
	rest := content
	for {
		i := indexFold(rest, tag)
		if i < 0 {
			break
		}
		b.WriteString(rest[:i+len(tag)])
		fmt.Fprintf(&b, "/* %s */", param)
		rest = rest[i+len(tag):]
	}
	if b.Len() == 0 {
		return content
	}
	b.WriteString(rest)
	return b.String()
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// LoadFile reads custom payloads, one per line. Blank lines and lines
// starting with # are ignored.
func LoadFile(path string) ([]Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open payloads file: %w", err)
	}
	defer f.Close()

	var out []Payload
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		out = append(out, Payload{Content: line, Category: CategoryCustom})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read payloads file: %w", err)
	}
	return Merge(out), nil
}
