package reflection

import (
	"regexp"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/models"
)

// Verdict is the outcome of analysing one response for one payload.
type Verdict struct {
	Vulnerable bool
	Reflected  bool
	Encoded    bool
	Context    models.Context
	Detail     string
}

// dangerousChars are the characters whose escaping neutralises markup injection.
var dangerousChars = []string{"<", ">", "\"", "'"}

// encodedEntities are the entity forms that indicate the server escaped output.
var encodedEntities = []string{"&lt;", "&gt;", "&quot;", "&#x27;", "&#39;"}

// encodingWindow is how far either side of a reflection we look for entities.
const encodingWindow = 50

var (
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
	dangerousPattern = regexp.MustCompile(`[<>"']`)
	htmlEscaper      = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#x27;")
)

// EncodeHTML escapes & < > " ' the way most template engines do.
func EncodeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// StripTags removes anything that looks like a tag from s.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Detect decides whether payload landed in body in an executable position.
func Detect(body, payload string) Verdict {
	if !IsReflected(body, payload) {
		return Verdict{Context: models.ContextUnknown}
	}

	if IsEncoded(body, payload) {
		return Verdict{
			Reflected: true,
			Encoded:   true,
			Context:   models.ContextUnknown,
			Detail:    "Reflected but encoded",
		}
	}

	ctx := DetectContext(body, payload)
	return Verdict{
		Vulnerable: IsExecutable(body, payload, ctx),
		Reflected:  true,
		Context:    ctx,
		Detail:     "Reflected in " + string(ctx) + " context",
	}
}

// IsReflected reports whether payload, or its text once tags are stripped,
// appears in body. A fully entity-encoded reflection counts as not reflected.
func IsReflected(body, payload string) bool {
	if payload == "" {
		return false
	}
	if strings.Contains(body, payload) {
		return true
	}
	if strings.Contains(body, EncodeHTML(payload)) {
		return false
	}
	text := StripTags(payload)
	return len(text) > 5 && strings.Contains(body, text)
}

// IsEncoded reports whether the reflection of payload is surrounded by HTML
// entities for the dangerous characters it carries.
func IsEncoded(body, payload string) bool {
	if !containsAny(payload, dangerousChars) || !containsAny(body, encodedEntities) {
		return false
	}

	// A match at offset 0 is still a match.
	text := dangerousPattern.ReplaceAllString(payload, "")
	idx := strings.Index(body, text)
	if idx < 0 {
		return false
	}

	start := idx - encodingWindow
	if start < 0 {
		start = 0
	}
	end := idx + len(text) + encodingWindow
	if end > len(body) {
		end = len(body)
	}
	return containsAny(body[start:end], encodedEntities)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
