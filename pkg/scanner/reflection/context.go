package reflection

import (
	"io"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/models"
	"golang.org/x/net/html"
)

// contextRank orders contexts when a payload is reflected more than once.
// The most dangerous position found wins.
var contextRank = map[models.Context]int{
	models.ContextUnknown:   0,
	models.ContextTag:       1,
	models.ContextAttribute: 2,
	models.ContextComment:   3,
	models.ContextScript:    4,
}

// DetectContext classifies where payload (or its tag-stripped text) sits in
// body. The body is tokenized rather than searched with regular expressions
// so unbalanced markup still yields a position.
func DetectContext(body, payload string) (ctx models.Context) {
	ctx = models.ContextUnknown
	defer func() {
		if recover() != nil {
			ctx = models.ContextUnknown
		}
	}()

	occurrences := findAll(body, payload)
	if len(occurrences) == 0 {
		if text := StripTags(payload); text != "" {
			occurrences = findAll(body, text)
		}
	}
	if len(occurrences) == 0 {
		return ctx
	}

	z := html.NewTokenizer(strings.NewReader(body))
	offset := 0
	inScript := false
	next := 0

	for next < len(occurrences) {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return ctx
			}
			break
		}

		start := offset
		offset += len(z.Raw())

		var name string
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			n, _ := z.TagName()
			name = string(n)
		}

		for next < len(occurrences) && occurrences[next] < offset {
			at := occurrences[next]
			next++
			if at < start {
				continue
			}
			found := classifyToken(tt, name, at == start, inScript)
			if contextRank[found] > contextRank[ctx] {
				ctx = found
			}
		}

		switch {
		case tt == html.StartTagToken && name == "script":
			inScript = true
		case tt == html.EndTagToken && name == "script":
			inScript = false
		}
	}

	// Anything past the last token boundary is page text.
	if next < len(occurrences) && contextRank[ctx] < contextRank[models.ContextTag] {
		ctx = models.ContextTag
	}
	return ctx
}

// classifyToken maps a token containing a reflection to a context. atStart
// means the reflection begins exactly where the token does, i.e. the payload
// itself produced the token.
func classifyToken(tt html.TokenType, name string, atStart, inScript bool) models.Context {
	switch tt {
	case html.CommentToken:
		return models.ContextComment
	case html.TextToken:
		if inScript {
			return models.ContextScript
		}
		return models.ContextTag
	case html.StartTagToken, html.SelfClosingTagToken:
		if atStart {
			return models.ContextTag
		}
		return models.ContextAttribute
	case html.EndTagToken:
		if inScript && name == "script" {
			return models.ContextScript
		}
		return models.ContextTag
	default:
		return models.ContextTag
	}
}

func findAll(s, sub string) []int {
	if sub == "" {
		return nil
	}
	var out []int
	for i := 0; i <= len(s)-len(sub); {
		j := strings.Index(s[i:], sub)
		if j < 0 {
			break
		}
		out = append(out, i+j)
		i += j + 1
	}
	return out
}
