package reflection

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lcalzada-xor/axss/pkg/models"
)

// SnippetNotFound is returned by ExtractSnippet when nothing can be located.
const SnippetNotFound = "Payload reflected but location not found"

var whitespacePattern = regexp.MustCompile(`\s+`)

// ClassifyType names a finding. Persistence dominates the request method.
func ClassifyType(method models.HTTPMethod, reflected, stored bool) models.XSSType {
	switch {
	case stored:
		return models.XSSStored
	case reflected && method == models.MethodGET:
		return models.XSSReflectedGET
	case reflected && method == models.MethodPOST:
		return models.XSSReflectedPOST
	default:
		return models.XSSPotential
	}
}

// ExtractSnippet returns up to maxLen characters of body centred on the
// payload, with whitespace collapsed and "..." marking each truncated side.
func ExtractSnippet(body, payload string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 200
	}

	needle := payload
	idx := strings.Index(body, needle)
	if idx < 0 {
		needle = StripTags(payload)
		if needle == "" {
			return SnippetNotFound
		}
		idx = strings.Index(body, needle)
	}
	if idx < 0 {
		return SnippetNotFound
	}

	runes := []rune(body)
	start := utf8.RuneCountInString(body[:idx])
	end := start + utf8.RuneCountInString(needle)
	if end-start > maxLen {
		end = start + maxLen
	} else {
		pad := (maxLen - (end - start)) / 2
		start -= pad
		end += pad
		if start < 0 {
			end -= start
			start = 0
		}
		if end > len(runes) {
			start -= end - len(runes)
			end = len(runes)
			if start < 0 {
				start = 0
			}
		}
	}

	snippet := strings.ReplaceAll(string(runes[start:end]), "\r", "")
	snippet = strings.TrimSpace(whitespacePattern.ReplaceAllString(snippet, " "))

	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}
