package reflection

import (
	"regexp"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/models"
)

// eventHandlers is the handler vocabulary checked for wiring to alert().
var eventHandlers = []string{
	"onload", "onerror", "onclick", "onmouseover",
	"onfocus", "onblur", "onchange", "ontoggle",
}

// dangerousTags are elements that can run script without a <script> block.
var dangerousTags = []string{"img", "svg", "iframe", "body", "input", "select", "textarea"}

// interpretedTags indicate the page renders injected markup at all.
var interpretedTags = []string{"<script", "<img", "<svg", "<iframe"}

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	handlerPatterns    = compileHandlerPatterns()
)

func compileHandlerPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(eventHandlers))
	for _, h := range eventHandlers {
		out[h] = regexp.MustCompile(`(?i)<[^>]*` + h + `\s*=\s*["']?[^"']*alert\([^)]*\)`)
	}
	return out
}

// IsExecutable applies structural heuristics to decide whether a reflected
// payload would run. No script is ever executed.
func IsExecutable(body, payload string, ctx models.Context) bool {
	lowerBody := strings.ToLower(body)
	lowerPayload := strings.ToLower(payload)

	if strings.Contains(lowerPayload, "<script>") && strings.Contains(lowerBody, "<script>") &&
		scriptBlockPattern.MatchString(body) {
		return true
	}

	for _, h := range eventHandlers {
		if strings.Contains(lowerPayload, h) && strings.Contains(lowerBody, h) &&
			handlerPatterns[h].MatchString(body) {
			return true
		}
	}

	for _, tag := range dangerousTags {
		if strings.Contains(lowerPayload, "<"+tag) && strings.Contains(lowerBody, "<"+tag) {
			return true
		}
	}

	switch ctx {
	case models.ContextScript:
		return strings.Contains(payload, "alert(") && strings.Contains(body, "alert(")
	case models.ContextAttribute:
		return strings.ContainsAny(payload, `"'`) && containsAny(lowerBody, eventHandlers)
	case models.ContextTag:
		return containsAny(lowerBody, interpretedTags)
	}
	return false
}
