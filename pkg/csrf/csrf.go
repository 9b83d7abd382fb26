// Package csrf finds anti-forgery tokens in pages and cookies so that form
// submissions reach the application logic instead of being rejected.
package csrf

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lcalzada-xor/axss/pkg/models"
)

// Vocabulary lists token names in lookup priority order.
var Vocabulary = []string{
	"csrf_token",
	"csrf",
	"_csrf",
	"csrf-token",
	"csrfmiddlewaretoken",
	"authenticity_token",
	"_token",
	"token",
	"xsrf_token",
	"xsrf-token",
}

var scriptPatterns = compileScriptPatterns()

func compileScriptPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Vocabulary))
	for i, name := range Vocabulary {
		out[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name) + `\s*[:=]\s*["']([^"']+)["']`)
	}
	return out
}

// Extract returns the best anti-forgery token candidate. Sources are tried in
// order: form inputs, meta tags, inline script assignments, then cookies.
func Extract(body string, cookies []*http.Cookie) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		if tok, ok := fromInputs(doc); ok {
			return tok, true
		}
		if tok, ok := fromMeta(doc); ok {
			return tok, true
		}
		if tok, ok := fromScripts(doc); ok {
			return tok, true
		}
	}
	return fromCookies(cookies)
}

func fromInputs(doc *goquery.Document) (string, bool) {
	return firstAttr(doc.Find("input[name]"), "name", "value")
}

func fromMeta(doc *goquery.Document) (string, bool) {
	return firstAttr(doc.Find("meta[name]"), "name", "content")
}

// firstAttr scans sel in vocabulary order and returns valueAttr of the first
// element whose keyAttr matches a vocabulary entry exactly.
func firstAttr(sel *goquery.Selection, keyAttr, valueAttr string) (string, bool) {
	for _, name := range Vocabulary {
		var found string
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.EqualFold(strings.TrimSpace(s.AttrOr(keyAttr, "")), name) {
				return true
			}
			if v := s.AttrOr(valueAttr, ""); v != "" {
				found = v
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func fromScripts(doc *goquery.Document) (string, bool) {
	var scripts []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); strings.TrimSpace(text) != "" {
			scripts = append(scripts, text)
		}
	})

	for _, src := range scripts {
		assignments, err := scriptAssignments(src)
		if err != nil {
			if tok, ok := fromScriptText(src); ok {
				return tok, true
			}
			continue
		}
		for _, name := range Vocabulary {
			for _, a := range assignments {
				if strings.HasSuffix(strings.ToLower(a.name), name) && a.value != "" {
					return a.value, true
				}
			}
		}
	}
	return "", false
}

// fromScriptText is the fallback for scripts the parser rejects, such as
// template placeholders or truncated inline blocks.
func fromScriptText(src string) (string, bool) {
	for _, re := range scriptPatterns {
		if m := re.FindStringSubmatch(src); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func fromCookies(cookies []*http.Cookie) (string, bool) {
	for _, name := range Vocabulary {
		for _, c := range cookies {
			if c != nil && strings.Contains(strings.ToLower(c.Name), name) {
				return c.Value, true
			}
		}
	}
	return "", false
}

// Splice overwrites the first security-token field of fields, in name order,
// with token. It reports whether a field was updated.
func Splice(fields map[string]string, token string) bool {
	if token == "" {
		return false
	}
	form := models.Form{Fields: fields}
	for _, name := range form.FieldNames() {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "csrf") || strings.Contains(lower, "token") {
			fields[name] = token
			return true
		}
	}
	return false
}
