// Package forms extracts forms, links and session hints from HTML pages.
// Malformed markup never produces an error: extraction degrades to whatever
// the parser could recover.
package forms

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lcalzada-xor/axss/pkg/models"
)

var skippedInputTypes = map[string]bool{
	"submit": true,
	"button": true,
	"image":  true,
}

func parse(body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	return doc
}

// resolve turns ref into an absolute URL against base. An empty ref is the
// base itself.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil {
		return ref
	}
	if ref == "" {
		return base.String()
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// ParseForms returns every form on the page with its default field values.
func ParseForms(body, pageURL string) []models.Form {
	doc := parse(body)
	if doc == nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	var forms []models.Form
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		method, _ := s.Attr("method")
		id, _ := s.Attr("id")
		name, _ := s.Attr("name")

		resolved := resolve(base, action)
		if resolved == "" {
			resolved = pageURL
		}

		forms = append(forms, models.Form{
			Action: resolved,
			Method: models.ParseMethod(method),
			Fields: fields(s),
			ID:     id,
			Name:   name,
		})
	})
	return forms
}

func fields(form *goquery.Selection) map[string]string {
	out := make(map[string]string)

	form.Find("input").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		typ, _ := s.Attr("type")
		if skippedInputTypes[strings.ToLower(typ)] {
			return
		}
		out[name] = s.AttrOr("value", "")
	})

	form.Find("textarea").Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok && name != "" {
			out[name] = strings.TrimSpace(s.Text())
		}
	})

	form.Find("select").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		out[name] = opt.AttrOr("value", "")
	})

	return out
}

// ExtractLinks returns the absolute targets of every anchor on the page in
// document order, without duplicates. Fragment-only and pseudo-scheme links
// are dropped.
func ExtractLinks(body, pageURL string) []string {
	doc := parse(body)
	if doc == nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || IsPseudoLink(href) {
			return
		}
		abs := resolve(base, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}

// IsPseudoLink reports links that never lead to a fetchable page.
func IsPseudoLink(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	for _, prefix := range []string{"#", "javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
