package forms

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lcalzada-xor/axss/pkg/models"
)

var (
	loginActionKeywords = []string{"login", "signin", "auth"}
	usernameFields      = []string{"username", "email", "user", "login", "userid"}
	logoutKeywords      = []string{"logout", "signout", "sign-out", "logoff"}
)

// IsLoginForm reports whether f looks like a credential form.
func IsLoginForm(f models.Form) bool {
	action := strings.ToLower(f.Action)
	for _, k := range loginActionKeywords {
		if strings.Contains(action, k) {
			return true
		}
	}

	var hasPassword, hasUser bool
	for name := range f.Fields {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "pass") {
			hasPassword = true
		}
		for _, u := range usernameFields {
			if lower == u {
				hasUser = true
			}
		}
	}
	return hasPassword && hasUser
}

// FindLoginForm picks the first credential form. When none qualifies the
// first form on the page is used; an empty page yields NoFormFound.
func FindLoginForm(forms []models.Form) (models.FormLookup, bool) {
	for _, f := range forms {
		if IsLoginForm(f) {
			return models.Found(f), true
		}
	}
	if len(forms) > 0 {
		return models.Found(forms[0]), false
	}
	return models.NotFound(), false
}

// HasPasswordInput reports whether the page asks for a password.
func HasPasswordInput(body string) bool {
	doc := parse(body)
	if doc == nil {
		return false
	}
	found := false
	doc.Find("input[type]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "password") {
			found = true
		}
		return !found
	})
	return found
}

// HasLogoutIndicator reports whether the page links to a logout endpoint,
// which only authenticated pages do.
func HasLogoutIndicator(body string) bool {
	doc := parse(body)
	if doc == nil {
		return false
	}
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.ToLower(s.AttrOr("href", ""))
		text := strings.ToLower(s.Text())
		for _, k := range logoutKeywords {
			if strings.Contains(href, k) || strings.Contains(text, k) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
