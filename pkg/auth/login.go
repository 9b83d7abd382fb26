// Package auth obtains an authenticated session before a scan starts, either
// by submitting credentials to a login form or by letting the user log in
// through a real browser.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/csrf"
	"github.com/lcalzada-xor/axss/pkg/forms"
	"github.com/lcalzada-xor/axss/pkg/logger"
	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/lcalzada-xor/axss/pkg/network"
)

// Session is the part of the HTTP client the login flow needs.
type Session interface {
	Get(ctx context.Context, url string) (*network.Response, error)
	PostForm(ctx context.Context, url string, params []network.Param) (*network.Response, error)
	CookiesFor(url string) []*http.Cookie
}

// Credentials for a form based login.
type Credentials struct {
	LoginURL string
	Username string
	Password string
}

var (
	usernameCandidates = []string{"username", "user", "email", "login", "userid", "user_name"}
	passwordCandidates = []string{"password", "pass", "passwd", "pwd"}

	authenticatedIndicators = []string{
		"dashboard", "profile", "account", "welcome",
		"logout", "signout", "my account",
	}
)

// CredentialLogin logs in through the login form at creds.LoginURL. On
// success the session's cookie jar holds the authenticated cookies.
func CredentialLogin(ctx context.Context, s Session, creds Credentials, log *logger.Logger) error {
	if err := models.ValidateURL(creds.LoginURL); err != nil {
		return fail("invalid login URL", err)
	}
	log.Info("Attempting authentication at %s", creds.LoginURL)

	page, err := s.Get(ctx, creds.LoginURL)
	if err != nil {
		return fail("network error fetching login page", err)
	}
	if page.StatusCode != http.StatusOK {
		return fail(fmt.Sprintf("failed to fetch login page (status %d)", page.StatusCode), nil)
	}

	token, hasToken := csrf.Extract(page.Body, s.CookiesFor(creds.LoginURL))
	if hasToken {
		log.V("CSRF token extracted: %s", truncate(token, 20))
	}

	lookup, obvious := forms.FindLoginForm(forms.ParseForms(page.Body, creds.LoginURL))
	if lookup.Kind == models.FormFound && !obvious {
		log.Warn("No obvious login form found, using first form")
	}

	data := loginData(lookup, creds, token)
	postURL := creds.LoginURL
	if lookup.Kind == models.FormFound {
		postURL = lookup.Form.Action
	}

	log.Info("Submitting credentials to %s", postURL)
	resp, err := s.PostForm(ctx, postURL, data)
	if err != nil {
		return fail("network error submitting credentials", err)
	}

	if err := verify(resp, creds.LoginURL, log); err != nil {
		return err
	}
	log.Success("Authentication successful!")
	return nil
}

// loginData fills the chosen form with the credentials. Without a form the
// conventional field names are used.
func loginData(lookup models.FormLookup, creds Credentials, token string) []network.Param {
	fields := map[string]string{}
	var names []string

	switch lookup.Kind {
	case models.FormFound:
		fields = lookup.Form.CloneFields()
		names = lookup.Form.FieldNames()
	case models.NoFormFound:
	}

	userField := findField(names, usernameCandidates, "username")
	passField := findField(names, passwordCandidates, "password")
	fields[userField] = creds.Username
	fields[passField] = creds.Password

	if token != "" {
		switch lookup.Kind {
		case models.FormFound:
			for _, name := range names {
				if models.IsSecurityField(name) {
					fields[name] = token
					break
				}
			}
		case models.NoFormFound:
			fields["csrf_token"] = token
		}
	}

	f := models.Form{Fields: fields}
	params := make([]network.Param, 0, len(fields))
	for _, name := range f.FieldNames() {
		params = append(params, network.Param{Name: name, Value: fields[name]})
	}
	return params
}

// findField returns the form field matching the first candidate, compared
// case-insensitively, or fallback.
func findField(names, candidates []string, fallback string) string {
	for _, c := range candidates {
		for _, n := range names {
			if strings.EqualFold(n, c) {
				return n
			}
		}
	}
	return fallback
}

// verify decides whether the response to the login POST belongs to an
// authenticated session. When no check is conclusive the login is assumed
// to have worked.
func verify(resp *network.Response, loginURL string, log *logger.Logger) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusFound, http.StatusSeeOther:
	default:
		return fail(fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	final := strings.ToLower(resp.URL)
	if strings.Contains(final, "login") || final == strings.ToLower(loginURL) {
		return fail("redirected back to login page", nil)
	}

	if forms.HasLogoutIndicator(resp.Body) {
		return nil
	}

	for _, f := range forms.ParseForms(resp.Body, resp.URL) {
		if forms.IsLoginForm(f) {
			return fail("login form still present after authentication", nil)
		}
	}

	lower := strings.ToLower(resp.Body)
	for _, ind := range authenticatedIndicators {
		if strings.Contains(lower, ind) {
			return nil
		}
	}

	log.Warn("Could not definitively verify authentication, assuming success")
	return nil
}

// ValidateSession reports whether target is still served to a logged in
// user: no bounce to a login URL and a logout link on the page.
func ValidateSession(ctx context.Context, s Session, target string) bool {
	resp, err := s.Get(ctx, target)
	if err != nil {
		return false
	}
	if strings.Contains(strings.ToLower(resp.URL), "login") {
		return false
	}
	return forms.HasLogoutIndicator(resp.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
