package network

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/forms"
)

// Response is a fully read HTTP response. URL is the final URL after
// redirects.
type Response struct {
	StatusCode int
	URL        string
	Header     http.Header
	Body       string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// IsHTML reports whether the response declares an HTML content type.
func (r *Response) IsHTML() bool {
	if r == nil {
		return false
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "text/html")
}

// IsLoginPage reports whether the response bounced us to a login screen:
// the final URL mentions login or the page asks for a password.
func IsLoginPage(r *Response) bool {
	if r == nil {
		return false
	}
	if strings.Contains(strings.ToLower(r.URL), "login") {
		return true
	}
	return forms.HasPasswordInput(r.Body)
}

// TransportError is a connection, timeout or protocol failure on a single
// request. It never aborts a scan.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
