package models

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

type HTTPMethod string

const (
	MethodGET  HTTPMethod = "GET"
	MethodPOST HTTPMethod = "POST"
)

// ParseMethod normalises a form method attribute. Anything that is not POST
// is submitted as GET, which is what browsers do.
func ParseMethod(raw string) HTTPMethod {
	if strings.EqualFold(strings.TrimSpace(raw), "post") {
		return MethodPOST
	}
	return MethodGET
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

// Form is an HTML form as submitted by a browser. Action is always absolute.
type Form struct {
	Action string            `json:"action"`
	Method HTTPMethod        `json:"method"`
	Fields map[string]string `json:"fields"`
	ID     string            `json:"id,omitempty"`
	Name   string            `json:"name,omitempty"`
}

// CloneFields returns a copy of the form's current field values.
func (f Form) CloneFields() map[string]string {
	out := make(map[string]string, len(f.Fields))
	for k, v := range f.Fields {
		out[k] = v
	}
	return out
}

// FieldNames returns the form's field names in sorted order.
func (f Form) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupKind tags the variant held by a FormLookup.
type LookupKind int

const (
	NoFormFound LookupKind = iota
	FormFound
)

// FormLookup is the result of searching a page for a form: either a Form
// or an explicit NoFormFound.
type FormLookup struct {
	Kind LookupKind
	Form Form
}

// Found wraps f in a FormFound lookup.
func Found(f Form) FormLookup {
	return FormLookup{Kind: FormFound, Form: f}
}

// NotFound is the empty lookup.
func NotFound() FormLookup {
	return FormLookup{Kind: NoFormFound}
}

// securityFieldPatterns are never fuzzed; they carry anti-forgery state.
var securityFieldPatterns = []string{"csrf", "token", "xsrf", "authenticity", "_token"}

// IsSecurityField reports whether a field name looks like an anti-forgery token.
func IsSecurityField(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range securityFieldPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// TestableInputs returns the form fields that may be fuzzed, sorted by name.
func TestableInputs(f Form) []string {
	var out []string
	for _, name := range f.FieldNames() {
		if !IsSecurityField(name) {
			out = append(out, name)
		}
	}
	return out
}
