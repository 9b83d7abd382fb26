package network

import (
	"net/url"
	"strings"
)

// Param is one name/value pair of a query string or form body.
type Param struct {
	Name  string
	Value string
}

// ParseQuery splits a raw query into its parameters in order of appearance.
// Repeated names keep their first value.
func ParseQuery(rawQuery string) []Param {
	var params []Param
	seen := make(map[string]bool)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = unescape(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		params = append(params, Param{Name: name, Value: unescape(value)})
	}
	return params
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// EncodeQuery serialises params in order. Values are escaped the way
// browsers escape URI components, so parentheses and quotes stay literal.
func EncodeQuery(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EscapeComponent(p.Name))
		b.WriteByte('=')
		b.WriteString(EscapeComponent(p.Value))
	}
	return b.String()
}

// WithQuery returns rawURL with its query replaced by params and the
// fragment removed.
func WithQuery(rawURL string, params []Param) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.RawQuery = EncodeQuery(params)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// Replace returns a copy of params with name set to value.
func Replace(params []Param, name, value string) []Param {
	out := make([]Param, len(params))
	copy(out, params)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
		}
	}
	return out
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes everything except A-Z a-z 0-9 and - _ . ! ~ * ' ( ).
func EscapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
