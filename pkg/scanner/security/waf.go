// Package security recognises web application firewalls from the responses
// a scan already receives. Nothing is sent just to probe.
package security

import (
	"net/http"
	"strings"
)

// Signature identifies one firewall product.
type Signature struct {
	Name string
	// Headers whose mere presence is conclusive.
	Headers []string
	// HeaderValues maps a header to substrings of its value.
	HeaderValues map[string][]string
	// Body substrings of the product's block page.
	Body []string
}

// Signatures is checked in order; the first match wins.
var Signatures = []Signature{
	{
		Name:         "Cloudflare",
		Headers:      []string{"Cf-Ray", "Cf-Cache-Status"},
		HeaderValues: map[string][]string{"Server": {"cloudflare"}},
		Body:         []string{"Attention Required! | Cloudflare"},
	},
	{
		Name:         "AWS WAF",
		Headers:      []string{"X-Amzn-Waf-Action"},
		HeaderValues: map[string][]string{"Server": {"awselb"}},
		Body:         []string{"AWS WAF"},
	},
	{
		Name:    "Akamai",
		Headers: []string{"Akamai-Origin-Hop", "X-Akamai-Transformed"},
		Body:    []string{"AkamaiGHost"},
	},
	{
		Name:         "Imperva Incapsula",
		Headers:      []string{"X-Iinfo"},
		HeaderValues: map[string][]string{"X-Cdn": {"incapsula", "imperva"}},
		Body:         []string{"Incapsula incident ID", "_Incapsula_Resource"},
	},
	{
		Name:         "ModSecurity",
		HeaderValues: map[string][]string{"Server": {"mod_security", "modsecurity"}},
		Body:         []string{"mod_security", "ModSecurity"},
	},
	{
		Name:         "F5 BIG-IP ASM",
		Headers:      []string{"X-Wa-Info"},
		HeaderValues: map[string][]string{"Server": {"bigip"}},
		Body:         []string{"The requested URL was rejected. Please consult with your administrator."},
	},
	{
		Name:         "Sucuri",
		Headers:      []string{"X-Sucuri-Id", "X-Sucuri-Cache"},
		HeaderValues: map[string][]string{"Server": {"sucuri"}},
		Body:         []string{"Sucuri WebSite Firewall"},
	},
	{
		Name:         "Barracuda",
		HeaderValues: map[string][]string{"Set-Cookie": {"barra_counter_session"}},
		Body:         []string{"Barracuda"},
	},
}

// blockStatuses are the codes firewalls answer a rejected payload with.
var blockStatuses = map[int]bool{
	http.StatusForbidden:       true,
	http.StatusNotAcceptable:   true,
	http.StatusTooManyRequests: true,
	http.StatusNotImplemented:  true,
}

// WAF is a detected firewall.
type WAF struct {
	Name string
	// Blocking is set when the response itself looks like a rejection.
	Blocking bool
}

// Detect inspects one response. A block status with a generic denial page
// is reported as an unnamed firewall.
func Detect(status int, header http.Header, body string) (WAF, bool) {
	blocking := blockStatuses[status]
	for _, sig := range Signatures {
		if sig.matches(header, body) {
			return WAF{Name: sig.Name, Blocking: blocking}, true
		}
	}
	if blocking {
		lower := strings.ToLower(body)
		if strings.Contains(lower, "access denied") || strings.Contains(lower, "request blocked") {
			return WAF{Name: "Generic WAF", Blocking: true}, true
		}
	}
	return WAF{}, false
}

func (s Signature) matches(header http.Header, body string) bool {
	for _, h := range s.Headers {
		if header.Get(h) != "" {
			return true
		}
	}
	for h, needles := range s.HeaderValues {
		value := strings.ToLower(strings.Join(header.Values(h), " "))
		if value == "" {
			continue
		}
		for _, n := range needles {
			if strings.Contains(value, strings.ToLower(n)) {
				return true
			}
		}
	}
	for _, b := range s.Body {
		if strings.Contains(body, b) {
			return true
		}
	}
	return false
}
