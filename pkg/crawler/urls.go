package crawler

import (
	"net/url"
	"path"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/config"
	"github.com/lcalzada-xor/axss/pkg/forms"
	"golang.org/x/net/publicsuffix"
)

// IsLogoutURL reports whether requesting u would likely end the session.
func IsLogoutURL(u string) bool {
	lower := strings.ToLower(u)
	for _, p := range config.LogoutPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// IsStaticResource reports whether the path of u ends in a static file extension.
func IsStaticResource(u string) bool {
	p := u
	if parsed, err := url.Parse(u); err == nil {
		p = parsed.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range config.StaticExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Normalize resolves raw against base and strips the fragment. It returns
// false for pseudo links and anything that is not http(s).
func Normalize(raw, base string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || forms.IsPseudoLink(raw) {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		ref = b.ResolveReference(ref)
	}

	if ref.Scheme != "http" && ref.Scheme != "https" || ref.Host == "" {
		return "", false
	}
	ref.Fragment = ""
	ref.RawFragment = ""
	return ref.String(), true
}

// SameSite reports whether a and b share a registrable domain. Hosts without
// a public suffix (IPs, localhost, intranet names) must match exactly.
func SameSite(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return siteOf(ua.Hostname()) == siteOf(ub.Hostname())
}

func siteOf(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return ""
	}
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if _, icann := publicsuffix.PublicSuffix(host); icann {
			return site
		}
	}
	return host
}
