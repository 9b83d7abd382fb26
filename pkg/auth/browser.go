package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	cdpnetwork "github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/lcalzada-xor/axss/pkg/logger"
	"github.com/lcalzada-xor/axss/pkg/models"
)

// CookieSink stores cookies for later requests.
type CookieSink interface {
	SetCookies(u *url.URL, cookies []*http.Cookie)
}

// BrowserOptions configures the login browser.
type BrowserOptions struct {
	Proxy     string
	UserAgent string
}

// BrowserLogin opens a visible Chrome window on loginURL and waits for the
// user to finish logging in, which wait signals by returning. The browser's
// cookies are then copied into sink.
func BrowserLogin(ctx context.Context, sink CookieSink, loginURL string, opts BrowserOptions, wait func() error, log *logger.Logger) error {
	target, err := url.Parse(loginURL)
	if err != nil || models.ValidateURL(loginURL) != nil {
		return fail("invalid login URL", err)
	}

	// Every default except headless, so the user gets a real window.
	allocOpts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+4)
	allocOpts = append(allocOpts, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1280,900"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	log.Info("Opening browser at %s", loginURL)
	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		return fail("could not start browser", err)
	}

	if err := wait(); err != nil {
		return fail("browser login aborted", err)
	}

	var cookies []*cdpnetwork.Cookie
	err = chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return fail("could not read browser cookies", err)
	}
	if len(cookies) == 0 {
		return fail("browser session has no cookies", nil)
	}

	imported := 0
	for host, batch := range groupCookies(cookies, target.Scheme) {
		sink.SetCookies(host, batch)
		imported += len(batch)
	}
	log.Success("Imported %d cookies from the browser session", imported)
	return nil
}

// groupCookies converts browser cookies to net/http cookies keyed by the URL
// they belong to. Domain cookies keep their leading dot; host-only cookies
// get an empty Domain so the jar scopes them to the exact host.
func groupCookies(cookies []*cdpnetwork.Cookie, scheme string) map[*url.URL][]*http.Cookie {
	if scheme == "" {
		scheme = "https"
	}
	byOrigin := make(map[string]*url.URL)
	out := make(map[*url.URL][]*http.Cookie)

	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		u, ok := byOrigin[host]
		if !ok {
			u = &url.URL{Scheme: scheme, Host: host, Path: "/"}
			byOrigin[host] = u
		}

		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if strings.HasPrefix(c.Domain, ".") {
			hc.Domain = c.Domain
		}
		if !c.Session && c.Expires > 0 {
			hc.Expires = expiry(c.Expires)
		}
		out[u] = append(out[u], hc)
	}
	return out
}

// expiry converts CDP's fractional unix seconds.
func expiry(epoch float64) time.Time {
	sec := int64(epoch)
	return time.Unix(sec, int64((epoch-float64(sec))*float64(time.Second)))
}
