package network

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/axss/pkg/config"
	"github.com/lcalzada-xor/axss/pkg/metrics"
	"golang.org/x/net/publicsuffix"
)

// maxBodySize caps how much of a response body is kept in memory.
const maxBodySize = 10 << 20

// Options configures a Client.
type Options struct {
	Timeout         time.Duration
	Proxy           string
	UserAgent       string
	Headers         map[string]string
	Rate            float64 // requests per second per host, 0 = unlimited
	Burst           int
	Retries         int
	Concurrency     int
	FollowRedirects bool
	Insecure        bool
}

// DefaultOptions returns the options used by the CLI when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		Timeout:         config.DefaultTimeout,
		UserAgent:       config.DefaultUserAgent,
		Retries:         config.DefaultRetries,
		Concurrency:     config.DefaultConcurrency,
		FollowRedirects: true,
		Insecure:        true,
	}
}

// Client is the authenticated HTTP client shared by the crawler, the scanner
// and the login flow. Its cookie jar is safe for concurrent use.
type Client struct {
	HTTPClient *http.Client
	Limiter    *HostLimiter
	Metrics    *metrics.Metrics

	userAgent string
	headers   map[string]string
	retries   int
	requests  atomic.Int64
}

// NewClient creates a new Client with a persistent cookie jar, connection
// pooling sized to the concurrency and optional per-host rate limiting.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.Insecure}, //nolint:gosec // scanners target self-signed test hosts
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		MaxIdleConns:        opts.Concurrency * 2,
		MaxIdleConnsPerHost: max(opts.Concurrency/2, 10),
		MaxConnsPerHost:     opts.Concurrency,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.Proxy != "" {
		pURL, err := url.Parse(opts.Proxy)
		if err != nil || pURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", opts.Proxy)
		}
		transport.Proxy = http.ProxyURL(pURL)
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		Jar:       jar,
	}
	if !opts.FollowRedirects {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Client{
		HTTPClient: httpClient,
		Limiter:    NewHostLimiter(opts.Rate, opts.Burst),
		userAgent:  opts.UserAgent,
		headers:    headers,
		retries:    max(opts.Retries, 0),
	}, nil
}

// RequestCount returns how many HTTP round trips have been attempted.
func (c *Client) RequestCount() int64 {
	return c.requests.Load()
}

// Do sends req with automatic retries and rate limiting and reads the body.
// Network errors and 5xx responses are retried with exponential backoff;
// 4xx responses are returned as is.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx := req.Context()
	if err := c.Limiter.Wait(ctx, req.URL.Host); err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	c.decorate(req)

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		if i > 0 {
			// Exponential backoff: 100ms, 200ms, 400ms
			backoff := time.Duration(math.Pow(2, float64(i-1))*100) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: ctx.Err()}
			case <-time.After(backoff):
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
				}
				req.Body = body
			}
		}

		resp, err := c.roundTrip(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if err == nil {
			if i == c.retries {
				return resp, nil
			}
			continue
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: lastErr}
}

func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	c.requests.Add(1)
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Metrics.ObserveRequest(req.Method, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.Metrics.ObserveRequest(req.Method, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Header:     resp.Header,
		Body:       string(body),
	}, nil
}

func (c *Client) decorate(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// Get fetches rawURL. The query string is sent exactly as given.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: rawURL, Err: err}
	}
	return c.Do(req)
}

// PostForm submits params as an urlencoded body, keeping their order.
func (c *Client) PostForm(ctx context.Context, rawURL string, params []Param) (*Response, error) {
	body := EncodeQuery(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: rawURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// GetWithQuery replaces the query of rawURL with params and fetches it.
func (c *Client) GetWithQuery(ctx context.Context, rawURL string, params []Param) (*Response, error) {
	target, err := WithQuery(rawURL, params)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: rawURL, Err: err}
	}
	return c.Get(ctx, target)
}

// SetCookies stores cookies for u in the jar.
func (c *Client) SetCookies(u *url.URL, cookies []*http.Cookie) {
	c.HTTPClient.Jar.SetCookies(u, cookies)
}

// Cookies returns the cookies the jar would send to u.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.HTTPClient.Jar.Cookies(u)
}

// CookiesFor is Cookies for a raw URL; unparsable URLs have no cookies.
func (c *Client) CookiesFor(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return c.Cookies(u)
}

// SetCookieHeader loads a "name=value; name2=value2" header into the jar for u.
func (c *Client) SetCookieHeader(u *url.URL, header string) error {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return fmt.Errorf("parse cookie header: %w", err)
	}
	for _, ck := range cookies {
		ck.Path = "/"
	}
	c.SetCookies(u, cookies)
	return nil
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
