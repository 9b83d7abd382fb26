package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, mutate func(*Options)) *Client {
	t.Helper()
	opts := DefaultOptions()
	opts.Timeout = 1 * time.Second
	if mutate != nil {
		mutate(&opts)
	}
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClient_Do_Retry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	client := newTestClient(t, nil)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if resp.Body != "ok" {
		t.Errorf("Expected body ok, got %q", resp.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
	if client.RequestCount() != 3 {
		t.Errorf("Expected 3 counted requests, got %d", client.RequestCount())
	}
}

func TestClient_Do_NoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	resp, err := newTestClient(t, nil).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden || resp.OK() {
		t.Errorf("Expected a non-OK 403, got %d", resp.StatusCode)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestClient_Do_PostRetryReplaysBody(t *testing.T) {
	var attempts atomic.Int32
	var lastBody atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		lastBody.Store(r.PostForm.Get("comment"))
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestClient(t, nil).PostForm(context.Background(), server.URL, []Param{{"comment", "<b>hi</b>"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lastBody.Load(); got != "<b>hi</b>" {
		t.Errorf("Expected replayed body, got %v", got)
	}
}

func TestClient_Do_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond) // Simulate slow response
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	if err == nil {
		t.Fatal("Expected error due to context cancellation, got nil")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected *TransportError, got %T", err)
	}
	if !IsTimeout(err) {
		t.Errorf("Expected a timeout, got %v", err)
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, func(o *Options) {
		o.Timeout = 50 * time.Millisecond
		o.Retries = 0
	})

	start := time.Now()
	_, err := client.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("Timeout not enforced, took %v", elapsed)
	}
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// 1 request per second. Initial burst = 1.
	client := newTestClient(t, func(o *Options) { o.Rate = 1 })

	start := time.Now()
	// 1st request: consumes initial token (immediate)
	// 2nd request: waits for 1s
	for i := 0; i < 2; i++ {
		if _, err := client.Get(context.Background(), server.URL); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// Should take at least 1s (minus some buffer)
	if elapsed < 900*time.Millisecond {
		t.Errorf("Rate limiting too fast: %v", elapsed)
	}
}

func TestClient_HeadersAndUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s|%s", r.Header.Get("User-Agent"), r.Header.Get("X-Team"))
	}))
	defer server.Close()

	client := newTestClient(t, func(o *Options) {
		o.UserAgent = "axss-test"
		o.Headers = map[string]string{"X-Team": "red"}
	})
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Body != "axss-test|red" {
		t.Errorf("unexpected headers echoed: %q", resp.Body)
	}
}

func TestClient_Redirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "landed")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	follow := newTestClient(t, nil)
	resp, err := follow.Get(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}
	if resp.URL != server.URL+"/new" || resp.Body != "landed" {
		t.Errorf("Expected redirect to be followed, got %s %q", resp.URL, resp.Body)
	}

	stay := newTestClient(t, func(o *Options) { o.FollowRedirects = false })
	resp, err = stay.Get(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Errorf("Expected 302, got %d", resp.StatusCode)
	}
}

func TestClient_CookieJar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil {
			fmt.Fprint(w, "none")
			return
		}
		fmt.Fprint(w, c.Value)
	}))
	defer server.Close()

	client := newTestClient(t, nil)
	ctx := context.Background()
	if _, err := client.Get(ctx, server.URL+"/set"); err != nil {
		t.Fatal(err)
	}
	resp, err := client.Get(ctx, server.URL+"/get")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Body != "s1" {
		t.Errorf("Expected persisted cookie, got %q", resp.Body)
	}

	u, _ := url.Parse(server.URL)
	if err := client.SetCookieHeader(u, "session=manual; theme=dark"); err != nil {
		t.Fatal(err)
	}
	resp, _ = client.Get(ctx, server.URL+"/get")
	if resp.Body != "manual" {
		t.Errorf("Expected cookie header to override, got %q", resp.Body)
	}
	if n := len(client.CookiesFor(server.URL)); n != 2 {
		t.Errorf("Expected 2 cookies, got %d", n)
	}
}

func TestNewClient_InvalidProxy(t *testing.T) {
	opts := DefaultOptions()
	opts.Proxy = "::not a url"
	if _, err := NewClient(opts); err == nil {
		t.Error("Expected error for invalid proxy")
	}
}

func TestIsLoginPage(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want bool
	}{
		{"Login URL", &Response{URL: "http://t/Login?next=/"}, true},
		{"Password input", &Response{URL: "http://t/home", Body: `<input type="password" name="p">`}, true},
		{"Normal page", &Response{URL: "http://t/home", Body: `<p>welcome</p>`}, false},
		{"Nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLoginPage(tt.resp); got != tt.want {
				t.Errorf("IsLoginPage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponse_IsHTML(t *testing.T) {
	html := &Response{Header: http.Header{"Content-Type": {"text/HTML; charset=utf-8"}}}
	if !html.IsHTML() {
		t.Error("Expected HTML")
	}
	js := &Response{Header: http.Header{"Content-Type": {"application/json"}}}
	if js.IsHTML() {
		t.Error("Expected non-HTML")
	}
}
