package runner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/lcalzada-xor/axss/pkg/config"
)

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# staging targets\nhttp://a.test/x?y=1\n\n   \nnot a url\nftp://a.test/\nhttps://b.test/\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readURLFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"http://a.test/x?y=1", "https://b.test/"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"b", "a", "b", "c", "a"})
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("order must be preserved, got %v", got)
	}
}

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"X-Api-Key: abc", "Accept:text/html", "X-Empty:"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"X-Api-Key": "abc", "Accept": "text/html", "X-Empty": ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if _, err := parseHeaders([]string{": value"}); err == nil {
		t.Error("empty header name must be rejected")
	}
}

func TestApplyConfig(t *testing.T) {
	crawl := true
	f := &config.File{
		Target:      "http://file.test/",
		URLs:        []string{"http://file.test/a"},
		Crawl:       &crawl,
		MaxDepth:    4,
		Concurrency: 8,
		Timeout:     3 * time.Second,
		Headers:     map[string]string{"X-B": "2", "X-A": "1"},
	}
	f.Auth.LoginURL = "http://file.test/login"
	f.Output.Format = "json"

	opts := DefaultOptions()
	opts.Concurrency = 2
	opts.Headers = []string{"X-A: cli"}
	explicit := map[string]bool{"c": true}

	opts.ApplyConfig(f, func(name string) bool { return explicit[name] })

	if opts.URL != "http://file.test/" || !opts.Crawl || opts.MaxDepth != 4 {
		t.Errorf("file values not applied: %+v", opts)
	}
	if opts.Concurrency != 2 {
		t.Errorf("explicit -c must win, got %d", opts.Concurrency)
	}
	if opts.Timeout != 3*time.Second || opts.OutputFormat != "json" || opts.LoginURL != "http://file.test/login" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.MaxPages != config.DefaultMaxPages {
		t.Errorf("unset file values keep defaults, got %d", opts.MaxPages)
	}
	wantHeaders := []string{"X-A: 1", "X-B: 2", "X-A: cli"}
	if !reflect.DeepEqual(opts.Headers, wantHeaders) {
		t.Errorf("Expected headers %v, got %v", wantHeaders, opts.Headers)
	}
	if !reflect.DeepEqual(opts.ListURLs, []string{"http://file.test/a"}) {
		t.Errorf("config URLs not appended: %v", opts.ListURLs)
	}
}
