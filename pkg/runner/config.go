package runner

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/lcalzada-xor/axss/pkg/config"
)

// Options holds all configuration options for the runner
type Options struct {
	// Targets
	URL      string
	ListFile string
	ListURLs []string

	// Crawling
	Crawl      bool
	MaxDepth   int
	MaxPages   int
	CrawlDelay time.Duration

	// Scanning
	Advanced     bool
	PayloadsFile string
	Concurrency  int
	Timeout      time.Duration
	RateLimit    float64
	Proxy        string
	UserAgent    string
	Headers      []string
	Cookie       string

	// Pacing
	URLDelay     time.Duration
	PayloadDelay time.Duration
	StoredDelay  time.Duration

	// Authentication
	LoginURL     string
	Username     string
	Password     string
	BrowserLogin bool
	// BrowserWait blocks until the user has logged in. Defaults to waiting
	// for Enter on stdin.
	BrowserWait func() error

	// Output
	OutputFormat string
	OutputFile   string
	ReportFile   string
	MetricsAddr  string
	Verbose      bool
	VeryVerbose  bool
	Silent       bool

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultOptions returns a new Options struct with default values
func DefaultOptions() *Options {
	return &Options{
		MaxDepth:     config.DefaultMaxDepth,
		MaxPages:     config.DefaultMaxPages,
		CrawlDelay:   config.DefaultCrawlDelay,
		Concurrency:  config.DefaultConcurrency,
		Timeout:      config.DefaultTimeout,
		UserAgent:    config.DefaultUserAgent,
		URLDelay:     config.DefaultURLDelay,
		PayloadDelay: config.DefaultPayloadDelay,
		StoredDelay:  config.DefaultStoredDelay,
		OutputFormat: "human",
	}
}

// ApplyConfig copies values from a config file into o. Options for which
// explicit reports true were set on the command line and are left alone.
func (o *Options) ApplyConfig(f *config.File, explicit func(flag string) bool) {
	if explicit == nil {
		explicit = func(string) bool { return false }
	}
	setString := func(dst *string, v string, flags ...string) {
		if v == "" || anyExplicit(explicit, flags) {
			return
		}
		*dst = v
	}
	setInt := func(dst *int, v int, flags ...string) {
		if v <= 0 || anyExplicit(explicit, flags) {
			return
		}
		*dst = v
	}
	setBool := func(dst *bool, v *bool, flags ...string) {
		if v == nil || anyExplicit(explicit, flags) {
			return
		}
		*dst = *v
	}

	setString(&o.URL, f.Target, "u", "url")
	setBool(&o.Crawl, f.Crawl, "crawl")
	setInt(&o.MaxDepth, f.MaxDepth, "max-depth")
	setInt(&o.MaxPages, f.MaxPages, "max-pages")
	setBool(&o.Advanced, f.Advanced, "advanced")
	setString(&o.PayloadsFile, f.Payloads, "p", "payloads")
	setInt(&o.Concurrency, f.Concurrency, "c", "concurrency")
	if f.Timeout > 0 && !anyExplicit(explicit, []string{"t", "timeout"}) {
		o.Timeout = f.Timeout
	}
	if f.RateLimit > 0 && !anyExplicit(explicit, []string{"rate-limit"}) {
		o.RateLimit = f.RateLimit
	}
	setString(&o.Proxy, f.Proxy, "x", "proxy")
	setString(&o.UserAgent, f.UserAgent, "user-agent")
	setString(&o.Cookie, f.Cookie, "cookie")

	// Config headers come first so a repeated -H wins.
	if len(f.Headers) > 0 {
		var fromFile []string
		for _, name := range slices.Sorted(maps.Keys(f.Headers)) {
			fromFile = append(fromFile, name+": "+f.Headers[name])
		}
		o.Headers = append(fromFile, o.Headers...)
	}

	setString(&o.LoginURL, f.Auth.LoginURL, "login-url")
	setString(&o.Username, f.Auth.Username, "username")
	setString(&o.Password, f.Auth.Password, "password")
	if f.Auth.Browser && !explicit("browser-login") {
		o.BrowserLogin = true
	}

	setString(&o.OutputFormat, f.Output.Format, "o", "output")
	setString(&o.OutputFile, f.Output.File, "output-file")
	setString(&o.ReportFile, f.Output.Report, "report")
	setString(&o.MetricsAddr, f.Output.Metrics, "metrics-addr")

	o.ListURLs = append(o.ListURLs, f.URLs...)
}

func anyExplicit(explicit func(string) bool, flags []string) bool {
	for _, name := range flags {
		if explicit(name) {
			return true
		}
	}
	return false
}
