// Package runner wires the scanner components into one CLI run: login,
// target loading, crawling, fuzzing and reporting.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lcalzada-xor/axss/pkg/auth"
	"github.com/lcalzada-xor/axss/pkg/config"
	"github.com/lcalzada-xor/axss/pkg/crawler"
	"github.com/lcalzada-xor/axss/pkg/logger"
	"github.com/lcalzada-xor/axss/pkg/metrics"
	"github.com/lcalzada-xor/axss/pkg/network"
	"github.com/lcalzada-xor/axss/pkg/output"
	"github.com/lcalzada-xor/axss/pkg/scanner"
	"github.com/lcalzada-xor/axss/pkg/scanner/payloads"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFindings    = 1
	ExitError       = 2
	ExitInterrupted = 130
)

// scopePreview is how many in-scope URLs are listed before scanning.
const scopePreview = 10

// Runner handles the execution of the scanning process
type Runner struct {
	options *Options
	log     *logger.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// NewRunner creates a new Runner instance
func NewRunner(options *Options) *Runner {
	stdout, stderr := options.Stdout, options.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	level := int(logger.VerboseSilent)
	switch {
	case options.Silent:
		level = int(logger.VerboseQuiet)
	case options.VeryVerbose:
		level = int(logger.VerboseVery)
	case options.Verbose:
		level = int(logger.VerboseNormal)
	}
	log := logger.NewLogger(level)
	log.SetOutput(stderr)

	return &Runner{options: options, log: log, stdout: stdout, stderr: stderr}
}

// Run executes the scan and returns the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	o := r.options
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var interrupted atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			interrupted.Store(true)
			r.log.Warn("Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if !o.Silent {
		r.banner()
	}

	format, err := output.ParseFormat(o.OutputFormat)
	if err != nil {
		r.log.Error("%v", err)
		return ExitError
	}

	targets, err := r.targets()
	if err != nil {
		r.log.Error("%v", err)
		return ExitError
	}

	m, err := metrics.New()
	if err != nil {
		r.log.Error("metrics: %v", err)
		return ExitError
	}
	if o.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, o.MetricsAddr); err != nil {
				r.log.Warn("Metrics server stopped: %v", err)
			}
		}()
		r.log.Info("Serving metrics on http://%s/metrics", o.MetricsAddr)
	}

	client, err := r.client(targets)
	if err != nil {
		r.log.Error("%v", err)
		return ExitError
	}
	client.Metrics = m

	if err := r.authenticate(ctx, client, targets[0]); err != nil {
		if interrupted.Load() {
			return ExitInterrupted
		}
		r.log.Error("%v", err)
		return ExitError
	}

	scope := dedupe(targets)
	if o.Crawl {
		scope, err = r.crawl(ctx, client, m, targets)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error("%v", err)
			return ExitError
		}
	}
	r.previewScope(scope)

	var extra []payloads.Payload
	if o.PayloadsFile != "" {
		extra, err = payloads.LoadFile(o.PayloadsFile)
		if err != nil {
			r.log.Error("%v", err)
			return ExitError
		}
		r.log.Info("Loaded %d custom payloads", len(extra))
	}

	reporter := output.NewReporter(r.stdout, format, colorFor(r.stdout))
	if o.OutputFile != "" {
		if err := reporter.MirrorTo(o.OutputFile); err != nil {
			r.log.Error("%v", err)
			return ExitError
		}
	}
	defer reporter.Close()

	scanOpts := scanner.Options{
		Advanced:      o.Advanced,
		Concurrency:   o.Concurrency,
		PayloadDelay:  o.PayloadDelay,
		StoredDelay:   o.StoredDelay,
		URLDelay:      o.URLDelay,
		SnippetLen:    config.DefaultSnippetLen,
		ExtraPayloads: extra,
	}
	sc := scanner.New(client, scanOpts, r.log, reporter)
	sc.Metrics = m

	r.log.Section("Scanning")
	r.log.Info("Testing %d URLs with %d payloads", len(scope), len(sc.Payloads()))
	findings, _ := sc.Scan(ctx, scope)
	stats := sc.Stats()

	report := output.NewReport(scope, start)
	reporter.Summary(stats, report.RunID)
	if o.ReportFile != "" {
		report.Finish(findings, stats, time.Now())
		if err := report.WriteJSONReport(o.ReportFile); err != nil {
			r.log.Error("%v", err)
		} else {
			r.log.Success("Report written to %s", o.ReportFile)
		}
	}

	switch {
	case interrupted.Load():
		return ExitInterrupted
	case len(findings) > 0:
		return ExitFindings
	default:
		return ExitOK
	}
}

// targets collects -u, config URLs and the list file, in that order.
func (r *Runner) targets() ([]string, error) {
	o := r.options
	var urls []string
	if o.URL != "" {
		urls = append(urls, o.URL)
	}
	urls = append(urls, o.ListURLs...)
	if o.ListFile != "" {
		fromFile, err := readURLFile(o.ListFile, r.log)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}

	valid := urls[:0]
	for _, u := range urls {
		if err := validTarget(u); err != nil {
			r.log.Warn("Skipping %s: %v", u, err)
			continue
		}
		valid = append(valid, u)
	}
	if len(valid) == 0 {
		return nil, errors.New("no valid target URLs (use -u or -l)")
	}
	return valid, nil
}

func validTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an http(s) URL")
	}
	return nil
}

func (r *Runner) client(targets []string) (*network.Client, error) {
	o := r.options
	headers, err := parseHeaders(o.Headers)
	if err != nil {
		return nil, err
	}

	opts := network.DefaultOptions()
	opts.Timeout = o.Timeout
	opts.Proxy = o.Proxy
	opts.Headers = headers
	opts.Rate = o.RateLimit
	opts.Concurrency = o.Concurrency
	if o.UserAgent != "" {
		opts.UserAgent = o.UserAgent
	}

	client, err := network.NewClient(opts)
	if err != nil {
		return nil, err
	}

	if o.Cookie != "" {
		hosts := append([]string{o.LoginURL}, targets...)
		for _, raw := range hosts {
			u, err := url.Parse(raw)
			if err != nil || u.Host == "" {
				continue
			}
			if err := client.SetCookieHeader(u, o.Cookie); err != nil {
				return nil, fmt.Errorf("invalid --cookie: %w", err)
			}
		}
	}
	return client, nil
}

// authenticate runs the configured login flow. Without one the scan is
// anonymous apart from any --cookie.
func (r *Runner) authenticate(ctx context.Context, client *network.Client, firstTarget string) error {
	o := r.options
	switch {
	case o.BrowserLogin:
		loginURL := o.LoginURL
		if loginURL == "" {
			loginURL = firstTarget
		}
		wait := o.BrowserWait
		if wait == nil {
			wait = r.waitForEnter
		}
		r.log.Section("Browser Login")
		return auth.BrowserLogin(ctx, client, loginURL, auth.BrowserOptions{Proxy: o.Proxy, UserAgent: o.UserAgent}, wait, r.log)

	case o.LoginURL != "":
		r.log.Section("Authentication")
		if err := auth.CredentialLogin(ctx, client, auth.Credentials{
			LoginURL: o.LoginURL,
			Username: o.Username,
			Password: o.Password,
		}, r.log); err != nil {
			return err
		}
		if !auth.ValidateSession(ctx, client, firstTarget) {
			r.log.V("Session could not be confirmed on %s, continuing", firstTarget)
		}
	}
	return nil
}

func (r *Runner) waitForEnter() error {
	fmt.Fprint(r.stderr, "[?] Log in in the browser window, then press Enter to continue...")
	_, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err == io.EOF {
		return nil
	}
	return err
}

// crawl discovers in-scope pages starting at the first target. The other
// targets are injected as extra seeds.
func (r *Runner) crawl(ctx context.Context, client *network.Client, m *metrics.Metrics, targets []string) ([]string, error) {
	o := r.options
	r.log.Section("Crawling")
	frontier, err := crawler.New(client, targets[0], crawler.Options{
		MaxDepth: o.MaxDepth,
		MaxPages: o.MaxPages,
		Delay:    o.CrawlDelay,
	}, r.log)
	if err != nil {
		return nil, err
	}
	frontier.Metrics = m
	frontier.AddSeeds(targets[1:]...)

	urls, err := frontier.Crawl(ctx)
	r.log.Info("Crawled %d pages, %d URLs discovered", frontier.Visited(), len(urls))
	return dedupe(urls), err
}

func (r *Runner) previewScope(scope []string) {
	r.log.Section("Scope")
	r.log.Info("%d URLs in scope", len(scope))
	for i, u := range scope {
		if i == scopePreview && !r.log.IsVeryVerbose() {
			r.log.Detail("... and %d more", len(scope)-scopePreview)
			break
		}
		r.log.Detail("%s", u)
	}
}

func colorFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && output.ColorEnabled(f)
}

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB800")).Italic(true)
)

func (r *Runner) banner() {
	art := `
   ▄▀▀▄ ▀▄▀ ▄▀▀ ▄▀▀
   █▀▀█ ▄▀▄ ▀▀█ ▀▀█
   ▀  ▀ ▀ ▀ ▀▀  ▀▀ `
	if !colorFor(r.stderr) {
		fmt.Fprintln(r.stderr, art)
		fmt.Fprintf(r.stderr, "   %s | %s\n", config.Version, config.Author)
		fmt.Fprintln(r.stderr, "   Only scan applications you are authorized to test.")
		fmt.Fprintln(r.stderr)
		return
	}
	fmt.Fprintln(r.stderr, bannerStyle.Render(art))
	fmt.Fprintln(r.stderr, "   "+versionStyle.Render(config.Version+" | "+config.Author))
	fmt.Fprintln(r.stderr, "   "+noticeStyle.Render("Only scan applications you are authorized to test."))
	fmt.Fprintln(r.stderr)
}
