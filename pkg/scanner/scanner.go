package scanner

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/axss/pkg/config"
	"github.com/lcalzada-xor/axss/pkg/forms"
	"github.com/lcalzada-xor/axss/pkg/logger"
	"github.com/lcalzada-xor/axss/pkg/metrics"
	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/lcalzada-xor/axss/pkg/network"
	"github.com/lcalzada-xor/axss/pkg/scanner/payloads"
	"github.com/lcalzada-xor/axss/pkg/scanner/security"
)

// Reporter receives each finding as soon as it is confirmed.
type Reporter interface {
	Report(models.Finding)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(models.Finding)

// Report calls fn(f).
func (fn ReporterFunc) Report(f models.Finding) { fn(f) }

// Options configures the fuzzing engine.
type Options struct {
	Advanced      bool
	Concurrency   int
	PayloadDelay  time.Duration
	StoredDelay   time.Duration
	URLDelay      time.Duration
	SnippetLen    int
	ExtraPayloads []payloads.Payload
}

// DefaultOptions returns the basic payload tier, one worker and the
// standard pacing delays.
func DefaultOptions() Options {
	return Options{
		Concurrency:  config.DefaultConcurrency,
		PayloadDelay: config.DefaultPayloadDelay,
		StoredDelay:  config.DefaultStoredDelay,
		URLDelay:     config.DefaultURLDelay,
		SnippetLen:   config.DefaultSnippetLen,
	}
}

// Scanner is the fuzzing engine. One Scanner is shared by all workers;
// per-URL work is sequential and payloads are tried in catalog order.
type Scanner struct {
	client   *network.Client
	opts     Options
	logger   *logger.Logger
	reporter Reporter
	payloads []payloads.Payload
	findings *FindingSet

	// Metrics is optional.
	Metrics *metrics.Metrics

	urlsTested   atomic.Int64
	paramsTested atomic.Int64
	errors       atomic.Int64
	timeouts     atomic.Int64
	sessionLost  atomic.Bool
	wafs         sync.Map

	// hosts spaces requests per host when several workers run.
	hosts *network.HostLimiter
}

// New creates a Scanner. rep may be nil.
func New(client *network.Client, opts Options, log *logger.Logger, rep Reporter) *Scanner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.SnippetLen <= 0 {
		opts.SnippetLen = config.DefaultSnippetLen
	}
	s := &Scanner{
		client:   client,
		opts:     opts,
		logger:   log,
		reporter: rep,
		payloads: payloads.Merge(payloads.Select(opts.Advanced), opts.ExtraPayloads),
		findings: NewFindingSet(),
	}
	if opts.Concurrency > 1 && opts.PayloadDelay > 0 {
		s.hosts = network.NewHostLimiter(float64(time.Second)/float64(opts.PayloadDelay), 1)
	}
	return s
}

// Payloads returns the payloads tried against every input, in order.
func (s *Scanner) Payloads() []payloads.Payload {
	out := make([]payloads.Payload, len(s.payloads))
	copy(out, s.payloads)
	return out
}

// Findings returns the findings confirmed so far.
func (s *Scanner) Findings() []models.Finding {
	return s.findings.List()
}

// Stats returns the running counters.
func (s *Scanner) Stats() models.Stats {
	return models.Stats{
		URLsTested:           int(s.urlsTested.Load()),
		ParamsTested:         int(s.paramsTested.Load()),
		VulnerabilitiesFound: s.findings.Len(),
		Requests:             int(s.client.RequestCount()),
		Errors:               int(s.errors.Load()),
		Timeouts:             int(s.timeouts.Load()),
		WAFs:                 s.DetectedWAFs(),
	}
}

// Scan tests every URL with a bounded worker pool. Cancelling ctx stops the
// scan between requests; the findings confirmed until then are returned
// together with the context error.
func (s *Scanner) Scan(ctx context.Context, urls []string) ([]models.Finding, error) {
	s.logger.Info("Starting XSS scan on %d URLs", len(urls))
	s.logger.Info("Using %d payloads", len(s.payloads))
	start := time.Now()

	jobs := make(chan string)
	var wg sync.WaitGroup

	// Worker pool
	for i := 0; i < s.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for {
				select {
				case <-ctx.Done():
					return
				case target, ok := <-jobs:
					if !ok {
						return
					}
					if !first {
						if err := sleep(ctx, s.opts.URLDelay); err != nil {
							return
						}
					}
					first = false

					s.logger.Info("Scanning: %s", target)
					if err := s.ScanURL(ctx, target); err != nil && ctx.Err() == nil {
						s.logger.Error("Error scanning %s: %v", target, err)
					}
				}
			}
		}()
	}

feed:
	for _, u := range urls {
		select {
		case jobs <- u:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	s.Metrics.ScanFinished(time.Since(start))
	found := s.findings.List()
	if err := ctx.Err(); err != nil {
		s.logger.Warn("Scan interrupted. Found %d vulnerabilities before stopping", len(found))
		return found, err
	}
	s.logger.Success("Scan complete. Found %d vulnerabilities", len(found))
	return found, nil
}

// ScanURL tests the query parameters of target and every form on the page.
// A failed or non-2xx initial fetch only abandons this URL.
func (s *Scanner) ScanURL(ctx context.Context, target string) error {
	s.urlsTested.Add(1)
	s.Metrics.URLTested()

	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse %s: %w", target, err)
	}

	resp, err := s.get(ctx, target)
	if err != nil {
		s.failed(ctx, err)
		return err
	}
	s.noteWAF(resp)
	if !resp.OK() {
		s.logger.Warn("Got status %d for %s", resp.StatusCode, target)
		return nil
	}
	s.checkSession(target, resp)

	if u.RawQuery != "" {
		s.testQuery(ctx, target, network.ParseQuery(u.RawQuery))
	}

	if resp.IsHTML() {
		for _, form := range forms.ParseForms(resp.Body, target) {
			if ctx.Err() != nil {
				break
			}
			s.testForm(ctx, form)
		}
	}
	return ctx.Err()
}

// checkSession warns once when a scanned page looks like a login screen.
// Testing goes on with the current session.
func (s *Scanner) checkSession(target string, resp *network.Response) {
	if !network.IsLoginPage(resp) {
		return
	}
	if s.sessionLost.CompareAndSwap(false, true) {
		s.logger.Warn("Session may have expired: %s looks like a login page", target)
	}
}

// noteWAF warns once per firewall product seen in any response.
func (s *Scanner) noteWAF(resp *network.Response) {
	waf, ok := security.Detect(resp.StatusCode, resp.Header, resp.Body)
	if !ok {
		return
	}
	if _, seen := s.wafs.LoadOrStore(waf.Name, struct{}{}); seen {
		return
	}
	s.logger.Warn("WAF detected (%s), results might be incomplete", waf.Name)
}

// DetectedWAFs lists the firewalls seen so far, sorted.
func (s *Scanner) DetectedWAFs() []string {
	var names []string
	s.wafs.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

func (s *Scanner) paramTested(method models.HTTPMethod) {
	s.paramsTested.Add(1)
	s.Metrics.ParamTested(string(method))
}

// failed records a per-attempt error and reports whether the scan itself
// was cancelled. Request timeouts are counted apart but do not stop the scan.
func (s *Scanner) failed(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	s.errors.Add(1)
	if network.IsTimeout(err) {
		s.timeouts.Add(1)
		s.logger.V("Request timed out: %v", err)
		return false
	}
	s.logger.VV("Request failed: %v", err)
	return false
}

func (s *Scanner) record(f models.Finding) {
	if !s.findings.Add(f) {
		s.logger.VV("Duplicate finding ignored: %s %s [%s]", f.Method, f.URL, f.Parameter)
		return
	}
	s.Metrics.Finding(string(f.Type), string(f.Context))
	s.logger.V("%s in parameter %s (%s context)", f.Type, f.Parameter, f.Context)
	if s.reporter != nil {
		s.reporter.Report(f)
	}
}

// pace waits between the payload attempts of one worker. With several
// workers the per-host gate in throttle does the spacing instead, so adding
// workers does not raise the request rate against a host.
func (s *Scanner) pace(ctx context.Context, first bool) error {
	if first || s.hosts != nil {
		return ctx.Err()
	}
	return sleep(ctx, s.opts.PayloadDelay)
}

// throttle blocks until the host of rawURL may be contacted again.
func (s *Scanner) throttle(ctx context.Context, rawURL string) error {
	if s.hosts == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if err := s.hosts.Wait(ctx, u.Host); err != nil {
		// The next slot lies past the deadline.
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *Scanner) get(ctx context.Context, rawURL string) (*network.Response, error) {
	if err := s.throttle(ctx, rawURL); err != nil {
		return nil, err
	}
	return s.client.Get(ctx, rawURL)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
