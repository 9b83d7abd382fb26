// Package crawler discovers the pages reachable inside an authenticated
// session with a bounded breadth-first traversal.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lcalzada-xor/axss/pkg/config"
	"github.com/lcalzada-xor/axss/pkg/forms"
	"github.com/lcalzada-xor/axss/pkg/logger"
	"github.com/lcalzada-xor/axss/pkg/metrics"
	"github.com/lcalzada-xor/axss/pkg/models"
	"github.com/lcalzada-xor/axss/pkg/network"
)

// Fetcher fetches a page through the authenticated session.
type Fetcher interface {
	Get(ctx context.Context, url string) (*network.Response, error)
}

// Options bounds a crawl.
type Options struct {
	MaxDepth int
	MaxPages int
	Delay    time.Duration
}

// DefaultOptions returns depth 2, 50 pages and a 500ms delay between fetches.
func DefaultOptions() Options {
	return Options{
		MaxDepth: config.DefaultMaxDepth,
		MaxPages: config.DefaultMaxPages,
		Delay:    config.DefaultCrawlDelay,
	}
}

type task struct {
	url   string
	depth int
}

// Frontier is the state of one crawl. discovered keeps emission order while
// discoveredSet answers membership; both change together in discover.
type Frontier struct {
	fetcher Fetcher
	opts    Options
	log     *logger.Logger
	seed    string

	// Metrics is optional.
	Metrics *metrics.Metrics

	mu            sync.Mutex
	visited       map[string]struct{}
	discovered    []string
	discoveredSet map[string]struct{}
	queue         []task
	queued        map[string]struct{}
}

// New creates a frontier seeded with seed at depth 0.
func New(fetcher Fetcher, seed string, opts Options, log *logger.Logger) (*Frontier, error) {
	if fetcher == nil {
		return nil, errors.New("crawler: nil fetcher")
	}
	if err := models.ValidateURL(seed); err != nil {
		return nil, fmt.Errorf("crawler: seed: %w", err)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = config.DefaultMaxPages
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}

	f := &Frontier{
		fetcher:       fetcher,
		opts:          opts,
		log:           log,
		visited:       make(map[string]struct{}),
		discoveredSet: make(map[string]struct{}),
		queued:        make(map[string]struct{}),
	}
	normalized, ok := Normalize(seed, "")
	if !ok {
		return nil, fmt.Errorf("crawler: seed %q is not crawlable", seed)
	}
	f.seed = normalized
	f.queue = append(f.queue, task{url: normalized, depth: 0})
	f.queued[normalized] = struct{}{}
	return f, nil
}

// AddSeeds queues extra URLs at depth 0. Relative URLs resolve against the
// seed; visited URLs are ignored. Safe to call while Crawl runs.
func (f *Frontier) AddSeeds(urls ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, raw := range urls {
		u, ok := Normalize(raw, f.seed)
		if !ok {
			f.log.Warn("Ignoring invalid seed URL: %s", raw)
			continue
		}
		if _, seen := f.visited[u]; seen {
			continue
		}
		f.queue = append(f.queue, task{url: u, depth: 0})
		f.queued[u] = struct{}{}
		f.log.V("Added manual URL: %s", u)
	}
}

// Visited returns how many pages were fetched.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Discovered returns the authenticated pages found so far in discovery order.
func (f *Frontier) Discovered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.discovered))
	copy(out, f.discovered)
	return out
}

// Crawl runs the traversal until the queue drains or MaxPages pages have
// been fetched. On cancellation it returns the pages found so far along
// with the context error.
func (f *Frontier) Crawl(ctx context.Context) ([]string, error) {
	f.log.Info("Starting authenticated crawl from %s", f.seed)
	f.log.V("Max depth: %d, Max pages: %d", f.opts.MaxDepth, f.opts.MaxPages)

	for {
		if err := ctx.Err(); err != nil {
			return f.Discovered(), err
		}

		t, ok := f.next()
		if !ok {
			break
		}
		if f.skip(t) {
			continue
		}

		f.visit(ctx, t)

		if f.pending() {
			if err := sleep(ctx, f.opts.Delay); err != nil {
				return f.Discovered(), err
			}
		}
	}

	found := f.Discovered()
	f.log.Success("Crawling complete. Discovered %d URLs", len(found))
	return found, nil
}

func (f *Frontier) next() (task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 || len(f.visited) >= f.opts.MaxPages {
		return task{}, false
	}
	t := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.queued, t.url)
	return t, true
}

func (f *Frontier) pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) > 0 && len(f.visited) < f.opts.MaxPages
}

func (f *Frontier) skip(t task) bool {
	f.mu.Lock()
	_, seen := f.visited[t.url]
	f.mu.Unlock()

	switch {
	case seen:
		return true
	case t.depth > f.opts.MaxDepth:
		return true
	case IsLogoutURL(t.url):
		f.log.Warn("Skipping logout URL: %s", t.url)
		return true
	case IsStaticResource(t.url):
		return true
	}
	return false
}

func (f *Frontier) visit(ctx context.Context, t task) {
	f.log.V("Crawling [%d]: %s", t.depth, t.url)

	resp, err := f.fetcher.Get(ctx, t.url)

	f.mu.Lock()
	f.visited[t.url] = struct{}{}
	f.mu.Unlock()
	f.Metrics.PageCrawled()

	if err != nil {
		f.log.Warn("Error crawling %s: %v", t.url, err)
		return
	}
	if network.IsLoginPage(resp) {
		f.log.Warn("Session expired or redirected to login at %s", t.url)
		return
	}

	f.discover(t.url)
	if !resp.IsHTML() {
		return
	}

	for _, link := range forms.ExtractLinks(resp.Body, t.url) {
		if !f.shouldCrawl(link) {
			continue
		}
		clean, ok := Normalize(link, "")
		if !ok {
			continue
		}
		f.enqueue(clean, t.depth+1)
	}
}

func (f *Frontier) shouldCrawl(link string) bool {
	return SameSite(link, f.seed) && !IsLogoutURL(link) && !IsStaticResource(link)
}

func (f *Frontier) discover(u string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.discoveredSet[u]; ok {
		return
	}
	f.discoveredSet[u] = struct{}{}
	f.discovered = append(f.discovered, u)
	f.log.VV("Discovered %s", u)
}

func (f *Frontier) enqueue(u string, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.visited[u]; ok {
		return
	}
	if _, ok := f.queued[u]; ok {
		return
	}
	f.queue = append(f.queue, task{url: u, depth: depth})
	f.queued[u] = struct{}{}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
