package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lcalzada-xor/axss/pkg/models"
)

// Reporter prints findings as they are confirmed. It is safe for use by
// concurrent scan workers.
type Reporter struct {
	mu        sync.Mutex
	out       io.Writer
	formatter *Formatter
	mirror    io.WriteCloser
	plain     *Formatter
	count     int
}

// NewReporter writes findings to out in the given format.
func NewReporter(out io.Writer, format Format, color bool) *Reporter {
	return &Reporter{out: out, formatter: NewFormatter(format, color)}
}

// MirrorTo additionally appends every finding and the summary, uncoloured,
// to the file at path.
func (r *Reporter) MirrorTo(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirror = f
	r.plain = NewFormatter(r.formatter.format, false)
	return nil
}

// Report implements scanner.Reporter.
func (r *Reporter) Report(f models.Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	fmt.Fprintln(r.out, r.formatter.Format(f))
	if r.mirror != nil {
		fmt.Fprintln(r.mirror, r.plain.Format(f))
	}
}

// Count returns how many findings were reported.
func (r *Reporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Summary prints the scan totals. URL output stays machine readable, so the
// summary only goes to the mirror file there.
func (r *Reporter) Summary(stats models.Stats, runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.formatter.format != FormatURL {
		fmt.Fprintln(r.out, r.formatter.Summary(stats, runID))
	}
	if r.mirror != nil {
		fmt.Fprintln(r.mirror, NewFormatter(FormatHuman, false).Summary(stats, runID))
	}
}

// Close closes the mirror file, if any.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mirror == nil {
		return nil
	}
	err := r.mirror.Close()
	r.mirror = nil
	return err
}
