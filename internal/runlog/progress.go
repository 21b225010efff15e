// Package runlog implements the mutex-guarded progress and structured
// logging surface shared by every worker goroutine in a run: a live
// progress bar tracking per-agent success/failure counts, and a
// zerolog-backed Logger writing to file and/or console per the
// --console/--logFile global flags.
package runlog

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressBar is a concurrency-safe progress bar tracking how many of a
// known total unit of work (agents) have completed, and how many of
// those failed. Adapted from the teacher's channel-based progress bar
// into a single mutex-guarded counter, matching this system's
// "progress reporting uses a mutex-guarded logger" concurrency design.
type ProgressBar struct {
	mu        sync.Mutex
	width     int
	total     int
	done      int
	failed    int
	startTime time.Time
	quiet     bool
}

// NewProgressBar returns a ProgressBar that reaches 100% after total
// Increment calls. When quiet is true, Display is a no-op (used when
// --console is not set and output goes only to the log file).
func NewProgressBar(width, total int, quiet bool) *ProgressBar {
	return &ProgressBar{width: width, total: total, startTime: time.Now(), quiet: quiet}
}

// Increment records that one unit of work completed, and whether it
// succeeded.
func (p *ProgressBar) Increment(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done < p.total {
		p.done++
	}
	if !ok {
		p.failed++
	}
}

// Counts returns the current (done, failed, total) snapshot.
func (p *ProgressBar) Counts() (done, failed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed, p.total
}

// Display renders the current state of the bar to stderr. Safe to call
// repeatedly (e.g. from a ticking goroutine); it always overwrites the
// previous line.
func (p *ProgressBar) Display() {
	if p.quiet {
		return
	}
	p.mu.Lock()
	done, failed, total := p.done, p.failed, p.total
	elapsed := time.Since(p.startTime).Truncate(time.Second)
	p.mu.Unlock()

	frac := 0.0
	if total > 0 {
		frac = float64(done) / float64(total)
	}
	filled := int(frac * float64(p.width))

	var bar strings.Builder
	bar.WriteByte('|')
	bar.WriteString(strings.Repeat("#", filled))
	bar.WriteString(strings.Repeat(" ", p.width-filled))
	bar.WriteByte('|')

	fmt.Fprintf(stderrWriter, "\r%s %6.2f%% (%d/%d, %d failed) elapsed: %v",
		bar.String(), frac*100, done, total, failed, elapsed)
}
