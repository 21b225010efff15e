// Package runner implements the §5 concurrency model's thread-pool
// driver: a fixed number of worker goroutines pull per-agent tasks from
// a shared queue, run them single-threaded per agent, and funnel
// results/failures through a mutex-guarded sink and logger. Adapted
// from the teacher's experiment.Online episode-loop driver, generalized
// from one environment-stepping agent to a pool processing many
// independent agents.
package runner

import (
	"sync"

	"github.com/scaper-sim/scaper/internal/runlog"
)

// Options configures a Pool.
type Options struct {
	// Parallelism is the number of worker goroutines (CLI's -x flag).
	// A value <= 0 means 1.
	Parallelism int
}

// Pool runs per-agent work across a set of worker goroutines,
// isolating per-agent failures per §7's propagation policy: a failed
// agent is logged and skipped, and the run continues with the rest.
type Pool struct {
	opts Options
	log  *runlog.Logger
}

// New builds a Pool with the given options, logging per-agent failures
// through log.
func New(opts Options, log *runlog.Logger) *Pool {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &Pool{opts: opts, log: log}
}

// Run processes every item in items (one agent per item for sim/cs, one
// choiceset per item for est's precompute stage), calling task once per
// item on one of p's worker goroutines and onResult for each successful
// result as it completes. newWorker builds the per-worker resources a
// task rents from (a World, Mat pool, EV cache -- §5: "Mat pools, EV
// pools, World pools: one per worker thread"), constructed once per
// goroutine rather than once per item; closeWorker releases them when
// that goroutine's queue drains. onResult is called one result at a
// time from Run's own calling goroutine, never concurrently, so a plain
// append needs no lock; results arrive in no guaranteed order across
// workers. Run blocks until every item has been
// processed and returns the number of items that failed.
func Run[I any, W any, R any](
	p *Pool,
	items []I,
	newWorker func() (W, error),
	closeWorker func(W),
	task func(w W, item I) (R, error),
	onResult func(R),
) (int, error) {
	jobs := make(chan I)
	results := make(chan R)
	var wg sync.WaitGroup

	var setupErrMu sync.Mutex
	var setupErr error

	var failedMu sync.Mutex
	failed := 0

	for i := 0; i < p.opts.Parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w, err := newWorker()
			if err != nil {
				setupErrMu.Lock()
				if setupErr == nil {
					setupErr = err
				}
				setupErrMu.Unlock()
				// Drain the remaining jobs so Run's feeder goroutine
				// below does not block forever on a channel send.
				for range jobs {
				}
				return
			}
			defer closeWorker(w)

			for item := range jobs {
				result, err := task(w, item)
				if err != nil {
					if p.log != nil {
						p.log.Error(err, "item processing failed")
					}
					failedMu.Lock()
					failed++
					failedMu.Unlock()
					continue
				}
				results <- result
			}
		}()
	}

	go func() {
		for _, it := range items {
			jobs <- it
		}
		close(jobs)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(results)
		close(done)
	}()

	for r := range results {
		onResult(r)
	}
	<-done

	setupErrMu.Lock()
	err := setupErr
	setupErrMu.Unlock()
	return failed, err
}
