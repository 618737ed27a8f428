package batch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/oisee/tracecheck/pkg/result"
)

// WorkerPool checks trace pairs in parallel. Each pair is still compared
// by a single goroutine; only independent pairs run concurrently.
type WorkerPool struct {
	NumWorkers   int
	StrictLength bool // count a length mismatch as a failure
	Results      *result.Table

	checker *Checker
	log     zerolog.Logger
	checked atomic.Int64
	failed  atomic.Int64
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(numWorkers int, checker *Checker, log zerolog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		NumWorkers: numWorkers,
		Results:    result.NewTable(),
		checker:    checker,
		log:        log,
	}
}

// Stats returns batch statistics.
func (wp *WorkerPool) Stats() (checked, failed int64) {
	return wp.checked.Load(), wp.failed.Load()
}

// Run distributes pairs across workers and blocks until all are done.
// Pairs not started before ctx is cancelled are recorded with ctx's error.
func (wp *WorkerPool) Run(ctx context.Context, pairs []Pair) {
	ch := make(chan Pair, len(pairs))
	for _, p := range pairs {
		ch <- p.withDefaults()
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range ch {
				if err := ctx.Err(); err != nil {
					wp.record(result.Entry{Name: p.Name, Err: err})
					continue
				}
				wp.process(p)
			}
		}()
	}
	wg.Wait()
}

func (wp *WorkerPool) process(p Pair) {
	log := wp.log.With().Str("pair", p.Name).Logger()
	log.Debug().Str("reference", p.Reference).Str("candidate", p.Candidate).Msg("checking pair")

	start := time.Now()
	rep, err := wp.checker.Check(p)
	entry := result.Entry{Name: p.Name, Report: rep, Err: err, Elapsed: time.Since(start)}

	switch {
	case err != nil:
		log.Error().Err(err).Msg("pair could not be checked")
	case !entry.Passed(wp.StrictLength):
		log.Warn().Str("result", rep.Outcome.Kind.String()).Int("line", rep.Outcome.Line).Msg(rep.Summary())
	default:
		log.Info().Int("entries", rep.Outcome.Compared).Dur("elapsed", entry.Elapsed).Msg("pair matches")
	}
	wp.record(entry)
}

func (wp *WorkerPool) record(e result.Entry) {
	wp.checked.Add(1)
	if !e.Passed(wp.StrictLength) {
		wp.failed.Add(1)
	}
	wp.Results.Add(e)
}
