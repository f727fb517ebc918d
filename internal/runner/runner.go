// Package runner dispatches workload tasks across a bounded worker pool and
// collects per-task latencies as tasks complete.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Task executes one workload operation and reports its latency.
type Task func(ctx context.Context) (time.Duration, error)

// Outcome aggregates a completed run. Latencies holds one entry per
// successful task, in completion order. Failed counts tasks that returned an
// error; a failed task never aborts the run.
type Outcome struct {
	Latencies []time.Duration
	Failed    int
	Elapsed   time.Duration
}

// Run executes ops independent tasks on a fixed pool of workers goroutines.
// It returns once every submitted task has either produced a latency or
// reported an error. Tasks complete in no particular order.
func Run(ctx context.Context, ops, workers int, task Task) Outcome {
	if workers <= 0 {
		workers = 1
	}
	if workers > ops {
		workers = ops
	}

	type result struct {
		elapsed time.Duration
		err     error
	}

	results := make(chan result, workers)
	var next atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if n := next.Add(1); n > int64(ops) {
					return
				}
				select {
				case <-ctx.Done():
					results <- result{err: ctx.Err()}
					continue
				default:
				}
				elapsed, err := task(ctx)
				results <- result{elapsed: elapsed, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := Outcome{Latencies: make([]time.Duration, 0, ops)}
	for r := range results {
		if r.err != nil {
			out.Failed++
			slog.Warn("operation error", "err", r.err)
			continue
		}
		out.Latencies = append(out.Latencies, r.elapsed)
	}
	out.Elapsed = time.Since(start)
	return out
}
