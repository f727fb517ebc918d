// Package bench orchestrates one stress run: setup, the concurrent workload
// phase, and reporting.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/user/cachebench/internal/metrics"
	"github.com/user/cachebench/internal/runner"
	"github.com/user/cachebench/internal/scenario"
	"github.com/user/cachebench/internal/stats"
	"github.com/user/cachebench/internal/workload"
	"github.com/user/cachebench/pkg/client"
)

// Setup creates the target cache and prepopulates the key pool.
// A non-success creation status is logged and tolerated (the cache may
// already exist from a previous run); a transport failure here is fatal.
// Prepopulation is strictly sequential and sits outside the measured window.
func Setup(ctx context.Context, c *client.Client, s scenario.Scenario, keys []string, out io.Writer) error {
	resp, err := c.CreateCache(ctx, client.CacheConfig{
		Name:       s.Cache.Name,
		Type:       s.Cache.Type,
		Capacity:   s.Cache.Capacity,
		TTLSeconds: s.Cache.TTLSeconds,
	})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	fmt.Fprintf(out, "Create Cache: %d %s\n", resp.Status, resp.Body)
	if resp.Status < 200 || resp.Status >= 300 {
		slog.Warn("cache creation not acknowledged", "status", resp.Status)
	}

	for _, key := range keys {
		if _, err := c.Put(ctx, s.Cache.Name, key, s.InitialValue); err != nil {
			return fmt.Errorf("prepopulate %s: %w", key, err)
		}
	}
	return nil
}

// Execute runs the concurrent stress phase and returns the collected
// latencies. Individual task failures are logged by the runner and excluded
// from the latency set; they never abort the phase. With StrictStatus set,
// non-2xx responses count as failures too.
func Execute(ctx context.Context, c *client.Client, s scenario.Scenario, keys []string, m *metrics.Metrics) (runner.Outcome, error) {
	sampler, err := workload.NewSampler(s.MixWeights())
	if err != nil {
		return runner.Outcome{}, err
	}
	gen, err := workload.NewGenerator(c, s.Cache.Name, keys, sampler, s.ValueBound)
	if err != nil {
		return runner.Outcome{}, err
	}

	task := func(ctx context.Context) (time.Duration, error) {
		res, err := gen.Operation(ctx)
		if err != nil {
			if m != nil {
				m.RecordFailure(string(res.Op))
			}
			return 0, err
		}
		if s.StrictStatus && (res.Status < 200 || res.Status >= 300) {
			if m != nil {
				m.RecordFailure(string(res.Op))
			}
			return 0, fmt.Errorf("%s %s: status %d", res.Op, res.Key, res.Status)
		}
		if m != nil {
			m.RecordSuccess(string(res.Op), res.Elapsed)
		}
		return res.Elapsed, nil
	}

	return runner.Run(ctx, s.Operations, s.Workers, task), nil
}

// Report summarizes the outcome and writes the run summary. It fails when no
// task succeeded.
func Report(out io.Writer, s scenario.Scenario, outcome runner.Outcome) (*stats.Summary, error) {
	summary, err := stats.Summarize(outcome.Latencies, outcome.Failed, outcome.Elapsed)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Completed %d/%d operations in %.2f seconds\n",
		summary.Completed, s.Operations, summary.Elapsed.Seconds())
	if summary.Failed > 0 {
		fmt.Fprintf(out, "Failed operations: %d\n", summary.Failed)
	}
	fmt.Fprintf(out, "Throughput: %.2f ops/sec\n", summary.Throughput)
	fmt.Fprintf(out, "  avg: %s\n", summary.Mean.Round(time.Microsecond))
	fmt.Fprintf(out, "  min: %s\n", summary.Min.Round(time.Microsecond))
	fmt.Fprintf(out, "  max: %s\n", summary.Max.Round(time.Microsecond))
	fmt.Fprintf(out, "  p50: %s\n", summary.P50.Round(time.Microsecond))
	fmt.Fprintf(out, "  p90: %s\n", summary.P90.Round(time.Microsecond))
	fmt.Fprintf(out, "  p99: %s\n", summary.P99.Round(time.Microsecond))
	return summary, nil
}

// FetchStats retrieves and prints service-side statistics. A transport
// failure is fatal; an unavailable or unparsable stats response is reported
// as such without failing the run.
func FetchStats(ctx context.Context, c *client.Client, cacheName string, out io.Writer) error {
	st, err := c.Stats(ctx, cacheName)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	if st == nil {
		fmt.Fprintln(out, "Failed to retrieve cache stats.")
		return nil
	}
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("format stats: %w", err)
	}
	fmt.Fprintf(out, "Cache Stats: %s\n", b)
	return nil
}
