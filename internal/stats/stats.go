// Package stats aggregates per-operation latencies into a run summary.
package stats

import (
	"fmt"
	"time"

	"github.com/codahale/hdrhistogram"
)

// Summary describes one completed stress run.
type Summary struct {
	Completed  int
	Failed     int
	Elapsed    time.Duration
	Throughput float64 // submitted operations per second

	Mean time.Duration
	Min  time.Duration
	Max  time.Duration
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
}

const maxTrackableUs = int64(10 * time.Minute / time.Microsecond)

// Summarize computes the run summary for the collected latencies. It returns
// an error when no task succeeded: statistics over an empty set are
// undefined and must never be reported as zeros.
func Summarize(latencies []time.Duration, failed int, elapsed time.Duration) (*Summary, error) {
	if len(latencies) == 0 {
		return nil, fmt.Errorf("no successful operations to summarize (%d failed)", failed)
	}
	if elapsed <= 0 {
		return nil, fmt.Errorf("non-positive run duration %s", elapsed)
	}

	hist := hdrhistogram.New(1, maxTrackableUs, 3)
	var sum time.Duration
	min, max := latencies[0], latencies[0]
	for _, l := range latencies {
		sum += l
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
		us := int64(l / time.Microsecond)
		if us < 1 {
			us = 1
		}
		if us > maxTrackableUs {
			us = maxTrackableUs
		}
		hist.RecordValue(us)
	}

	total := len(latencies) + failed
	return &Summary{
		Completed:  len(latencies),
		Failed:     failed,
		Elapsed:    elapsed,
		Throughput: float64(total) / elapsed.Seconds(),
		Mean:       sum / time.Duration(len(latencies)),
		Min:        min,
		Max:        max,
		P50:        time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:        time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond,
		P99:        time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
	}, nil
}
