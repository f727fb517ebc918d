package stats

import (
	"testing"
	"time"
)

func TestSummarizeEmptyIsError(t *testing.T) {
	if _, err := Summarize(nil, 0, time.Second); err == nil {
		t.Fatal("expected error for empty latency set")
	}
	// All tasks failing must surface an error, never zeroed statistics.
	if _, err := Summarize(nil, 25, time.Second); err == nil {
		t.Fatal("expected error when every task failed")
	}
}

func TestSummarizeBasics(t *testing.T) {
	lats := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}
	s, err := Summarize(lats, 0, time.Second)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Completed != 3 {
		t.Errorf("completed = %d, want 3", s.Completed)
	}
	if s.Mean != 20*time.Millisecond {
		t.Errorf("mean = %s, want 20ms", s.Mean)
	}
	if s.Min != 10*time.Millisecond {
		t.Errorf("min = %s, want 10ms", s.Min)
	}
	if s.Max != 30*time.Millisecond {
		t.Errorf("max = %s, want 30ms", s.Max)
	}
	if s.Throughput != 3.0 {
		t.Errorf("throughput = %f, want 3.0", s.Throughput)
	}
}

func TestSummarizeCountsFailedInThroughput(t *testing.T) {
	s, err := Summarize([]time.Duration{time.Millisecond}, 9, time.Second)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Failed != 9 {
		t.Errorf("failed = %d, want 9", s.Failed)
	}
	// Throughput is over submitted operations, matching ops/total_time.
	if s.Throughput != 10.0 {
		t.Errorf("throughput = %f, want 10.0", s.Throughput)
	}
}

func TestSummarizeQuantilesOrdered(t *testing.T) {
	lats := make([]time.Duration, 1000)
	for i := range lats {
		lats[i] = time.Duration(i+1) * time.Millisecond
	}
	s, err := Summarize(lats, 0, 10*time.Second)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.P50 > s.P90 || s.P90 > s.P99 {
		t.Errorf("quantiles out of order: p50=%s p90=%s p99=%s", s.P50, s.P90, s.P99)
	}
	if s.P99 > s.Max {
		t.Errorf("p99 %s exceeds max %s", s.P99, s.Max)
	}
	// p50 of a uniform 1..1000ms spread should sit near 500ms.
	if s.P50 < 400*time.Millisecond || s.P50 > 600*time.Millisecond {
		t.Errorf("p50 = %s, want ~500ms", s.P50)
	}
}

func TestSummarizeNonPositiveElapsed(t *testing.T) {
	if _, err := Summarize([]time.Duration{time.Millisecond}, 0, 0); err == nil {
		t.Fatal("expected error for zero elapsed time")
	}
}
