package bench

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/user/cachebench/internal/cacheserver"
	"github.com/user/cachebench/internal/scenario"
	"github.com/user/cachebench/internal/workload"
	"github.com/user/cachebench/pkg/client"
)

func smallScenario() scenario.Scenario {
	s := scenario.Default()
	s.Keys = 2
	s.Operations = 10
	s.Workers = 4
	return s
}

func TestSetupAgainstCacheServer(t *testing.T) {
	ts := httptest.NewServer(cacheserver.New(":0").Handler())
	defer ts.Close()

	s := smallScenario()
	keys := workload.NewKeyPool(s.Keys)
	var out bytes.Buffer

	if err := Setup(context.Background(), client.New(ts.URL), s, keys, &out); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Create Cache: 201") {
		t.Errorf("setup output = %q, want Create Cache: 201 prefix", out.String())
	}
}

func TestSetupPrepopulatesSequentially(t *testing.T) {
	var puts atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := smallScenario()
	s.Keys = 7
	keys := workload.NewKeyPool(s.Keys)

	if err := Setup(context.Background(), client.New(ts.URL), s, keys, &bytes.Buffer{}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if n := puts.Load(); n != 7 {
		t.Errorf("prepopulate PUTs = %d, want 7", n)
	}
}

func TestSetupToleratesNonSuccessCreate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			// Cache already exists from a previous run.
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := smallScenario()
	keys := workload.NewKeyPool(s.Keys)
	if err := Setup(context.Background(), client.New(ts.URL), s, keys, &bytes.Buffer{}); err != nil {
		t.Fatalf("Setup should tolerate non-2xx create: %v", err)
	}
}

func TestSetupTransportErrorIsFatal(t *testing.T) {
	s := smallScenario()
	keys := workload.NewKeyPool(s.Keys)
	c := client.New("http://127.0.0.1:1")
	if err := Setup(context.Background(), c, s, keys, &bytes.Buffer{}); err == nil {
		t.Fatal("expected fatal setup error")
	}
}

func TestExecuteAndReport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := smallScenario()
	keys := workload.NewKeyPool(s.Keys)

	outcome, err := Execute(context.Background(), client.New(ts.URL), s, keys, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(outcome.Latencies) != 10 {
		t.Errorf("latencies = %d, want 10", len(outcome.Latencies))
	}
	if outcome.Failed != 0 {
		t.Errorf("failed = %d, want 0", outcome.Failed)
	}

	var out bytes.Buffer
	summary, err := Report(&out, s, outcome)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if summary.Throughput <= 0 {
		t.Errorf("throughput = %f, want > 0", summary.Throughput)
	}
	if !strings.Contains(out.String(), "Throughput:") {
		t.Errorf("report output missing throughput: %q", out.String())
	}
}

func TestExecuteAllFailedReportErrors(t *testing.T) {
	s := smallScenario()
	keys := workload.NewKeyPool(s.Keys)

	// No server listening: every task fails, the run still completes.
	outcome, err := Execute(context.Background(), client.New("http://127.0.0.1:1"), s, keys, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Failed != s.Operations {
		t.Errorf("failed = %d, want %d", outcome.Failed, s.Operations)
	}

	if _, err := Report(&bytes.Buffer{}, s, outcome); err == nil {
		t.Fatal("expected Report error for all-failed run")
	}
}

func TestExecuteStrictStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	s := smallScenario()
	keys := workload.NewKeyPool(s.Keys)

	outcome, err := Execute(context.Background(), client.New(ts.URL), s, keys, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Failed != 0 {
		t.Errorf("lenient mode: failed = %d, want 0", outcome.Failed)
	}

	s.StrictStatus = true
	outcome, err = Execute(context.Background(), client.New(ts.URL), s, keys, nil)
	if err != nil {
		t.Fatalf("Execute strict: %v", err)
	}
	if outcome.Failed != s.Operations {
		t.Errorf("strict mode: failed = %d, want %d", outcome.Failed, s.Operations)
	}
}

func TestFetchStats(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits":10,"misses":2}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	if err := FetchStats(context.Background(), client.New(ts.URL), "test_cache", &out); err != nil {
		t.Fatalf("FetchStats: %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "Cache Stats: ") || !strings.Contains(got, `"hits":10`) {
		t.Errorf("output = %q", got)
	}
}

func TestFetchStatsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	var out bytes.Buffer
	if err := FetchStats(context.Background(), client.New(ts.URL), "test_cache", &out); err != nil {
		t.Fatalf("FetchStats: %v", err)
	}
	if !strings.Contains(out.String(), "Failed to retrieve cache stats.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestFetchStatsTransportErrorIsFatal(t *testing.T) {
	c := client.New("http://127.0.0.1:1")
	if err := FetchStats(context.Background(), c, "test_cache", &bytes.Buffer{}); err == nil {
		t.Fatal("expected transport error")
	}
}
