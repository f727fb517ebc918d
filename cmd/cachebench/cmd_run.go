package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cachebench/internal/bench"
	"github.com/user/cachebench/internal/history"
	"github.com/user/cachebench/internal/metrics"
	"github.com/user/cachebench/internal/observability"
	"github.com/user/cachebench/internal/scenario"
	"github.com/user/cachebench/internal/workload"
	"github.com/user/cachebench/pkg/client"
)

var (
	runServer       string
	runScenarioFile string
	runPreset       string
	runCacheName    string
	runCacheType    string
	runCapacity     int
	runKeys         int
	runOps          int
	runConcurrency  int
	runGetWeight    int
	runPutWeight    int
	runDeleteWeight int
	runStrict       bool
	runTimeout      time.Duration
	runHTTP2        bool
	runSave         bool
	runHistoryDB    string
	runMetricsAddr  string
	runOtel         bool
	runOtelEndpoint string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a stress workload against a cache service",
	Long: `Run a stress workload against a cache service.

The run creates the target cache, sequentially prepopulates the key pool,
then dispatches the configured number of random GET/PUT/DELETE operations
across a fixed worker pool and reports latency and throughput.

Presets (--preset):
  smoke      500 ops, 10 workers, 50 keys
  standard   20000 ops, 200 workers, 100 keys
  soak       200000 ops, 100 workers, 100 keys`,
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runServer, "server", "http://127.0.0.1:8080", "Cache service base URL")
	f.StringVar(&runScenarioFile, "scenario", "", "Path to a YAML scenario file")
	f.StringVar(&runPreset, "preset", "standard", "Built-in scenario preset")
	f.StringVar(&runCacheName, "cache", "test_cache", "Target cache name")
	f.StringVar(&runCacheType, "cache-type", "lru", "Target cache type")
	f.IntVar(&runCapacity, "capacity", 1000, "Target cache capacity")
	f.IntVar(&runKeys, "keys", 100, "Key pool size")
	f.IntVar(&runOps, "ops", 20000, "Total number of operations")
	f.IntVar(&runConcurrency, "concurrency", 200, "Number of concurrent workers")
	f.IntVar(&runGetWeight, "get-weight", 60, "Relative weight of GET operations")
	f.IntVar(&runPutWeight, "put-weight", 30, "Relative weight of PUT operations")
	f.IntVar(&runDeleteWeight, "delete-weight", 10, "Relative weight of DELETE operations")
	f.BoolVar(&runStrict, "strict", false, "Count non-2xx responses as failures")
	f.DurationVar(&runTimeout, "timeout", 30*time.Second, "Per-request timeout")
	f.BoolVar(&runHTTP2, "http2", false, "Use HTTP/2 cleartext transport")
	f.BoolVar(&runSave, "save", false, "Save the run summary to the history database")
	f.StringVar(&runHistoryDB, "history-db", "cachebench-history.db", "Path to the history database")
	f.StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	f.BoolVar(&runOtel, "otel", false, "Enable OpenTelemetry tracing")
	f.StringVar(&runOtelEndpoint, "otel-endpoint", "", "OTLP/HTTP endpoint (stdout exporter when empty)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := buildScenario(cmd)
	if err != nil {
		return err
	}

	shutdownTracer, err := observability.InitTracer(runOtel, runOtelEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	m := metrics.New()
	if runMetricsAddr != "" {
		metricsSrv := &http.Server{Addr: runMetricsAddr, Handler: m.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server failed", "err", err)
			}
		}()
		defer metricsSrv.Shutdown(context.Background())
		slog.Info("metrics server listening", "addr", runMetricsAddr)
	}

	opts := []client.Option{client.WithTimeout(runTimeout)}
	if runHTTP2 {
		opts = append(opts, client.WithHTTP2())
	}
	c := client.New(s.Server, opts...)

	fmt.Printf("cachebench run\n")
	fmt.Printf("  scenario:    %s\n", s.Name)
	fmt.Printf("  server:      %s\n", s.Server)
	fmt.Printf("  cache:       %s (%s, capacity %d)\n", s.Cache.Name, s.Cache.Type, s.Cache.Capacity)
	fmt.Printf("  keys:        %d\n", s.Keys)
	fmt.Printf("  operations:  %d\n", s.Operations)
	fmt.Printf("  concurrency: %d\n", s.Workers)
	fmt.Printf("  mix:         GET %d / PUT %d / DELETE %d\n\n", s.Weights.Get, s.Weights.Put, s.Weights.Delete)

	ctx := cmd.Context()
	keys := workload.NewKeyPool(s.Keys)

	if err := bench.Setup(ctx, c, s, keys, os.Stdout); err != nil {
		return err
	}

	fmt.Println("Starting stress workload simulation...")
	outcome, err := bench.Execute(ctx, c, s, keys, m)
	if err != nil {
		return err
	}

	summary, err := bench.Report(os.Stdout, s, outcome)
	if err != nil {
		return err
	}

	if err := bench.FetchStats(ctx, c, s.Cache.Name, os.Stdout); err != nil {
		return err
	}

	if runSave {
		db, err := history.Open(runHistoryDB)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.Save(s.Name, s.Server, s.Cache.Name, s.Operations, s.Workers, summary)
		if err != nil {
			return err
		}
		slog.Info("run saved", "id", id, "db", runHistoryDB)
	}
	return nil
}

// buildScenario resolves the run configuration: scenario file or preset as
// the base, explicitly set flags layered on top.
func buildScenario(cmd *cobra.Command) (scenario.Scenario, error) {
	var (
		s   scenario.Scenario
		err error
	)
	if runScenarioFile != "" {
		s, err = scenario.Load(runScenarioFile)
	} else {
		s, err = scenario.Preset(runPreset)
	}
	if err != nil {
		return scenario.Scenario{}, err
	}

	f := cmd.Flags()
	if f.Changed("server") {
		s.Server = runServer
	}
	if f.Changed("cache") {
		s.Cache.Name = runCacheName
	}
	if f.Changed("cache-type") {
		s.Cache.Type = runCacheType
	}
	if f.Changed("capacity") {
		s.Cache.Capacity = runCapacity
	}
	if f.Changed("keys") {
		s.Keys = runKeys
	}
	if f.Changed("ops") {
		s.Operations = runOps
	}
	if f.Changed("concurrency") {
		s.Workers = runConcurrency
	}
	if f.Changed("get-weight") {
		s.Weights.Get = runGetWeight
	}
	if f.Changed("put-weight") {
		s.Weights.Put = runPutWeight
	}
	if f.Changed("delete-weight") {
		s.Weights.Delete = runDeleteWeight
	}
	if f.Changed("strict") {
		s.StrictStatus = runStrict
	}

	if err := s.Validate(); err != nil {
		return scenario.Scenario{}, err
	}
	return s, nil
}
