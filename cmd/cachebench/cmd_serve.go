package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cachebench/internal/cacheserver"
)

var serveBindAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the built-in in-memory cache service",
	Long: `Run the built-in in-memory cache service.

This is a local target for the harness, implementing the cache HTTP
contract: create/delete caches, get/put/delete keys, and per-cache stats.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveBindAddr, "bind", "127.0.0.1:8080", "Bind address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := cacheserver.New(serveBindAddr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
