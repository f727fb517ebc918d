package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cachebench/internal/bench"
	"github.com/user/cachebench/pkg/client"
)

var (
	statsServer string
	statsCache  string
)

var statsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Fetch current statistics for a cache",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(statsServer, client.WithTimeout(10*time.Second))
		return bench.FetchStats(cmd.Context(), c, statsCache, os.Stdout)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "http://127.0.0.1:8080", "Cache service base URL")
	statsCmd.Flags().StringVar(&statsCache, "cache", "test_cache", "Cache name")
	rootCmd.AddCommand(statsCmd)
}
