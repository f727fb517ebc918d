package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cachebench/internal/history"
)

var (
	historyDBPath string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "List saved run summaries",
	SilenceUsage: true,
	RunE:         runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBPath, "history-db", "cachebench-history.db", "Path to the history database")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := history.Open(historyDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.List(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	fmt.Printf("%-5s %-20s %-10s %-8s %-8s %-10s %-10s %-10s\n",
		"ID", "WHEN", "SCENARIO", "OPS", "FAILED", "OPS/SEC", "AVG", "P99")
	for _, r := range runs {
		fmt.Printf("%-5d %-20s %-10s %-8d %-8d %-10.1f %-10s %-10s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Scenario,
			r.Operations,
			r.Failed,
			r.OpsPerSec,
			r.Mean.Round(time.Microsecond),
			r.P99.Round(time.Microsecond),
		)
	}
	return nil
}
