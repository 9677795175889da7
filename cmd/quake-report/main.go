package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quake-report",
	Short: "Summarize the earthquake catalog from the command line",
	Long: `Load the earthquake catalog, apply the same filters as the dashboard and
print the ranked list and per-year totals.

Examples:
  quake-report --years 1990:2011 --tsunami --metric deaths
  quake-report --range magnitude=7.5:10 --top 5 --format json
  quake-report --metric damage --xlsx damage.xlsx
  quake-report watch --addr localhost:50051`,
	SilenceUsage: true,
	RunE:         runReport,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
