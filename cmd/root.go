package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinoosan/budget/internal/ledger"
)

var (
	flagPeriod string
	flagOut    string
)

var rootCmd = &cobra.Command{
	Use:          "budget",
	Short:        "Monthly budget service",
	Long:         "Track incomes and expenses against per-category budgets with monthly carry-forward.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPeriod, "period", "p", "", "Period as YYYY-MM (default: current period)")
}

// periodOrCurrent resolves --period against the book's clock.
func periodOrCurrent(current ledger.Period) (ledger.Period, error) {
	if flagPeriod == "" {
		return current, nil
	}
	p, err := ledger.ParsePeriod(flagPeriod)
	if err != nil {
		return ledger.Period{}, fmt.Errorf("--period: %w", err)
	}
	return p, nil
}

func stderrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
