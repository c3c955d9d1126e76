package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tinoosan/budget/internal/export"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print period totals, goal progress and category status",
	RunE:  runSummary,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the period report as an Excel workbook",
	RunE:  runExport,
}

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Run the period check and print carry events",
	RunE:  runRollover,
}

func init() {
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file (default: budget-<period>.xlsx)")
	rootCmd.AddCommand(summaryCmd, exportCmd, rolloverCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()
	p, err := periodOrCurrent(a.book.CurrentPeriod())
	if err != nil {
		return err
	}
	sum, err := a.book.ComputeSummary(p)
	if err != nil {
		return err
	}
	statuses, err := a.book.ComputeCategoryStatuses(p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	curr := a.book.Currency().Code()
	fmt.Fprintf(out, "Period %s (%s)\n\n", p, curr)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", sum.Totals.Income.Decimal())
	fmt.Fprintf(tw, "Expense\t%s\n", sum.Totals.Expense.Decimal())
	fmt.Fprintf(tw, "Balance\t%s\n", sum.Totals.Balance.Decimal())
	if sum.Progress != nil {
		fmt.Fprintf(tw, "Savings goal\t%s (%s%%, achieved: %t)\n",
			sum.Progress.Target.Decimal(), sum.Progress.PercentAchieved.Round(2).Trim(0), sum.Progress.Achieved)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(statuses) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tRULE\tALLOCATED\tSPENT\tREMAINING\tCARRY\t")
	for _, st := range statuses {
		flag := ""
		if st.OverBudget {
			flag = "over budget"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
			st.Category.Name, st.Category.AllocationType, st.Category.AllocationValue,
			st.Allocated.Decimal(), st.Spent.Decimal(), st.Remaining.Decimal(),
			st.Category.CarryForward.Decimal(), flag)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()
	p, err := periodOrCurrent(a.book.CurrentPeriod())
	if err != nil {
		return err
	}
	rep, err := export.Collect(a.book, p)
	if err != nil {
		return err
	}
	data, err := export.PeriodXLSX(rep)
	if err != nil {
		return err
	}
	path := flagOut
	if path == "" {
		path = fmt.Sprintf("budget-%s.xlsx", p)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	stderrf("wrote %s\n", path)
	return nil
}

func runRollover(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()
	events, err := a.book.EnsureRollover(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "last processed period: %s\n", a.book.LastRollover())
	for _, ev := range events {
		fmt.Fprintf(out, "%s\t%s\t%s -> %s\tamount %s\tcarry %s\n",
			ev.Kind, ev.CategoryName, ev.From, ev.To, ev.Amount.Decimal(), ev.CarryAfter.Decimal())
	}
	return nil
}
