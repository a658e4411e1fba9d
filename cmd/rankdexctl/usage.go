package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	rankdex "github.com/kailas-cloud/rankdex/pkg/sdk"
)

func newUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show embedding token usage and budget state",
		Args:  cobra.NoArgs,
		RunE:  runUsage,
	}
	cmd.Flags().String("period", "month", "Aggregation period: day, month or total")
	return cmd
}

func runUsage(cmd *cobra.Command, _ []string) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}
	period, err := cmd.Flags().GetString("period")
	if err != nil {
		return err
	}

	report, err := client.Usage(cmd.Context(), rankdex.UsagePeriod(period))
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(report)
	}

	fmt.Printf("period: %s%s\n", report.Period, periodBounds(report))
	fmt.Printf("  embedding requests: %d\n", report.Usage.EmbeddingRequests)
	fmt.Printf("  tokens:             %d\n", report.Usage.Tokens)

	b := report.Budget
	if b.Unlimited {
		fmt.Println("  budget:             unlimited")
		return nil
	}
	fmt.Printf("  budget:             %d of %d tokens remaining\n", b.TokensRemaining, b.TokensLimit)
	if b.IsExhausted {
		fmt.Println("  state:              EXHAUSTED")
	}
	if b.ResetsAt != nil {
		fmt.Printf("  resets:             %s\n", b.ResetsAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func periodBounds(r *rankdex.UsageReport) string {
	if r.PeriodStartAt == nil || r.PeriodEndAt == nil {
		return ""
	}
	const layout = "2006-01-02"
	return fmt.Sprintf(" (%s .. %s UTC)",
		r.PeriodStartAt.UTC().Format(layout), r.PeriodEndAt.UTC().Format(layout))
}
