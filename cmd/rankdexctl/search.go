package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	rankdex "github.com/kailas-cloud/rankdex/pkg/sdk"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a search and print the first batch",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().Int("batch-size", 0, "Results per batch (server default when 0)")
	cmd.Flags().StringArray("match", nil, "Hard match filter as key=value (repeatable)")
	cmd.Flags().StringArray("range", nil, "Hard range filter as key=min:max, either bound optional (repeatable)")
	cmd.Flags().StringArray("prefer", nil, "Soft category hint (repeatable)")
	cmd.Flags().Bool("all", false, "Follow continuation tokens until the result set is exhausted")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	matches, _ := cmd.Flags().GetStringArray("match")
	ranges, _ := cmd.Flags().GetStringArray("range")
	prefers, _ := cmd.Flags().GetStringArray("prefer")
	all, _ := cmd.Flags().GetBool("all")

	filters, err := buildFilters(matches, ranges, prefers)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	batch, err := client.Search(ctx, rankdex.SearchRequest{
		Query:     args[0],
		BatchSize: batchSize,
		Filters:   filters,
	})
	if err != nil {
		return err
	}
	if err := printBatch(cmd, batch); err != nil {
		return err
	}

	for all && batch.HasMore {
		batch, err = client.Continue(ctx, batch.NextToken, batchSize)
		if err != nil {
			return err
		}
		if err := printBatch(cmd, batch); err != nil {
			return err
		}
	}
	return nil
}

func newContinueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "continue [token]",
		Short: "Fetch the next batch for a continuation token",
		Args:  cobra.ExactArgs(1),
		RunE:  runContinue,
	}
	cmd.Flags().Int("batch-size", 0, "Results per batch (server default when 0)")
	return cmd
}

func runContinue(cmd *cobra.Command, args []string) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	batch, err := client.Continue(cmd.Context(), args[0], batchSize)
	if err != nil {
		return err
	}
	return printBatch(cmd, batch)
}

func printBatch(cmd *cobra.Command, batch *rankdex.Batch) error {
	if jsonOutput(cmd) {
		return printJSON(batch)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSCORE\tTIER")
	for _, r := range batch.Items {
		tier := r.Tier
		if tier == "" {
			tier = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n", r.ID, r.Name, r.Category, r.Price, r.Score, tier)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("mode=%s batch=%d", batch.Mode, batch.BatchNumber)
	if batch.HasMore {
		fmt.Printf(" next=%s", batch.NextToken)
	}
	fmt.Println()
	return nil
}

func buildFilters(matches, ranges, prefers []string) (*rankdex.Filters, error) {
	if len(matches) == 0 && len(ranges) == 0 && len(prefers) == 0 {
		return nil, nil
	}

	f := &rankdex.Filters{Soft: prefers}
	for _, m := range matches {
		key, val, ok := strings.Cut(m, "=")
		if !ok || key == "" || val == "" {
			return nil, fmt.Errorf("invalid match filter %q: want key=value", m)
		}
		f.Must = append(f.Must, rankdex.FilterCondition{Key: key, Match: val})
	}
	for _, r := range ranges {
		cond, err := parseRangeFilter(r)
		if err != nil {
			return nil, err
		}
		f.Must = append(f.Must, cond)
	}
	return f, nil
}

func parseRangeFilter(s string) (rankdex.FilterCondition, error) {
	key, bounds, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return rankdex.FilterCondition{}, fmt.Errorf("invalid range filter %q: want key=min:max", s)
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok || (lo == "" && hi == "") {
		return rankdex.FilterCondition{}, fmt.Errorf("invalid range filter %q: want key=min:max with at least one bound", s)
	}

	rng := &rankdex.RangeFilter{}
	if lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return rankdex.FilterCondition{}, fmt.Errorf("invalid range filter %q: %w", s, err)
		}
		rng.GTE = &v
	}
	if hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return rankdex.FilterCondition{}, fmt.Errorf("invalid range filter %q: %w", s, err)
		}
		rng.LTE = &v
	}
	return rankdex.FilterCondition{Key: key, Range: rng}, nil
}
