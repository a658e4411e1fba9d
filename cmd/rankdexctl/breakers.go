package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newBreakersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakers",
		Short: "Inspect and reset AI capability circuit breakers",
	}
	cmd.AddCommand(
		newBreakersStatusCmd(),
		newBreakersResetCmd(),
	)
	return cmd
}

func newBreakersStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of every capability breaker",
		Args:  cobra.NoArgs,
		RunE:  runBreakersStatus,
	}
}

func runBreakersStatus(cmd *cobra.Command, _ []string) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}

	breakers, err := client.Breakers(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return printJSON(breakers)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CAPABILITY\tSTATE\tFAILURES\tRETRY_IN")
	for _, b := range breakers {
		state := "closed"
		retryIn := "-"
		if b.Open {
			state = "open"
			retryIn = (time.Duration(b.RetryInMs) * time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Capability, state, b.FailureCount, retryIn)
	}
	return tw.Flush()
}

func newBreakersResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [capability]",
		Short: "Force a capability breaker back to closed",
		Args:  cobra.ExactArgs(1),
		RunE:  runBreakersReset,
	}
}

func runBreakersReset(cmd *cobra.Command, args []string) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}
	if err := client.ResetBreaker(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Breaker %q reset.\n", args[0])
	return nil
}
