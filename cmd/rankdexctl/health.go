package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health (exit code 1 unless fully healthy)",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client, err := apiClient(cmd)
	if err != nil {
		return err
	}

	status, err := client.Health(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		if err := printJSON(status); err != nil {
			return err
		}
	} else {
		fmt.Printf("status: %s\n", status.Status)
		names := make([]string, 0, len(status.Checks))
		for name := range status.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, status.Checks[name])
		}
	}

	if status.Status != "ok" {
		return fmt.Errorf("service reports status %q", status.Status)
	}
	return nil
}
