package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	rankdex "github.com/kailas-cloud/rankdex/pkg/sdk"

	"github.com/kailas-cloud/rankdex/internal/version"
)

// newRootCmd builds the rankdexctl command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rankdexctl",
		Short:         "Operations CLI for the rankdex search service",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("addr", envOr("RANKDEX_ADDR", "http://localhost:8080"),
		"Base URL of the rankdex API (env RANKDEX_ADDR)")
	root.PersistentFlags().String("api-key", os.Getenv("RANKDEX_API_KEY"),
		"Bearer token for authenticated endpoints (env RANKDEX_API_KEY)")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "Per-request timeout")
	root.PersistentFlags().Bool("json", false, "Print raw JSON instead of tables")

	root.AddCommand(
		newSearchCmd(),
		newContinueCmd(),
		newBreakersCmd(),
		newHealthCmd(),
		newUsageCmd(),
	)

	return root
}

// apiClient builds an SDK client from the persistent flags.
func apiClient(cmd *cobra.Command) (*rankdex.Client, error) {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return nil, err
	}
	apiKey, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	opts := []rankdex.Option{rankdex.WithTimeout(timeout)}
	if apiKey != "" {
		opts = append(opts, rankdex.WithAPIKey(apiKey))
	}
	return rankdex.New(addr, opts...)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
