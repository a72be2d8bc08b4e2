// Package main provides the entry point for the veracityctl CLI, a thin
// client for the registry HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version      = "0.1.0-dev"
	globalServer string
	globalToken  string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "veracityctl",
		Short:   "Client for the veracity content authenticity registry",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalServer, "server", "s", envDefault("VERACITY_SERVER", "http://localhost:8080"), "Registry server base URL")
	rootCmd.PersistentFlags().StringVarP(&globalToken, "token", "t", os.Getenv("VERACITY_TOKEN"), "Bearer identity token for mutating calls")

	rootCmd.AddCommand(
		newTokenCmd(),
		newRegisterCmd(),
		newPublishCmd(),
		newContentCmd(),
		newSourceCmd(),
		newModifyCmd(),
		newHistoryCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
