package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vitalink-io/vitalink/internal/interfaces/cli/migrate"
	"github.com/vitalink-io/vitalink/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vitalink",
		Short: "Vitalink - wearable data integration service",
		Long:  `Vitalink connects user accounts to wearable platforms over OAuth, syncs daily health metrics, and serves derived recovery and training-load scores.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
