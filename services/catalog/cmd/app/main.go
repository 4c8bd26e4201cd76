package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "catalog",
		Short:         "LearnHub course catalog: courses, modules, lessons, users and enrollments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed [file]",
		Short: "Load users and courses from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeed,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing app.env")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
