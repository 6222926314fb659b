package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

type rootOptions struct {
	databaseURL  string
	settingsFile string
	backendURL   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "rentmatectl",
		Short:         "RentMate operations tool",
		Long:          "rentmatectl migrates, seeds, reports on and moves data of a RentMate database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.databaseURL, "database", envOr("DATABASE_URL", "rentmate.db"), "database DSN (postgres:// URL or SQLite file)")
	pf.StringVar(&opts.settingsFile, "settings", envOr("SETTINGS_FILE", "settings.yaml"), "platform defaults YAML file")
	pf.StringVar(&opts.backendURL, "backend", envOr("BACKEND_URL", "http://localhost:3001"), "verification backend base URL")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newRevenueCmd(opts))
	cmd.AddCommand(newRemindCmd(opts))
	cmd.AddCommand(newSyncMitrasCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rentmatectl %s (commit: %s)\n", Version, Commit)
		},
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}
	os.Exit(execute(newRootCmd()))
}
