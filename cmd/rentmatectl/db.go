package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"rentmate/internal/config"
	"rentmate/internal/database"
	"rentmate/internal/repository"
	"rentmate/internal/seed"
)

// openDB connects, migrates and makes sure the settings row exists.
func openDB(ctx context.Context, opts *rootOptions) (*gorm.DB, func(), error) {
	db, err := database.Connect(opts.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = sqlDB.Close() }

	if err := database.Migrate(db); err != nil {
		closeFn()
		return nil, nil, err
	}

	defaults, err := config.LoadPlatformDefaults(opts.settingsFile)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if _, err := repository.NewSettingsRepository(db).EnsureDefaults(ctx, defaults.Settings()); err != nil {
		closeFn()
		return nil, nil, err
	}
	return db, closeFn, nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(database.Models()))
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var reset bool
	var timezone string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo accounts, talents and bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", timezone, err)
			}
			db, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := seed.Run(cmd.Context(), db, seed.Options{Reset: reset, Location: loc})
			if errors.Is(err, seed.ErrAlreadySeeded) {
				return fmt.Errorf("%w (use --reset to start over)", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seeded %d users, %d mitras, %d bookings, %d chats\n", res.Users, res.Mitras, res.Bookings, res.Chats)
			fmt.Fprintf(out, "Admin login: %s / %s\n", seed.AdminEmail, seed.AdminPassword)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing data first")
	cmd.Flags().StringVar(&timezone, "timezone", envOr("TIMEZONE", "Asia/Jakarta"), "timezone of booking dates")
	return cmd
}
