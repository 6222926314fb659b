package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rentmate/internal/modules/admin"
	"rentmate/internal/reminder"
	"rentmate/internal/repository"
	"rentmate/internal/verification"
)

func newRemindCmd(opts *rootOptions) *cobra.Command {
	var lead time.Duration

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for approved bookings starting soon",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()

			s := reminder.New(reminder.Deps{
				Bookings: repository.NewBookingRepository(db),
				Users:    repository.NewUserRepository(db),
				Mitras:   repository.NewMitraRepository(db),
				Sender:   verification.NewClient(opts.backendURL, 10*time.Second),
			}, lead)
			res, err := s.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminders: due=%d sent=%d failed=%d\n", res.Due, res.Sent, res.Failed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&lead, "lead", 2*time.Hour, "remind bookings starting within this window")
	return cmd
}

func newSyncMitrasCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-mitras",
		Short: "Import pending talent applications from the verification backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()

			svc := admin.NewService(admin.Deps{
				Mitras:  repository.NewMitraRepository(db),
				Backend: verification.NewClient(opts.backendURL, 10*time.Second),
			})
			res, err := svc.SyncPendingMitras(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d applications, imported %d\n", res.Fetched, res.Imported)
			return nil
		},
	}
}
