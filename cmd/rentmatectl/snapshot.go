package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rentmate/internal/snapshot"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write talents, bookings, chats and settings to a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := snapshot.Export(cmd.Context(), db, time.Now())
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := snapshot.Write(f, snap); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			c := snap.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d talents, %d bookings, %d chats (%d messages) to %s\n",
				c.Talents, c.Bookings, c.ChatSessions, c.ChatMessages, args[0])
			return nil
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON snapshot, overwriting records with the same ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			snap, err := snapshot.Read(f)
			if err != nil {
				return err
			}

			db, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := snapshot.Import(cmd.Context(), db, snap); err != nil {
				return err
			}

			c := snap.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d talents, %d bookings, %d chats (%d messages)\n",
				c.Talents, c.Bookings, c.ChatSessions, c.ChatMessages)
			return nil
		},
	}
}
