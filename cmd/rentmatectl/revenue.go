package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rentmate/internal/modules/admin"
	"rentmate/internal/repository"
)

func newRevenueCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "revenue",
		Short: "Print revenue and commission of approved bookings",
		Long:  "Sums approved bookings in the date range (YYYY-MM-DD, inclusive) and splits them into app and mitra shares.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeFn()

			svc := admin.NewService(admin.Deps{
				Bookings: repository.NewBookingRepository(db),
				Settings: repository.NewSettingsRepository(db),
			})
			report, err := svc.RevenueReport(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "Commission: %d%%\n\n", report.CommissionPercent)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TALENT\tBOOKINGS\tTOTAL\tAPP\tMITRA")
			for _, t := range report.ByTalent {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", t.TalentName, t.Bookings, t.Total, t.AppAmount, t.MitraAmount)
			}
			tt := report.Totals
			fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\n", tt.Bookings, tt.Total, tt.AppAmount, tt.MitraAmount)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first booking date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last booking date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}
