package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/inspectsync/internal/engine"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/records"
)

func RetryCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Resend the photos of a record that were not confirmed yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := s.app.engine.Retry(ctx, args[0]); err != nil {
				switch {
				case errors.Is(err, records.ErrNotFound):
					return fmt.Errorf("no record with id %s", args[0])
				case errors.Is(err, engine.ErrRecordBusy):
					return fmt.Errorf("record %s is being uploaded right now, try again later", args[0])
				}
				return err
			}
			rec, err := s.app.repos.Records.GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d uploaded, %s\n",
				rec.ID, rec.UploadedCount, len(rec.Images), statusLabel(rec.Status))
			return nil
		},
	}
}

func SweepCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Retry every pending or failed record once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, err := s.app.engine.ReconnectSweep(ctx)
			if errors.Is(err, engine.ErrSweepInProgress) {
				fmt.Fprintln(cmd.OutOrStdout(), "A sweep is already running.")
				return nil
			}
			if err != nil {
				return err
			}
			n, err := s.app.engine.PendingCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sweep finished, %d record(s) still pending.\n", n)
			return nil
		},
	}
}

func DeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a record from the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.engine.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
