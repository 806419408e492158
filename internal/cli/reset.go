package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/inspectsync/internal/storage"
)

func ResetCmd(s *session) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record and setting stored on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			n, err := s.app.engine.PendingCount(ctx)
			if err != nil {
				return err
			}

			if !yes {
				prompt := "Delete all records and settings?"
				if n > 0 {
					prompt = fmt.Sprintf("%d record(s) were never uploaded and will be lost. Delete all records and settings?", n)
				}
				if err := Confirm(cmd.InOrStdin(), out, prompt); err != nil {
					return err
				}
			}

			if err := storage.Reset(ctx, s.app.repos.DB); err != nil {
				return err
			}
			fmt.Fprintln(out, "Local data cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
