package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/inspectsync/internal/models"
)

func statusLabel(st models.Status) string {
	switch st {
	case models.StatusSynced:
		return color.New(color.FgGreen).Sprint(string(st))
	case models.StatusError:
		return color.New(color.FgRed).Sprint(string(st))
	default:
		return color.New(color.FgYellow).Sprint(string(st))
	}
}

func ListCmd(s *session) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			recs, err := s.app.engine.ListRecords(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			pending := models.PendingCount(recs)
			if pending > 0 {
				fmt.Fprintf(out, "%s\n\n", color.New(color.FgYellow).Sprintf("%d record(s) waiting for upload", pending))
			}

			if len(recs) == 0 {
				fmt.Fprintln(out, "No records.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCONTAINER\tTEAM\tUPLOADED\tSTATUS\tCAPTURED")
			for _, r := range recs {
				if pendingOnly && !r.NeedsRetry() {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					r.ID, r.ContainerNumber, r.TeamName, r.UploadedCount, len(r.Images),
					statusLabel(r.Status), r.Timestamp.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "show only records waiting for upload")
	return cmd
}
