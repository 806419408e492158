package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/inspectsync/internal/capture"
)

func CaptureCmd(s *session) *cobra.Command {
	var teamID, teamName string

	cmd := &cobra.Command{
		Use:   "capture <container-number> <image>...",
		Short: "Create a record from image files and try to upload it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := make([][]byte, 0, len(args)-1)
			for _, path := range args[1:] {
				b, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				images = append(images, b)
			}

			rec, err := s.app.capture.Capture(cmd.Context(), capture.Input{
				ContainerNumber: args[0],
				TeamID:          teamID,
				TeamName:        teamName,
				Editor:          s.app.config.Editor,
				Images:          images,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Captured %s for %s: %d image(s), %s\n",
				rec.ID, rec.ContainerNumber, len(rec.Images), statusLabel(rec.Status))
			if rec.NeedsRetry() {
				fmt.Fprintln(out, "Upload is queued and will be retried when the endpoint is reachable.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&teamID, "team-id", "", "team identifier")
	cmd.Flags().StringVar(&teamName, "team", "", "team name")
	return cmd
}
