package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/inspectsync/internal/repositories/settings"
)

func EndpointCmd(s *session) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "endpoint [url]",
		Short: "Show or store the ingestion endpoint used on this device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			repo := s.app.repos.Settings

			switch {
			case unset:
				if err := settings.SetEndpointURL(ctx, repo, ""); err != nil {
					return err
				}
				fmt.Fprintf(out, "Endpoint override removed, using %s\n", s.app.config.EndpointURL)
				return nil
			case len(args) == 1:
				u, err := url.ParseRequestURI(args[0])
				if err != nil || u.Host == "" {
					return fmt.Errorf("invalid endpoint url %q", args[0])
				}
				if err := settings.SetEndpointURL(ctx, repo, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Endpoint set to %s\n", args[0])
				return nil
			}

			current, err := s.app.endpoint(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, current)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "clear", false, "remove the stored endpoint")
	return cmd
}
