package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/inspectsync/internal/engine"
)

func WatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Monitor connectivity and sweep the queue whenever the endpoint comes back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, s.app, cmd.OutOrStdout())
		},
	}
}

// runWatch blocks until ctx is cancelled.
func runWatch(ctx context.Context, app *App, out io.Writer) error {
	events, unsubscribe := app.engine.Subscribe()
	defer unsubscribe()

	fmt.Fprintf(out, "Watching %s every %s (Ctrl+C to stop)\n", app.config.Transport, app.config.OnlineCheckInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.watcher().Run(ctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				printEvent(out, ev)
			}
		}
	})
	return g.Wait()
}

func printEvent(out io.Writer, ev engine.Event) {
	switch ev.Kind {
	case engine.EventUpdated:
		r := ev.Record
		fmt.Fprintf(out, "%s %s %d/%d %s\n", r.ID, r.ContainerNumber, r.UploadedCount, len(r.Images), statusLabel(r.Status))
	case engine.EventDeleted:
		fmt.Fprintf(out, "%s deleted\n", ev.ID)
	}
}
