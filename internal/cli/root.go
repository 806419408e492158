// Package cli is the command-line front end: it captures records from image
// files, shows their sync state and drives retries and sweeps.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/inspectsync/internal/config"
)

type rootOptions struct {
	configPath string
	dbPath     string
	endpoint   string
	editor     string
	logLevel   string
}

// session holds the App built for the running command.
type session struct {
	opts   rootOptions
	app    *App
	logOut io.Writer
}

func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load(s.opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabasePath = s.opts.dbPath
	}
	if flags.Changed("endpoint") {
		cfg.EndpointURL = s.opts.endpoint
	}
	if flags.Changed("editor") {
		cfg.Editor = s.opts.editor
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = s.opts.logLevel
	}

	app, err := NewApp(cmd.Context(), cfg, s.logOut)
	if err != nil {
		return err
	}
	s.app = app
	return nil
}

func (s *session) close() error {
	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "inspectsync",
		Short: "Capture container inspection photos and sync them when online",
		Long: `inspectsync stores inspection records on the device and uploads their photos
to the ingestion endpoint. Uploads that fail stay queued and are resumed from
the first unconfirmed photo on the next retry or reconnect.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd)
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&s.opts.configPath, "config", "c", "", "path to JSON config file")
	pf.StringVar(&s.opts.dbPath, "db", "", "path to the local database")
	pf.StringVar(&s.opts.endpoint, "endpoint", "", "ingestion endpoint URL")
	pf.StringVar(&s.opts.editor, "editor", "", "identity recorded on captured records")
	pf.StringVar(&s.opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		CaptureCmd(s),
		ListCmd(s),
		RetryCmd(s),
		SweepCmd(s),
		DeleteCmd(s),
		WatchCmd(s),
		EndpointCmd(s),
		ResetCmd(s),
	)
	return root
}

// Execute runs the CLI with args. Command output goes to out, logs to logOut.
func Execute(ctx context.Context, args []string, in io.Reader, out, logOut io.Writer) error {
	s := &session{logOut: logOut}
	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(logOut)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, s.close())
}
