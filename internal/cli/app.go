package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/inspectsync/internal/auth"
	"github.com/dmitrijs2005/inspectsync/internal/capture"
	"github.com/dmitrijs2005/inspectsync/internal/codec"
	"github.com/dmitrijs2005/inspectsync/internal/config"
	"github.com/dmitrijs2005/inspectsync/internal/engine"
	"github.com/dmitrijs2005/inspectsync/internal/logging"
	"github.com/dmitrijs2005/inspectsync/internal/netwatch"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/settings"
	"github.com/dmitrijs2005/inspectsync/internal/storage"
	"github.com/dmitrijs2005/inspectsync/internal/transport"
)

// App wires the local store, the transport and the engine for one CLI run.
type App struct {
	config  *config.Config
	log     logging.Logger
	repos   *storage.Repositories
	engine  *engine.Engine
	capture *capture.Service
	prober  netwatch.Prober
}

// NewApp opens the database named by cfg and builds the transport, engine
// and capture service on top of it. Logs go to logOut.
func NewApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)

	repos, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, log: log, repos: repos}

	httpClient := transport.NewHTTPClient(a.endpoint, cfg.RequestTimeout, log.With("component", "http"),
		transport.WithSigner(auth.Signer{Secret: []byte(cfg.AuthSecret), Validity: cfg.TokenValidity}))

	var sender transport.Sender = httpClient
	a.prober = httpClient

	if cfg.Transport == config.TransportS3 {
		s3c, err := transport.NewS3Client(ctx, transport.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			BaseEndpoint: cfg.S3.BaseEndpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			Prefix:       cfg.S3.Prefix,
			UsePathStyle: cfg.S3.PathStyle,
		}, log.With("component", "s3"))
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		sender = s3c
		a.prober = transport.NewHTTPClient(transport.StaticEndpoint(s3ProbeURL(cfg.S3)), cfg.RequestTimeout, log)
	}

	a.engine = engine.New(repos.Records, repos.Leases, sender, log.With("component", "engine"))
	a.capture = capture.NewService(codec.New(cfg.MaxEdge, cfg.Quality), repos.Records, a.engine,
		log.With("component", "capture"), capture.WithDuplicateFrameFilter(cfg.DropDuplicateFrames))
	return a, nil
}

func (a *App) Close() error {
	return a.repos.Close()
}

// endpoint prefers the URL stored on the device over the configured one.
func (a *App) endpoint(ctx context.Context) (string, error) {
	override, err := settings.EndpointURL(ctx, a.repos.Settings)
	if err != nil {
		return "", err
	}
	if override != "" {
		return override, nil
	}
	return a.config.EndpointURL, nil
}

func (a *App) watcher() *netwatch.Watcher {
	return netwatch.New(a.prober, a.config.OnlineCheckInterval, a.engine.OnConnectivityChange,
		a.log.With("component", "netwatch"))
}

func s3ProbeURL(s config.S3) string {
	if s.BaseEndpoint != "" {
		return s.BaseEndpoint
	}
	region := strings.TrimSpace(s.Region)
	if region == "" {
		region = "us-east-1"
	}
	return "https://s3." + region + ".amazonaws.com"
}
