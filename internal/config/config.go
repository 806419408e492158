package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/inspectsync/internal/codec"
)

const (
	TransportHTTP = "http"
	TransportS3   = "s3"
)

var (
	ErrUnknownTransport = errors.New("unknown transport")
	ErrInvalidQuality   = errors.New("quality must be in (0, 1]")
	ErrInvalidMaxEdge   = errors.New("max edge must be positive")
	ErrMissingBucket    = errors.New("s3 transport requires a bucket")
)

// S3 configures the s3 transport.
type S3 struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
	PathStyle    bool
}

// Config holds runtime settings for the CLI.
type Config struct {
	DatabasePath string

	// EndpointURL is the default ingestion endpoint for the http transport.
	EndpointURL string
	Editor      string
	Transport   string

	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	MaxEdge int
	Quality float64

	// DropDuplicateFrames drops repeated identical frames within a capture.
	DropDuplicateFrames bool

	LogLevel  string
	LogFormat string

	// AuthSecret enables signed bearer tokens on uploads when non-empty.
	AuthSecret    string
	TokenValidity time.Duration

	S3 S3
}

// LoadDefaults resets c to the built-in defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = defaultDatabasePath()
	c.EndpointURL = "http://127.0.0.1:8080/api/repairs"
	c.Transport = TransportHTTP
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
	c.MaxEdge = codec.DefaultMaxEdge
	c.Quality = codec.DefaultQuality
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.TokenValidity = 15 * time.Minute
	c.S3 = S3{Region: "us-east-1", Prefix: "inspections", PathStyle: true}
}

// Load builds a Config from defaults, the JSON file at path (skipped when
// empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings NewApp depends on.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
	case TransportS3:
		if c.S3.Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}
	if c.Quality <= 0 || c.Quality > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidQuality, c.Quality)
	}
	if c.MaxEdge <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxEdge, c.MaxEdge)
	}
	return nil
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "inspectsync.db"
	}
	return filepath.Join(dir, "inspectsync", "inspectsync.db")
}
