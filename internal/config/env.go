package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const EnvPrefix = "INSPECTSYNC_"

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func parseEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"DB":            &cfg.DatabasePath,
		"ENDPOINT":      &cfg.EndpointURL,
		"EDITOR":        &cfg.Editor,
		"TRANSPORT":     &cfg.Transport,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
		"AUTH_SECRET":   &cfg.AuthSecret,
		"S3_BUCKET":     &cfg.S3.Bucket,
		"S3_REGION":     &cfg.S3.Region,
		"S3_ENDPOINT":   &cfg.S3.BaseEndpoint,
		"S3_ACCESS_KEY": &cfg.S3.AccessKey,
		"S3_SECRET_KEY": &cfg.S3.SecretKey,
		"S3_PREFIX":     &cfg.S3.Prefix,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT":       &cfg.RequestTimeout,
		"ONLINE_CHECK_INTERVAL": &cfg.OnlineCheckInterval,
		"TOKEN_VALIDITY":        &cfg.TokenValidity,
	}
	for key, dst := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := lookup(EnvPrefix + "MAX_EDGE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_EDGE: %w", EnvPrefix, err)
		}
		cfg.MaxEdge = n
	}
	if v, ok := lookup(EnvPrefix + "QUALITY"); ok && v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sQUALITY: %w", EnvPrefix, err)
		}
		cfg.Quality = q
	}
	bools := map[string]*bool{
		"S3_PATH_STYLE":         &cfg.S3.PathStyle,
		"DROP_DUPLICATE_FRAMES": &cfg.DropDuplicateFrames,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}
	return nil
}
