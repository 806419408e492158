package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/inspectsync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointers tell an
// absent key apart from a zero value.
type JsonConfig struct {
	DatabasePath        string          `json:"database_path"`
	EndpointURL         string          `json:"endpoint_url"`
	Editor              string          `json:"editor"`
	Transport           string          `json:"transport"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	MaxEdge             *int            `json:"max_edge"`
	Quality             *float64        `json:"quality"`
	DropDuplicateFrames *bool           `json:"drop_duplicate_frames"`
	LogLevel            string          `json:"log_level"`
	LogFormat           string          `json:"log_format"`
	AuthSecret          string          `json:"auth_secret"`
	TokenValidity       *timex.Duration `json:"token_validity"`
	S3                  *JsonS3         `json:"s3"`
}

type JsonS3 struct {
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	BaseEndpoint string `json:"base_endpoint"`
	AccessKey    string `json:"access_key"`
	SecretKey    string `json:"secret_key"`
	Prefix       string `json:"prefix"`
	PathStyle    *bool  `json:"path_style"`
}

func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.EndpointURL, jc.EndpointURL)
	setString(&cfg.Editor, jc.Editor)
	setString(&cfg.Transport, jc.Transport)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.AuthSecret, jc.AuthSecret)

	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.TokenValidity != nil {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}
	if jc.MaxEdge != nil {
		cfg.MaxEdge = *jc.MaxEdge
	}
	if jc.Quality != nil {
		cfg.Quality = *jc.Quality
	}
	if jc.DropDuplicateFrames != nil {
		cfg.DropDuplicateFrames = *jc.DropDuplicateFrames
	}

	if s := jc.S3; s != nil {
		setString(&cfg.S3.Bucket, s.Bucket)
		setString(&cfg.S3.Region, s.Region)
		setString(&cfg.S3.BaseEndpoint, s.BaseEndpoint)
		setString(&cfg.S3.AccessKey, s.AccessKey)
		setString(&cfg.S3.SecretKey, s.SecretKey)
		setString(&cfg.S3.Prefix, s.Prefix)
		if s.PathStyle != nil {
			cfg.S3.PathStyle = *s.PathStyle
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
