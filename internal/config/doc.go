// Package config loads runtime configuration for the inspectsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, selected with -c / --config.
//  3. Environment variables prefixed INSPECTSYNC_, after loading a .env file
//     from the working directory if one exists.
//  4. Command-line flags, applied by the cli package on top of Load's result.
//
// Later sources override earlier ones. Only keys present in a source
// override; an empty JSON field or an unset variable leaves the value as is.
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "10s" or integer
// nanoseconds:
//
//	{
//	  "database_path": "/var/lib/inspectsync/device.db",
//	  "endpoint_url": "https://ingest.example.com/api/repairs",
//	  "editor": "inspector-7",
//	  "transport": "http",
//	  "request_timeout": "30s",
//	  "online_check_interval": "10s",
//	  "max_edge": 1024,
//	  "quality": 0.7,
//	  "log_level": "info",
//	  "log_format": "text",
//	  "auth_secret": "",
//	  "token_validity": "15m",
//	  "s3": {"bucket": "photos", "region": "us-east-1", "base_endpoint": "http://localhost:9000",
//	         "access_key": "minio", "secret_key": "minio123", "prefix": "inspections", "path_style": true}
//	}
//
// The endpoint URL stored on the device (inspectsync endpoint <url>) takes
// precedence over EndpointURL at runtime.
package config
