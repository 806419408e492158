package settings

import (
	"context"
)

// KeyEndpointURL stores the ingestion endpoint chosen at runtime. It takes
// precedence over the configured one.
const KeyEndpointURL = "endpoint_url"

// Repository is a small key/value store for device-local settings.
// Get returns (nil, nil) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
