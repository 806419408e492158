// Package leases provides named, expiring claims stored next to the records,
// so every process that opens the same database sees the same holder.
//
// A lease is held by a token. Acquiring with the current holder's token
// extends the lease; acquiring with any other token succeeds only once the
// lease has expired. An expiry bounds how long a crashed holder can block
// others.
package leases

import (
	"context"
	"time"
)

// Repository stores leases keyed by name.
type Repository interface {
	// Acquire claims name for token until expiresAt. It reports false when
	// another token holds an unexpired lease. now is the instant expiry is
	// judged against.
	Acquire(ctx context.Context, name, token string, now, expiresAt time.Time) (bool, error)

	// Release drops the lease if token still holds it.
	Release(ctx context.Context, name, token string) error
}
