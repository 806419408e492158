package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/inspectsync/internal/logging"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/leases"
)

// DefaultLeaseTTL bounds how long a crashed process can keep a record or the
// sweep claimed. Live holders renew well before it runs out.
const DefaultLeaseTTL = 2 * time.Minute

const sweepLease = "sweep"

func recordLease(id string) string { return "record:" + id }

// lease is a claim held in the shared store under a token unique to one
// acquisition. While held it is renewed in the background.
type lease struct {
	repo  leases.Repository
	log   logging.Logger
	name  string
	token string
	ttl   time.Duration
	now   func() time.Time

	lost atomic.Bool
	stop chan struct{}
	done chan struct{}
}

// claim takes the named lease. It returns nil, nil when someone else holds it.
func (e *Engine) claim(ctx context.Context, name string) (*lease, error) {
	l := &lease{
		repo:  e.leases,
		log:   e.log,
		name:  name,
		token: uuid.NewString(),
		ttl:   e.leaseTTL,
		now:   e.now,
	}
	ok, err := l.acquire(ctx)
	if err != nil || !ok {
		return nil, err
	}

	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.keepAlive(context.WithoutCancel(ctx))
	return l, nil
}

func (l *lease) acquire(ctx context.Context) (bool, error) {
	now := l.now()
	return l.repo.Acquire(ctx, l.name, l.token, now, now.Add(l.ttl))
}

func (l *lease) keepAlive(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ok, err := l.acquire(ctx)
			if err != nil {
				l.log.Warn(ctx, "failed to renew lease", "lease", l.name, "error", err)
				continue
			}
			if !ok {
				l.lost.Store(true)
				l.log.Warn(ctx, "lease taken over", "lease", l.name)
				return
			}
		}
	}
}

// taken reports whether another holder took the lease after it expired.
func (l *lease) taken() bool { return l.lost.Load() }

func (l *lease) release(ctx context.Context) {
	close(l.stop)
	<-l.done
	if err := l.repo.Release(context.WithoutCancel(ctx), l.name, l.token); err != nil {
		l.log.Warn(ctx, "failed to release lease", "lease", l.name, "error", err)
	}
}
