// Package engine drives record delivery: the first send after capture,
// resumable retries of the unsent suffix, and the reconnect sweep.
//
// Transport failures never surface as errors. They are reflected in the
// record status. Errors returned by the engine mean the local store failed
// and the outcome of an attempt could not be recorded.
//
// Every send runs under a lease on its record, and a sweep under a lease of
// its own, kept in the same database as the records. Several processes
// sharing one database therefore never send the same record at once and
// never sweep concurrently.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/inspectsync/internal/logging"
	"github.com/dmitrijs2005/inspectsync/internal/models"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/leases"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/records"
	"github.com/dmitrijs2005/inspectsync/internal/transport"
)

var (
	// ErrSweepInProgress is returned by ReconnectSweep when a sweep is
	// already running in this or another process.
	ErrSweepInProgress = errors.New("sweep already in progress")

	// ErrRecordBusy is returned when another send for the same record is in
	// flight.
	ErrRecordBusy = errors.New("record is being sent")
)

// Engine owns every state transition of stored records after creation.
type Engine struct {
	store  records.Repository
	leases leases.Repository
	sender transport.Sender
	log    logging.Logger

	leaseTTL time.Duration
	now      func() time.Time

	// guard admits one sweep at a time within the process; TryAcquire drops
	// concurrent triggers before the shared sweep lease is consulted.
	guard    *semaphore.Weighted
	sweeping atomic.Bool

	events hub
}

// New returns an Engine persisting to store and coordinating through leases,
// which must live in the same database as store.
func New(store records.Repository, leases leases.Repository, sender transport.Sender, log logging.Logger) *Engine {
	return &Engine{
		store:    store,
		leases:   leases,
		sender:   sender,
		log:      log,
		leaseTTL: DefaultLeaseTTL,
		now:      time.Now,
		guard:    semaphore.NewWeighted(1),
	}
}

// Submit stores a freshly created record as pending and makes its first
// delivery attempt, sending the whole image sequence. The record is claimed
// before it is stored, so no sweep can pick it up while the attempt runs. A
// failed attempt leaves the record pending for the next sweep.
func (e *Engine) Submit(ctx context.Context, rec models.RepairRecord) error {
	ctx = context.WithoutCancel(ctx)

	l, err := e.claim(ctx, recordLease(rec.ID))
	if err != nil {
		return fmt.Errorf("failed to claim record %s: %w", rec.ID, err)
	}
	if l == nil {
		return fmt.Errorf("%s: %w", rec.ID, ErrRecordBusy)
	}
	defer l.release(ctx)

	if err := e.store.Save(ctx, rec); err != nil {
		return err
	}

	req := transport.NewUploadRequest(rec)
	req.Images, req.Hashes, req.StartIndex = rec.Images, rec.ImageHashes, 0

	next := rec
	if e.sender.Send(ctx, req) {
		next = rec.Synced()
		e.log.Info(ctx, "record synced", "record_id", rec.ID, "images", len(rec.Images))
	} else {
		next.Status = models.StatusPending
		e.log.Info(ctx, "initial upload failed, record queued", "record_id", rec.ID, "images", len(rec.Images))
	}

	err = e.persist(ctx, next)
	if errors.Is(err, records.ErrNotFound) {
		return nil
	}
	return err
}

// Retry resends the unsent suffix of the record with the given ID. A record
// whose suffix is empty is marked synced without a network call. Retry
// returns ErrRecordBusy while another send of the record is in flight, and
// ErrNotFound when the record is gone, including when it was deleted during
// the send.
func (e *Engine) Retry(ctx context.Context, id string) error {
	_, err := e.retryOne(ctx, id)
	return err
}

// retryOne claims the record, reloads it and runs one attempt.
func (e *Engine) retryOne(ctx context.Context, id string) (models.RepairRecord, error) {
	l, err := e.claim(ctx, recordLease(id))
	if err != nil {
		return models.RepairRecord{}, fmt.Errorf("failed to claim record %s: %w", id, err)
	}
	if l == nil {
		return models.RepairRecord{}, fmt.Errorf("%s: %w", id, ErrRecordBusy)
	}
	defer l.release(ctx)

	rec, err := e.store.GetByID(ctx, id)
	if err != nil {
		return models.RepairRecord{}, fmt.Errorf("failed to load record for retry: %w", err)
	}
	return e.attempt(ctx, *rec)
}

// attempt runs one retry of rec and returns the state it persisted.
func (e *Engine) attempt(ctx context.Context, rec models.RepairRecord) (models.RepairRecord, error) {
	ctx = context.WithoutCancel(ctx)

	if rec.FullyUploaded() {
		if rec.Status == models.StatusSynced {
			return rec, nil
		}
		e.log.Info(ctx, "nothing left to send, marking synced", "record_id", rec.ID, "status", rec.Status)
		next := rec.Synced()
		return next, e.persist(ctx, next)
	}

	req := transport.NewUploadRequest(rec)
	next := rec.Failed()
	if e.sender.Send(ctx, req) {
		next = rec.Synced()
		e.log.Info(ctx, "record synced", "record_id", rec.ID, "start_idx", req.StartIndex, "images", len(req.Images))
	} else {
		e.log.Warn(ctx, "retry failed", "record_id", rec.ID, "start_idx", req.StartIndex, "images", len(req.Images))
	}
	return next, e.persist(ctx, next)
}

// ReconnectSweep retries every pending or failed record once, one at a time
// in age order. ran is false when another sweep is running; such a trigger
// is dropped, not queued. Records being sent elsewhere, or deleted before
// their turn, are skipped.
func (e *Engine) ReconnectSweep(ctx context.Context) (ran bool, err error) {
	if !e.guard.TryAcquire(1) {
		e.log.Debug(ctx, "sweep trigger dropped")
		return false, ErrSweepInProgress
	}
	defer e.guard.Release(1)

	sweep, err := e.claim(ctx, sweepLease)
	if err != nil {
		return false, fmt.Errorf("failed to claim sweep: %w", err)
	}
	if sweep == nil {
		e.log.Debug(ctx, "sweep trigger dropped, another process is sweeping")
		return false, ErrSweepInProgress
	}
	defer sweep.release(ctx)

	e.sweeping.Store(true)
	defer e.sweeping.Store(false)

	queue, err := e.store.GetNeedingRetry(ctx)
	if err != nil {
		return true, fmt.Errorf("failed to collect records for sweep: %w", err)
	}
	if len(queue) == 0 {
		e.log.Debug(ctx, "sweep: nothing to retry")
		return true, nil
	}

	e.log.Info(ctx, "sweep started", "records", len(queue))

	var errs []error
	synced := 0
	for _, snap := range queue {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if sweep.taken() {
			e.log.Warn(ctx, "sweep lease lost, stopping")
			break
		}

		next, err := e.retryOne(ctx, snap.ID)
		switch {
		case errors.Is(err, records.ErrNotFound):
			continue
		case errors.Is(err, ErrRecordBusy):
			e.log.Debug(ctx, "sweep: record busy, skipped", "record_id", snap.ID)
			continue
		case err != nil:
			errs = append(errs, err)
			continue
		}
		if next.Status == models.StatusSynced {
			synced++
		}
	}

	e.log.Info(ctx, "sweep finished", "records", len(queue), "synced", synced)
	return true, errors.Join(errs...)
}

// OnConnectivityChange is the network-availability hook. Coming online runs
// a sweep in the caller's goroutine.
func (e *Engine) OnConnectivityChange(ctx context.Context, online bool) {
	if !online {
		e.log.Info(ctx, "connectivity lost")
		return
	}
	e.log.Info(ctx, "connectivity restored")

	_, err := e.ReconnectSweep(ctx)
	switch {
	case err == nil, errors.Is(err, ErrSweepInProgress):
	default:
		e.log.Error(ctx, "sweep failed", "error", err)
	}
}

// Sweeping reports whether a sweep of this engine is running.
func (e *Engine) Sweeping() bool {
	return e.sweeping.Load()
}

// ListRecords returns every record, newest first.
func (e *Engine) ListRecords(ctx context.Context) ([]models.RepairRecord, error) {
	all, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	models.SortNewestFirst(all)
	return all, nil
}

// PendingCount counts records still waiting for delivery.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	all, err := e.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending records: %w", err)
	}
	return models.PendingCount(all), nil
}

// Delete removes a record from history. A send of the record still in flight
// completes, but its outcome is dropped.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.log.Info(ctx, "record deleted", "record_id", id)
	e.events.publish(Event{Kind: EventDeleted, ID: id})
	return nil
}

// Subscribe registers for change notifications. The returned func
// unsubscribes and closes the channel.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.subscribe()
}

// persist records a transition of an existing record. It never recreates a
// deleted one: the store reports ErrNotFound and nothing is published.
func (e *Engine) persist(ctx context.Context, rec models.RepairRecord) error {
	if err := e.store.Update(ctx, rec); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			e.log.Info(ctx, "record deleted during send, outcome dropped", "record_id", rec.ID, "status", rec.Status)
		}
		return err
	}
	e.events.publish(Event{Kind: EventUpdated, ID: rec.ID, Record: rec})
	return nil
}
