// Package capture turns raw photos taken for a container into a persisted
// record and hands it to the engine for its first delivery attempt.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/inspectsync/internal/codec"
	"github.com/dmitrijs2005/inspectsync/internal/logging"
	"github.com/dmitrijs2005/inspectsync/internal/models"
	"github.com/dmitrijs2005/inspectsync/internal/repositories/records"
)

var ErrNoImages = errors.New("capture has no images")

// Submitter is the part of the engine capture needs. Submit stores the new
// record and makes its first delivery attempt.
type Submitter interface {
	Submit(ctx context.Context, rec models.RepairRecord) error
}

// Input is one capture session as handed over by the caller.
type Input struct {
	ContainerNumber string
	TeamID          string
	TeamName        string
	Editor          string
	// Images are raw encoded photos (JPEG, PNG, ...) or data URIs.
	Images [][]byte
}

// Service runs the capture flow.
type Service struct {
	codec  *codec.Codec
	store  records.Repository
	engine Submitter
	log    logging.Logger
	now    func() time.Time

	dropDuplicates bool
}

// Option customizes a Service.
type Option func(*Service)

// WithDuplicateFrameFilter drops frames whose fingerprint repeats an earlier
// frame of the same capture. Off by default: every frame is kept.
func WithDuplicateFrameFilter(on bool) Option {
	return func(s *Service) { s.dropDuplicates = on }
}

// NewService builds a capture service. store is only read from; records are
// created through engine.
func NewService(c *codec.Codec, store records.Repository, engine Submitter, log logging.Logger, opts ...Option) *Service {
	if c == nil {
		c = codec.New(codec.DefaultMaxEdge, codec.DefaultQuality)
	}
	s := &Service{codec: c, store: store, engine: engine, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture validates the input, normalizes and fingerprints each photo once
// and hands the new pending record to the engine, which stores it before the
// first attempt. The returned record reflects the state after that attempt.
func (s *Service) Capture(ctx context.Context, in Input) (models.RepairRecord, error) {
	container := strings.ToUpper(strings.TrimSpace(in.ContainerNumber))
	if !models.ValidContainerNumber(container) {
		return models.RepairRecord{}, fmt.Errorf("%q: %w", in.ContainerNumber, models.ErrInvalidContainerNumber)
	}
	if len(in.Images) == 0 {
		return models.RepairRecord{}, ErrNoImages
	}

	images, hashes := s.encode(ctx, in.Images)

	rec, err := models.NewRecord(models.Draft{
		ContainerNumber: container,
		TeamID:          in.TeamID,
		TeamName:        in.TeamName,
		Editor:          in.Editor,
		Images:          images,
		ImageHashes:     hashes,
	}, s.now())
	if err != nil {
		return models.RepairRecord{}, err
	}

	s.log.Info(ctx, "record captured", "record_id", rec.ID, "container", container, "images", len(images))

	if err := s.engine.Submit(ctx, rec); err != nil {
		return models.RepairRecord{}, err
	}

	stored, err := s.store.GetByID(ctx, rec.ID)
	if err != nil {
		return rec, fmt.Errorf("failed to reload captured record: %w", err)
	}
	return *stored, nil
}

func (s *Service) encode(ctx context.Context, raw [][]byte) (images, hashes []string) {
	seen := make(map[string]struct{}, len(raw))
	for i, b := range raw {
		img := s.codec.Compress(b)
		h := codec.Fingerprint(img)
		if h == "" {
			s.log.Debug(ctx, "image could not be fingerprinted", "index", i)
		} else if s.dropDuplicates {
			if _, dup := seen[h]; dup {
				s.log.Debug(ctx, "duplicate frame dropped", "index", i, "hash", h)
				continue
			}
			seen[h] = struct{}{}
		}
		images = append(images, img)
		hashes = append(hashes, h)
	}
	return images, hashes
}
