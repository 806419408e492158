// Package models defines the capture record and its sync state.
package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Status is the sync state of a record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

var (
	ErrInvalidContainerNumber = errors.New("container number must be 4 uppercase letters followed by 7 digits")
	ErrHashMismatch           = errors.New("image and hash counts differ")
	ErrUploadedCountRange     = errors.New("uploaded count out of range")
	ErrUnknownStatus          = errors.New("unknown status")
)

var containerNumberRE = regexp.MustCompile(`^[A-Z]{4}\d{7}$`)

// ValidContainerNumber reports whether s looks like an ISO 6346 container number
// (owner code + serial + check digit, without the check digit arithmetic).
func ValidContainerNumber(s string) bool {
	return containerNumberRE.MatchString(s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSynced, StatusError:
		return true
	}
	return false
}

// NeedsRetry reports whether the scheduler should pick up a record in this state.
func (s Status) NeedsRetry() bool {
	return s == StatusPending || s == StatusError
}

// RepairRecord is one capture session: a container, the team that inspected it,
// the photos taken and how many of them the remote side has confirmed.
//
// Records are treated as values. Every state change builds a new RepairRecord
// which replaces the stored one by ID.
type RepairRecord struct {
	// ID is time-ordered and assigned once at creation.
	ID string

	ContainerNumber string

	// TeamID and TeamName are a snapshot of the team chosen at capture time.
	TeamID   string
	TeamName string

	// Editor identifies the user who captured the record.
	Editor string

	// Images holds data-URI encoded JPEG payloads in capture order.
	Images []string

	// ImageHashes holds one fingerprint per image, same indexing as Images.
	ImageHashes []string

	Timestamp time.Time

	Status Status

	// UploadedCount is the resume cursor: the number of leading images the
	// remote side has durably stored.
	UploadedCount int
}

// Validate checks the structural invariants of the record.
func (r RepairRecord) Validate() error {
	if !ValidContainerNumber(r.ContainerNumber) {
		return fmt.Errorf("%q: %w", r.ContainerNumber, ErrInvalidContainerNumber)
	}
	if len(r.ImageHashes) != len(r.Images) {
		return fmt.Errorf("%d images, %d hashes: %w", len(r.Images), len(r.ImageHashes), ErrHashMismatch)
	}
	if r.UploadedCount < 0 || r.UploadedCount > len(r.Images) {
		return fmt.Errorf("%d of %d: %w", r.UploadedCount, len(r.Images), ErrUploadedCountRange)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%q: %w", r.Status, ErrUnknownStatus)
	}
	return nil
}

// NeedsRetry reports whether the record is queued for another send attempt.
func (r RepairRecord) NeedsRetry() bool {
	return r.Status.NeedsRetry()
}

// FullyUploaded reports whether every image has been confirmed.
func (r RepairRecord) FullyUploaded() bool {
	return r.UploadedCount >= len(r.Images)
}

// Suffix returns the part of the image sequence not yet confirmed remotely,
// the matching hashes and the offset it starts at.
func (r RepairRecord) Suffix() (images []string, hashes []string, start int) {
	start = r.UploadedCount
	if start < 0 {
		start = 0
	}
	if start > len(r.Images) {
		start = len(r.Images)
	}
	images = r.Images[start:]
	if start <= len(r.ImageHashes) {
		hashes = r.ImageHashes[start:]
	}
	return images, hashes, start
}

// Synced returns a copy of r marked as fully delivered.
func (r RepairRecord) Synced() RepairRecord {
	next := r.clone()
	next.Status = StatusSynced
	next.UploadedCount = len(r.Images)
	return next
}

// Failed returns a copy of r marked as failed with the cursor left in place.
func (r RepairRecord) Failed() RepairRecord {
	next := r.clone()
	next.Status = StatusError
	return next
}

func (r RepairRecord) clone() RepairRecord {
	next := r
	next.Images = append([]string(nil), r.Images...)
	next.ImageHashes = append([]string(nil), r.ImageHashes...)
	return next
}

// PendingCount returns how many records still need a send attempt.
func PendingCount(records []RepairRecord) int {
	n := 0
	for _, r := range records {
		if r.NeedsRetry() {
			n++
		}
	}
	return n
}

// SortNewestFirst orders records by creation time, newest first. Records
// created in the same instant fall back to descending ID, which is time-ordered.
func SortNewestFirst(records []RepairRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
}
