package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Draft holds the collaborator-supplied fields of a record about to be created.
type Draft struct {
	ContainerNumber string
	TeamID          string
	TeamName        string
	Editor          string
	Images          []string
	ImageHashes     []string
}

// NewRecord builds a pending record with a fresh time-ordered ID.
//
// The ID embeds the wall clock at generation and orders records created on
// this device. Timestamp is the capture time passed as now and may differ
// from it; ordering by time uses Timestamp and falls back to the ID only for
// equal timestamps.
func NewRecord(d Draft, now time.Time) (RepairRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return RepairRecord{}, fmt.Errorf("failed to generate record id: %w", err)
	}

	r := RepairRecord{
		ID:              id.String(),
		ContainerNumber: d.ContainerNumber,
		TeamID:          d.TeamID,
		TeamName:        d.TeamName,
		Editor:          d.Editor,
		Images:          append([]string(nil), d.Images...),
		ImageHashes:     append([]string(nil), d.ImageHashes...),
		Timestamp:       now.UTC(),
		Status:          StatusPending,
		UploadedCount:   0,
	}
	if err := r.Validate(); err != nil {
		return RepairRecord{}, err
	}
	return r, nil
}
