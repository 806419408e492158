// Package transport delivers record suffixes to the remote store.
//
// A Sender reports only success or failure. It never retries: the engine
// decides when the next attempt happens.
package transport

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/inspectsync/internal/models"
)

var (
	ErrUnavailable = errors.New("remote store unavailable")
	ErrRejected    = errors.New("remote store rejected the upload")
	ErrNoEndpoint  = errors.New("no endpoint configured")
)

// UploadRequest is one delivery attempt. Images is the suffix of the record's
// sequence beginning at StartIndex; the receiver stores Images[i] at position
// StartIndex+i.
type UploadRequest struct {
	RecordID        string
	ContainerNumber string
	TeamName        string
	Images          []string
	StartIndex      int
	Hashes          []string
	Editor          string
}

// Sender delivers an UploadRequest. true means the remote side has durably
// accepted the whole suffix; any failure yields false.
type Sender interface {
	Send(ctx context.Context, req UploadRequest) bool
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req UploadRequest) bool

func (f SenderFunc) Send(ctx context.Context, req UploadRequest) bool { return f(ctx, req) }

// NewUploadRequest builds the request for the unsent remainder of r.
func NewUploadRequest(r models.RepairRecord) UploadRequest {
	images, hashes, start := r.Suffix()
	return UploadRequest{
		RecordID:        r.ID,
		ContainerNumber: r.ContainerNumber,
		TeamName:        r.TeamName,
		Images:          images,
		StartIndex:      start,
		Hashes:          hashes,
		Editor:          r.Editor,
	}
}

// Payload is the JSON body understood by the ingestion endpoint.
type Payload struct {
	ID              string   `json:"id"`
	ContainerNumber string   `json:"containerNumber"`
	Team            string   `json:"team"`
	Images          []string `json:"images"`
	StartIdx        int      `json:"startIdx"`
	ImageHashes     []string `json:"imageHashes"`
	Editor          string   `json:"editor"`
}

func (req UploadRequest) Payload() Payload {
	images, hashes := req.Images, req.Hashes
	if images == nil {
		images = []string{}
	}
	if hashes == nil {
		hashes = []string{}
	}
	return Payload{
		ID:              req.RecordID,
		ContainerNumber: req.ContainerNumber,
		Team:            req.TeamName,
		Images:          images,
		StartIdx:        req.StartIndex,
		ImageHashes:     hashes,
		Editor:          req.Editor,
	}
}
