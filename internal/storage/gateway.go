// Package storage holds the durable stroke store and the ways a client
// reaches it.
//
// Every implementation satisfies Gateway. Concurrent saves and deletes from
// different users are resolved by the store itself: stroke IDs are globally
// unique, so two commits never collide, and deleting a missing ID is not an
// error.
package storage

import (
	"context"
	"errors"

	"github.com/localboard/sketchrelay/internal/state"
)

// ErrUnavailable wraps any failure to reach the backing store.
var ErrUnavailable = errors.New("stroke store unavailable")

// Gateway is the durable stroke store.
type Gateway interface {
	// Save stores s. Saving an ID that already exists is a no-op.
	Save(ctx context.Context, s state.Stroke) error
	// DeleteByIDs removes the listed strokes; unknown IDs are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error
	// FetchAll returns every stored stroke, oldest first.
	FetchAll(ctx context.Context) ([]state.Stroke, error)
}
