// Package store provides access to the remote user-document database and
// the local preference cache.
package store

import (
	"context"

	"github.com/nhle/todosync/internal/model"
)

// SnapshotEvent is one emission from a user-document subscription.
// A non-nil Err is terminal: the channel closes after it is delivered.
type SnapshotEvent struct {
	// Exists reports whether the document is present in the store.
	Exists bool

	// Doc is the decoded document. Zero-valued when Exists is false.
	Doc model.UserDocument

	// HasDarkMode reports whether the document actually defines
	// preferences.darkMode. Decoding alone cannot distinguish an absent
	// bool from false, and an absent value must not override the local
	// theme.
	HasDarkMode bool

	// Err carries a subscription failure.
	Err error
}

// DocumentStore is the remote keyed document collection holding one
// document per anonymous identity. The sync layer never imports the
// cloud SDK directly.
type DocumentStore interface {
	// Subscribe opens a live snapshot stream for the user's document.
	// The first event reflects the current document state; later events
	// follow remote changes. The stream ends when ctx is cancelled.
	Subscribe(ctx context.Context, userID string) <-chan SnapshotEvent

	// MergeFields writes the given top-level fields to the user's
	// document with merge semantics, creating the document if absent
	// and preserving fields that are not named.
	MergeFields(ctx context.Context, userID string, fields map[string]interface{}) error

	// Close releases the underlying client.
	Close() error
}
