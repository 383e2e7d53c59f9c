package store

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nhle/todosync/internal/model"
)

// FirestoreStore implements DocumentStore on Cloud Firestore.
// Reconnects and stream liveness are handled by the Firestore client;
// this layer only decodes snapshots and issues merge writes.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a Firestore-backed document store for the
// configured project. When cfg.EmulatorHost is set, traffic is routed to
// the local emulator.
func NewFirestoreStore(ctx context.Context, cfg model.RemoteConfig) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("remote.project_id is required")
	}

	if cfg.EmulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("setting emulator host: %w", err)
		}
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "users"
	}

	return &FirestoreStore{client: client, collection: collection}, nil
}

// Subscribe implements DocumentStore using Firestore's snapshot listener.
func (s *FirestoreStore) Subscribe(ctx context.Context, userID string) <-chan SnapshotEvent {
	events := make(chan SnapshotEvent, 1)

	go func() {
		defer close(events)

		iter := s.client.Collection(s.collection).Doc(userID).Snapshots(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				s.send(ctx, events, SnapshotEvent{
					Err: fmt.Errorf("document subscription for %s: %w", userID, err),
				})
				return
			}

			ev := SnapshotEvent{Exists: snap.Exists()}
			if ev.Exists {
				if decodeErr := snap.DataTo(&ev.Doc); decodeErr != nil {
					s.send(ctx, events, SnapshotEvent{
						Err: fmt.Errorf("decoding document for %s: %w", userID, decodeErr),
					})
					return
				}
				if prefs, ok := snap.Data()["preferences"].(map[string]interface{}); ok {
					_, ev.HasDarkMode = prefs["darkMode"]
				}
			}

			if !s.send(ctx, events, ev) {
				return
			}
		}
	}()

	return events
}

// send delivers an event unless the context ends first.
func (s *FirestoreStore) send(ctx context.Context, events chan<- SnapshotEvent, ev SnapshotEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// MergeFields implements DocumentStore with a top-level merge write.
func (s *FirestoreStore) MergeFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	_, err := s.client.Collection(s.collection).Doc(userID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("writing document for %s: %w", userID, err)
	}
	return nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
