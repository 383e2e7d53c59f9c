// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/nhle/todosync/internal/store"
)

// Write records a single MergeFields call against the fake store.
type Write struct {
	UserID string
	Fields map[string]interface{}
}

// FakeDocumentStore is an in-memory implementation of store.DocumentStore
// for testing. Snapshots are pushed manually with PushSnapshot; every
// merge write is recorded for assertion.
type FakeDocumentStore struct {
	mu   sync.Mutex
	subs map[string][]*fakeSub

	writes []Write

	// MergeErr is returned from MergeFields when set (error injection).
	MergeErr error
}

type fakeSub struct {
	ch     chan store.SnapshotEvent
	closed bool
}

// NewFakeDocumentStore creates an empty fake store.
func NewFakeDocumentStore() *FakeDocumentStore {
	return &FakeDocumentStore{
		subs: make(map[string][]*fakeSub),
	}
}

// Subscribe implements store.DocumentStore. The returned channel delivers
// whatever PushSnapshot sends for userID and closes when ctx ends.
func (f *FakeDocumentStore) Subscribe(ctx context.Context, userID string) <-chan store.SnapshotEvent {
	sub := &fakeSub{ch: make(chan store.SnapshotEvent, 16)}

	f.mu.Lock()
	f.subs[userID] = append(f.subs[userID], sub)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}()

	return sub.ch
}

// MergeFields implements store.DocumentStore, recording the write.
func (f *FakeDocumentStore) MergeFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if f.MergeErr != nil {
		return f.MergeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, Write{UserID: userID, Fields: fields})
	return nil
}

// Close implements store.DocumentStore.
func (f *FakeDocumentStore) Close() error {
	return nil
}

// PushSnapshot delivers a snapshot event to every open subscription for
// userID.
func (f *FakeDocumentStore) PushSnapshot(userID string, ev store.SnapshotEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs[userID] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Writes returns a copy of all recorded merge writes.
func (f *FakeDocumentStore) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// NewTestPrefs creates an in-memory preference cache with all migrations
// applied. It automatically closes the cache when the test completes.
func NewTestPrefs(t *testing.T) *store.PrefsCache {
	t.Helper()

	c, err := store.NewPrefsCache(":memory:")
	if err != nil {
		t.Fatalf("creating test prefs cache: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("closing test prefs cache: %v", err)
		}
	})

	return c
}
