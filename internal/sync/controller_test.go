package sync_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/store"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/tasklist"
	"github.com/nhle/todosync/tests/testutil"
)

func newController(t *testing.T) (*appsync.Controller, *testutil.FakeDocumentStore) {
	t.Helper()
	fake := testutil.NewFakeDocumentStore()
	c := appsync.New(fake, log.New(io.Discard))
	t.Cleanup(c.Stop)
	return c, fake
}

// recvEvent reads the next remote state event or fails the test.
func recvEvent(t *testing.T, c *appsync.Controller) appsync.RemoteStateMsg {
	t.Helper()
	select {
	case msg := <-c.Events():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for remote state event")
		return appsync.RemoteStateMsg{}
	}
}

func TestNoWriteBeforeFirstSnapshot(t *testing.T) {
	c, fake := newController(t)
	ctx := context.Background()

	c.SetIdentity("anon-1")

	// Local mutations before the first snapshot resolves.
	c.SaveTasks(ctx, []model.Task{{ID: "t1", Text: "too early"}})
	c.SaveTheme(ctx, true)

	if got := len(fake.Writes()); got != 0 {
		t.Fatalf("expected zero writes before initial load, got %d", got)
	}
}

func TestNoWriteWithoutIdentity(t *testing.T) {
	c, fake := newController(t)

	c.SaveTasks(context.Background(), []model.Task{{ID: "t1"}})

	if got := len(fake.Writes()); got != 0 {
		t.Fatalf("expected zero writes without identity, got %d", got)
	}
}

func TestSnapshotReplacesLocalState(t *testing.T) {
	c, fake := newController(t)

	c.SetIdentity("anon-1")
	dark := true
	fake.PushSnapshot("anon-1", store.SnapshotEvent{
		Exists: true,
		Doc: model.UserDocument{
			Tasks:       []model.Task{{ID: "r1", Text: "remote task", Priority: model.PriorityLow}},
			Preferences: model.Preferences{DarkMode: dark},
		},
		HasDarkMode: true,
	})

	msg := recvEvent(t, c)

	if len(msg.Tasks) != 1 || msg.Tasks[0].Text != "remote task" {
		t.Errorf("expected remote task list, got %+v", msg.Tasks)
	}
	if msg.DarkMode == nil || *msg.DarkMode != true {
		t.Errorf("expected darkMode true, got %v", msg.DarkMode)
	}
	if !c.Loaded() {
		t.Error("expected loaded flag after first snapshot")
	}
}

func TestAbsentDocumentYieldsEmptyTasks(t *testing.T) {
	c, fake := newController(t)

	c.SetIdentity("anon-1")
	fake.PushSnapshot("anon-1", store.SnapshotEvent{Exists: false})

	msg := recvEvent(t, c)

	if len(msg.Tasks) != 0 {
		t.Errorf("expected empty tasks for absent document, got %d", len(msg.Tasks))
	}
	if msg.DarkMode != nil {
		t.Error("absent document must not carry a theme value")
	}
	if !c.Loaded() {
		t.Error("an absent-document snapshot still completes the initial load")
	}

	// The controller must not disambiguate absence by writing an initial
	// empty document.
	if got := len(fake.Writes()); got != 0 {
		t.Errorf("expected no write after absent snapshot, got %d", got)
	}
}

func TestSnapshotWithoutDarkModeKeepsLocalTheme(t *testing.T) {
	c, fake := newController(t)

	c.SetIdentity("anon-1")
	fake.PushSnapshot("anon-1", store.SnapshotEvent{
		Exists: true,
		Doc:    model.UserDocument{Tasks: []model.Task{{ID: "r1", Text: "x"}}},
	})

	msg := recvEvent(t, c)

	if msg.DarkMode != nil {
		t.Errorf("expected nil darkMode when not defined remotely, got %v", *msg.DarkMode)
	}
}

func TestEndToEnd_AddTaskWritesExactList(t *testing.T) {
	c, fake := newController(t)
	ctx := context.Background()

	// Start with an empty document.
	c.SetIdentity("anon-1")
	fake.PushSnapshot("anon-1", store.SnapshotEvent{Exists: false})
	msg := recvEvent(t, c)

	list := tasklist.Add(msg.Tasks, "Buy milk", model.PriorityHigh)
	c.SaveTasks(ctx, list)

	writes := fake.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(writes))
	}
	if writes[0].UserID != "anon-1" {
		t.Errorf("expected write for anon-1, got %q", writes[0].UserID)
	}

	tasks, ok := writes[0].Fields["tasks"].([]model.Task)
	if !ok {
		t.Fatalf("expected tasks field, got %+v", writes[0].Fields)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task in write, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Text != "Buy milk" || got.Completed || got.Priority != model.PriorityHigh {
		t.Errorf("unexpected task in write: %+v", got)
	}
	if _, hasPrefs := writes[0].Fields["preferences"]; hasPrefs {
		t.Error("tasks write must not touch preferences")
	}
}

func TestEndToEnd_ThemeToggleGuardedThenWritten(t *testing.T) {
	c, fake := newController(t)
	ctx := context.Background()

	c.SetIdentity("anon-1")

	// Toggle before the first snapshot: no write.
	c.SaveTheme(ctx, true)
	if got := len(fake.Writes()); got != 0 {
		t.Fatalf("expected zero writes before snapshot, got %d", got)
	}

	fake.PushSnapshot("anon-1", store.SnapshotEvent{Exists: false})
	recvEvent(t, c)

	// Toggle again after the load completes: exactly one preferences write.
	c.SaveTheme(ctx, true)

	writes := fake.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(writes))
	}
	prefs, ok := writes[0].Fields["preferences"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected preferences field, got %+v", writes[0].Fields)
	}
	if prefs["darkMode"] != true {
		t.Errorf("expected darkMode true, got %v", prefs["darkMode"])
	}
	if _, hasTasks := writes[0].Fields["tasks"]; hasTasks {
		t.Error("theme write must not touch tasks")
	}
}

func TestIdentityChangeResetsInitialLoadGuard(t *testing.T) {
	c, fake := newController(t)
	ctx := context.Background()

	c.SetIdentity("anon-1")
	fake.PushSnapshot("anon-1", store.SnapshotEvent{Exists: false})
	recvEvent(t, c)

	// Switching identity must block writes until the new document loads.
	c.SetIdentity("anon-2")
	c.SaveTasks(ctx, []model.Task{{ID: "t1", Text: "stale"}})

	if got := len(fake.Writes()); got != 0 {
		t.Fatalf("expected zero writes after identity switch, got %d", got)
	}

	fake.PushSnapshot("anon-2", store.SnapshotEvent{Exists: false})
	recvEvent(t, c)

	c.SaveTasks(ctx, []model.Task{{ID: "t2", Text: "fresh"}})
	writes := fake.Writes()
	if len(writes) != 1 || writes[0].UserID != "anon-2" {
		t.Fatalf("expected one write for anon-2, got %+v", writes)
	}
}

func TestSubscriptionErrorIsSurfacedNotRetried(t *testing.T) {
	c, fake := newController(t)

	c.SetIdentity("anon-1")
	fake.PushSnapshot("anon-1", store.SnapshotEvent{Err: context.DeadlineExceeded})

	msg := recvEvent(t, c)
	if msg.Err == nil {
		t.Fatal("expected subscription error event")
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	c, fake := newController(t)
	ctx := context.Background()

	c.SetIdentity("anon-1")
	fake.PushSnapshot("anon-1", store.SnapshotEvent{Exists: false})
	recvEvent(t, c)

	fake.MergeErr = context.DeadlineExceeded
	// Must not panic or surface anything; failure is logged only.
	c.SaveTasks(ctx, []model.Task{{ID: "t1", Text: "doomed"}})

	if got := len(fake.Writes()); got != 0 {
		t.Errorf("failed write should not be recorded, got %d", got)
	}
}
