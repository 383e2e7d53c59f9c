// Package sync keeps the local task list and theme preference consistent
// with the remote user document.
package sync

import (
	"context"
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/store"
)

// RemoteStateMsg is a tea.Msg delivered when a remote snapshot arrives.
// Local state is replaced wholesale with its contents.
type RemoteStateMsg struct {
	// Tasks is the full remote task list. Empty when the document is
	// absent or has no tasks field.
	Tasks []model.Task

	// DarkMode is the remote theme preference, or nil when the snapshot
	// does not define one (local value is kept).
	DarkMode *bool

	// Err carries a subscription failure. The stream has ended; the
	// store client's own reconnect behavior governs recovery.
	Err error
}

// Controller owns the binding between local state and the remote document.
//
// Its one correctness-critical invariant: no write is issued for an
// identity until the first snapshot for that identity has been processed.
// Without the guard, a fresh session's empty local state would overwrite
// a previously persisted task list.
type Controller struct {
	store  store.DocumentStore
	logger *log.Logger

	mu         gosync.Mutex
	userID     string
	loaded     bool
	generation int
	cancel     context.CancelFunc

	events chan RemoteStateMsg
}

// New creates a Controller backed by the given document store.
func New(s store.DocumentStore, logger *log.Logger) *Controller {
	return &Controller{
		store:  s,
		logger: logger,
		events: make(chan RemoteStateMsg, 16),
	}
}

// Events returns the remote state stream consumed by the UI.
func (c *Controller) Events() <-chan RemoteStateMsg {
	return c.events
}

// WaitForEvent returns a command that blocks until the next remote state
// change and returns it to the Bubble Tea runtime.
func (c *Controller) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-c.events
	}
}

// SetIdentity switches the controller to a new identity. Any existing
// subscription is cancelled before the new one opens, so stale snapshots
// can never be applied to the new identity's state. The initial-load flag
// resets: writes stay blocked until the first snapshot for this identity.
func (c *Controller) SetIdentity(userID string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.userID = userID
	c.loaded = false
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.logger.Info("subscribing to user document", "user", userID)
	// Subscribe before returning so no snapshot published after this call
	// can be missed.
	snapshots := c.store.Subscribe(ctx, userID)
	go c.watch(snapshots, userID, gen)
}

// Stop tears down the active subscription.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Loaded reports whether the first snapshot for the current identity has
// been processed.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// SaveTasks writes the full task list to the remote document with a
// top-level merge, leaving preferences untouched. Before the initial load
// completes the call is a no-op. Failures are logged and swallowed; local
// state stays authoritative until the next successful write or snapshot.
func (c *Controller) SaveTasks(ctx context.Context, tasks []model.Task) {
	userID, ok := c.writableIdentity()
	if !ok {
		c.logger.Debug("dropping tasks write before initial load")
		return
	}

	if tasks == nil {
		tasks = []model.Task{}
	}
	err := c.store.MergeFields(ctx, userID, map[string]interface{}{
		"tasks": tasks,
	})
	if err != nil {
		c.logger.Error("writing tasks", "user", userID, "err", err)
	}
}

// SaveTheme writes the theme preference with a top-level merge, leaving
// tasks untouched. The same initial-load guard applies.
func (c *Controller) SaveTheme(ctx context.Context, dark bool) {
	userID, ok := c.writableIdentity()
	if !ok {
		c.logger.Debug("dropping theme write before initial load")
		return
	}

	err := c.store.MergeFields(ctx, userID, map[string]interface{}{
		"preferences": map[string]interface{}{
			"darkMode": dark,
		},
	})
	if err != nil {
		c.logger.Error("writing theme", "user", userID, "err", err)
	}
}

// writableIdentity returns the current identity if writes are allowed.
func (c *Controller) writableIdentity() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" || !c.loaded {
		return "", false
	}
	return c.userID, true
}

// watch consumes the snapshot stream for one identity. It exits when the
// subscription context is cancelled or the stream reports an error.
func (c *Controller) watch(snapshots <-chan store.SnapshotEvent, userID string, gen int) {
	for ev := range snapshots {
		if ev.Err != nil {
			c.logger.Error("document subscription failed", "user", userID, "err", ev.Err)
			c.emit(RemoteStateMsg{Err: ev.Err})
			return
		}

		c.mu.Lock()
		if c.generation != gen {
			// A newer identity took over while this snapshot was in flight.
			c.mu.Unlock()
			return
		}
		c.loaded = true
		c.mu.Unlock()

		msg := RemoteStateMsg{Tasks: []model.Task{}}
		if ev.Exists {
			if ev.Doc.Tasks != nil {
				msg.Tasks = ev.Doc.Tasks
			}
			if ev.HasDarkMode {
				dark := ev.Doc.Preferences.DarkMode
				msg.DarkMode = &dark
			}
		}

		c.emit(msg)
	}
}

// emit delivers a remote state change without blocking the watch loop.
func (c *Controller) emit(msg RemoteStateMsg) {
	select {
	case c.events <- msg:
	default:
		c.logger.Warn("remote state event dropped, consumer not keeping up")
	}
}
