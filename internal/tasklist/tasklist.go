// Package tasklist implements the pure operations on a user's task list.
// Every function returns a new slice and leaves its input untouched, so
// the sync layer can be tested without a live store.
package tasklist

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/todosync/internal/model"
)

// nowMillis is swappable in tests for deterministic timestamps.
var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}

// Add appends a new open task with the given text and priority.
// Empty or whitespace-only text is a no-op and returns the list unchanged.
// Invalid priorities fall back to medium.
func Add(list []model.Task, text string, priority model.Priority) []model.Task {
	text = strings.TrimSpace(text)
	if text == "" {
		return list
	}
	if !priority.Valid() {
		priority = model.PriorityMedium
	}

	out := make([]model.Task, len(list), len(list)+1)
	copy(out, list)
	return append(out, model.Task{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		Priority:  priority,
		CreatedAt: nowMillis(),
	})
}

// Remove deletes the task with the given ID. Unknown IDs are a no-op.
func Remove(list []model.Task, id string) []model.Task {
	out := make([]model.Task, 0, len(list))
	for _, t := range list {
		if t.ID == id {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Toggle flips the completed state of the task with the given ID.
// Unknown IDs are a no-op.
func Toggle(list []model.Task, id string) []model.Task {
	out := make([]model.Task, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == id {
			out[i].Completed = !out[i].Completed
			break
		}
	}
	return out
}

// ClearAll returns an empty list. The UI requires explicit confirmation
// before calling this.
func ClearAll([]model.Task) []model.Task {
	return []model.Task{}
}

// SortForDisplay returns a copy sorted by priority descending
// (high > medium > low), then by creation time descending so newer tasks
// sort first within a priority. The sort is stable and the canonical
// order of the input is never mutated.
func SortForDisplay(list []model.Task) []model.Task {
	out := make([]model.Task, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Priority.Weight(), out[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Find returns the task with the given ID, or nil if absent.
func Find(list []model.Task, id string) *model.Task {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
