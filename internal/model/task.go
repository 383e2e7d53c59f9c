package model

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight returns the numeric rank of a priority for display sorting.
// Higher means more urgent. Unknown values rank below low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task is a single to-do item inside a user document.
type Task struct {
	// ID is the stable opaque identifier assigned at creation.
	ID string `json:"id" firestore:"id"`

	// Text is the task description. Always non-empty after trimming.
	Text string `json:"text" firestore:"text"`

	// Completed marks the task as done.
	Completed bool `json:"completed" firestore:"completed"`

	// Priority is the urgency level (high, medium, low).
	Priority Priority `json:"priority" firestore:"priority"`

	// CreatedAt is the creation time in Unix milliseconds. It is the
	// tie-breaker for display ordering, not an identity key.
	CreatedAt int64 `json:"createdAt" firestore:"createdAt"`
}

// Preferences holds per-user display settings stored alongside tasks.
type Preferences struct {
	DarkMode bool `json:"darkMode" firestore:"darkMode"`
}

// UserDocument is the full remote document for one anonymous identity.
// The sync layer always replaces whole top-level fields; fields beyond
// these two are preserved by merge semantics at the store.
type UserDocument struct {
	Tasks       []Task      `json:"tasks" firestore:"tasks"`
	Preferences Preferences `json:"preferences" firestore:"preferences"`
}
