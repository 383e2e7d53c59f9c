package tasklist

import (
	"testing"

	"github.com/nhle/todosync/internal/model"
)

// withClock pins the timestamp source for a test and restores it after.
func withClock(t *testing.T, millis int64) {
	t.Helper()
	orig := nowMillis
	nowMillis = func() int64 { return millis }
	t.Cleanup(func() { nowMillis = orig })
}

func TestAdd_AppendsOpenTask(t *testing.T) {
	withClock(t, 1000)

	list := Add(nil, "Buy milk", model.PriorityHigh)

	if len(list) != 1 {
		t.Fatalf("expected 1 task, got %d", len(list))
	}
	got := list[0]
	if got.Text != "Buy milk" {
		t.Errorf("expected text %q, got %q", "Buy milk", got.Text)
	}
	if got.Completed {
		t.Error("new task should not be completed")
	}
	if got.Priority != model.PriorityHigh {
		t.Errorf("expected priority high, got %q", got.Priority)
	}
	if got.CreatedAt != 1000 {
		t.Errorf("expected createdAt 1000, got %d", got.CreatedAt)
	}
	if got.ID == "" {
		t.Error("new task should have an ID")
	}
}

func TestAdd_TrimsText(t *testing.T) {
	list := Add(nil, "  walk the dog  ", model.PriorityLow)

	if len(list) != 1 {
		t.Fatalf("expected 1 task, got %d", len(list))
	}
	if list[0].Text != "walk the dog" {
		t.Errorf("expected trimmed text, got %q", list[0].Text)
	}
}

func TestAdd_EmptyTextIsNoop(t *testing.T) {
	base := []model.Task{{ID: "a", Text: "existing"}}

	for _, text := range []string{"", "   ", "\t\n"} {
		got := Add(base, text, model.PriorityMedium)
		if len(got) != 1 {
			t.Errorf("Add(%q) changed list length to %d", text, len(got))
		}
	}
}

func TestAdd_InvalidPriorityFallsBackToMedium(t *testing.T) {
	list := Add(nil, "task", model.Priority("urgent"))

	if list[0].Priority != model.PriorityMedium {
		t.Errorf("expected medium fallback, got %q", list[0].Priority)
	}
}

func TestAdd_DoesNotMutateInput(t *testing.T) {
	base := []model.Task{{ID: "a", Text: "one"}}
	_ = Add(base, "two", model.PriorityLow)

	if len(base) != 1 || base[0].Text != "one" {
		t.Error("Add mutated its input")
	}
}

func TestRemove_TargetsExactlyOneID(t *testing.T) {
	base := []model.Task{
		{ID: "a", Text: "one"},
		{ID: "b", Text: "two"},
		{ID: "c", Text: "three"},
	}

	got := Remove(base, "b")

	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("expected [a c], got [%s %s]", got[0].ID, got[1].ID)
	}
	if Find(got, "b") != nil {
		t.Error("removed task still present")
	}
}

func TestRemove_UnknownIDIsNoop(t *testing.T) {
	base := []model.Task{{ID: "a"}}

	got := Remove(base, "zzz")
	if len(got) != 1 {
		t.Errorf("expected unchanged length 1, got %d", len(got))
	}
}

func TestToggle_IsInvolution(t *testing.T) {
	base := []model.Task{{ID: "a", Completed: false}}

	once := Toggle(base, "a")
	if !once[0].Completed {
		t.Error("first toggle should complete the task")
	}

	twice := Toggle(once, "a")
	if twice[0].Completed {
		t.Error("second toggle should reopen the task")
	}
	if base[0].Completed {
		t.Error("Toggle mutated its input")
	}
}

func TestClearAll_EmptiesList(t *testing.T) {
	base := []model.Task{{ID: "a"}, {ID: "b"}}

	got := ClearAll(base)
	if len(got) != 0 {
		t.Errorf("expected empty list, got %d tasks", len(got))
	}
}

func TestSortForDisplay_PriorityBeatsRecency(t *testing.T) {
	base := []model.Task{
		{ID: "low-new", Priority: model.PriorityLow, CreatedAt: 300},
		{ID: "high-old", Priority: model.PriorityHigh, CreatedAt: 100},
		{ID: "med", Priority: model.PriorityMedium, CreatedAt: 200},
	}

	got := SortForDisplay(base)

	want := []string{"high-old", "med", "low-new"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestSortForDisplay_NewerFirstWithinPriority(t *testing.T) {
	base := []model.Task{
		{ID: "old", Priority: model.PriorityMedium, CreatedAt: 100},
		{ID: "new", Priority: model.PriorityMedium, CreatedAt: 200},
	}

	got := SortForDisplay(base)

	if got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("expected [new old], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestSortForDisplay_StableForEqualKeys(t *testing.T) {
	base := []model.Task{
		{ID: "first", Priority: model.PriorityLow, CreatedAt: 100},
		{ID: "second", Priority: model.PriorityLow, CreatedAt: 100},
	}

	got := SortForDisplay(base)

	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("equal keys should keep input order, got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestSortForDisplay_DoesNotMutateCanonicalOrder(t *testing.T) {
	base := []model.Task{
		{ID: "low", Priority: model.PriorityLow},
		{ID: "high", Priority: model.PriorityHigh},
	}

	_ = SortForDisplay(base)

	if base[0].ID != "low" || base[1].ID != "high" {
		t.Error("SortForDisplay mutated canonical order")
	}
}
