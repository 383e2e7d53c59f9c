package app

import (
	"fmt"
	"strings"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/tasklist"
)

// priorityLabels are the short badges rendered next to each task.
var priorityLabels = map[model.Priority]string{
	model.PriorityHigh:   "HI ",
	model.PriorityMedium: "MED",
	model.PriorityLow:    "LOW",
}

// View renders the active mode.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder

	b.WriteString(m.theme.Header.Render("todosync"))
	b.WriteString("\n\n")

	switch m.mode {
	case ModeConfirmClear:
		b.WriteString(m.confirmForm.View())
	case ModeAdd:
		b.WriteString(m.renderAdd())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderList draws the sorted task list with the cursor.
func (m Model) renderList() string {
	if m.loading {
		return m.theme.Help.Render("syncing...")
	}

	display := tasklist.SortForDisplay(m.tasks)
	if len(display) == 0 {
		return m.theme.Help.Render("no tasks - press 'a' to add one")
	}

	var b strings.Builder
	for i, t := range display {
		checkbox := "[ ]"
		text := t.Text
		if t.Completed {
			checkbox = "[x]"
			text = m.theme.DoneText.Render(text)
		}

		badge := m.theme.PriorityStyle(t.Priority).Render(priorityLabels[t.Priority])
		line := fmt.Sprintf("%s %s %s", checkbox, badge, text)

		if i == m.cursor {
			b.WriteString(m.theme.Selected.Render(line))
		} else {
			b.WriteString(m.theme.ListItem.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderAdd draws the new-task input with its priority selector.
func (m Model) renderAdd() string {
	var b strings.Builder
	b.WriteString(m.theme.InputPrompt.Render("new task"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	badge := m.theme.PriorityStyle(m.inputPriority).Render(priorityLabels[m.inputPriority])
	b.WriteString(fmt.Sprintf("priority: %s  ", badge))
	b.WriteString(m.theme.Help.Render("(tab to change, enter to add, esc to cancel)"))
	return b.String()
}

// renderStatusBar draws identity, counts, and key hints.
func (m Model) renderStatusBar() string {
	var parts []string

	if m.errText != "" {
		parts = append(parts, m.theme.ErrorText.Render(m.errText))
	} else if m.userID != "" {
		parts = append(parts, shortID(m.userID))
	}

	open := 0
	for _, t := range m.tasks {
		if !t.Completed {
			open++
		}
	}
	parts = append(parts, fmt.Sprintf("%d open / %d total", open, len(m.tasks)))

	mode := "light"
	if m.theme.Dark {
		mode = "dark"
	}
	parts = append(parts, mode)
	parts = append(parts, "a:add enter:done d:del C:clear t:theme q:quit")

	return m.theme.StatusBar.Render(strings.Join(parts, " | "))
}

// shortID abbreviates an anonymous user ID for the status bar.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
