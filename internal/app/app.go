package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/identity"
	"github.com/nhle/todosync/internal/keys"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/store"
	appsync "github.com/nhle/todosync/internal/sync"
	"github.com/nhle/todosync/internal/tasklist"
	"github.com/nhle/todosync/internal/theme"
)

// Mode is the current input mode of the application.
type Mode int

const (
	ModeList Mode = iota
	ModeAdd
	ModeConfirmClear
)

// Model is the root Bubble Tea model. It owns the canonical task list and
// the theme preference; the sync controller keeps both consistent with the
// remote document.
type Model struct {
	keys       *keys.KeyMap
	theme      theme.Theme
	controller *appsync.Controller
	provider   *identity.Provider
	prefs      *store.PrefsCache
	logger     *log.Logger

	mode   Mode
	tasks  []model.Task // canonical order; display order is derived
	cursor int          // position within the sorted display list

	input         textinput.Model
	inputPriority model.Priority

	// confirmClear lives on the heap so huh's Value() binding survives
	// the copies Bubble Tea makes of this model.
	confirmForm  *huh.Form
	confirmClear *bool

	userID  string
	loading bool
	errText string

	width  int
	height int
	ready  bool
}

// New creates the root application model. initialDark comes from the local
// preference cache and is overwritten by the remote value once it loads.
func New(
	controller *appsync.Controller,
	provider *identity.Provider,
	prefs *store.PrefsCache,
	logger *log.Logger,
	initialDark bool,
) Model {
	input := textinput.New()
	input.Placeholder = "What needs doing?"
	input.CharLimit = 200

	return Model{
		keys:          keys.DefaultKeyMap(),
		theme:         theme.New(initialDark),
		controller:    controller,
		provider:      provider,
		prefs:         prefs,
		logger:        logger,
		mode:          ModeList,
		input:         input,
		inputPriority: model.PriorityMedium,
		loading:       true,
		width:         80,
		height:        24,
	}
}

// Init signs in and starts listening for identity and remote state events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.signIn(),
		m.waitForIdentity(),
		m.waitForRemote(),
	)
}

// Update handles messages and dispatches by input mode.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if m.mode == ModeConfirmClear && m.confirmForm != nil {
			return m.updateConfirm(msg)
		}
		return m, nil

	case identityChangedMsg:
		m.userID = msg.userID
		m.loading = true
		m.errText = ""
		m.controller.SetIdentity(msg.userID)
		if err := m.prefs.SetLastIdentity(msg.userID); err != nil {
			m.logger.Warn("recording identity", "err", err)
		}
		return m, m.waitForIdentity()

	case signInFailedMsg:
		// Logged only; the app keeps running without sync.
		m.loading = false
		m.errText = "offline: sign-in failed"
		return m, nil

	case appsync.RemoteStateMsg:
		if msg.Err != nil {
			m.errText = "sync lost: see log"
			return m, m.waitForRemote()
		}
		m.tasks = msg.Tasks
		m.loading = false
		if msg.DarkMode != nil && *msg.DarkMode != m.theme.Dark {
			m.theme = theme.New(*msg.DarkMode)
			m.cacheTheme(*msg.DarkMode)
		}
		m.clampCursor()
		return m, m.waitForRemote()

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd:
			return m.updateAdd(msg)
		case ModeConfirmClear:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	if m.mode == ModeConfirmClear && m.confirmForm != nil {
		return m.updateConfirm(msg)
	}
	return m, nil
}

// updateList handles keys in the main list view.
func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.mode = ModeAdd
		m.input.SetValue("")
		m.inputPriority = model.PriorityMedium
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Toggle):
		if t := m.selectedTask(); t != nil {
			m.tasks = tasklist.Toggle(m.tasks, t.ID)
			return m, m.persistTasks()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if t := m.selectedTask(); t != nil {
			m.tasks = tasklist.Remove(m.tasks, t.ID)
			m.clampCursor()
			return m, m.persistTasks()
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if len(m.tasks) == 0 {
			return m, nil
		}
		m.mode = ModeConfirmClear
		m.confirmClear = new(bool)
		m.confirmForm = buildConfirmForm(m.confirmClear)
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.Theme):
		dark := !m.theme.Dark
		m.theme = theme.New(dark)
		m.cacheTheme(dark)
		return m, m.persistTheme(dark)

	case key.Matches(msg, m.keys.Reset):
		return m, m.resetIdentity()
	}

	return m, nil
}

// updateAdd handles keys while the add input is focused.
func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.CyclePriority):
		m.inputPriority = nextPriority(m.inputPriority)
		return m, nil

	case msg.Type == tea.KeyEnter:
		before := len(m.tasks)
		m.tasks = tasklist.Add(m.tasks, m.input.Value(), m.inputPriority)
		m.mode = ModeList
		m.input.Blur()
		if len(m.tasks) == before {
			// Empty text: silent no-op.
			return m, nil
		}
		return m, m.persistTasks()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateConfirm routes messages to the clear-all confirmation form.
func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirmForm = f
	}

	if m.confirmForm.State == huh.StateCompleted {
		m.mode = ModeList
		if m.confirmClear != nil && *m.confirmClear {
			m.tasks = tasklist.ClearAll(m.tasks)
			m.cursor = 0
			return m, m.persistTasks()
		}
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// buildConfirmForm creates the clear-all confirmation prompt.
func buildConfirmForm(value *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete all tasks?").
				Description("This removes every task from the list.").
				Affirmative("Delete").
				Negative("Keep").
				Value(value),
		),
	)
}

// selectedTask returns the task under the cursor in display order.
func (m *Model) selectedTask() *model.Task {
	display := tasklist.SortForDisplay(m.tasks)
	if m.cursor < 0 || m.cursor >= len(display) {
		return nil
	}
	return &display[m.cursor]
}

// clampCursor keeps the cursor inside the list after remote replaces or
// deletions shrink it.
func (m *Model) clampCursor() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cacheTheme persists the theme to the local cache so it survives
// unauthenticated startup.
func (m *Model) cacheTheme(dark bool) {
	if err := m.prefs.SetDarkMode(dark); err != nil {
		m.logger.Warn("caching theme", "err", err)
	}
}

// nextPriority cycles high → medium → low → high.
func nextPriority(p model.Priority) model.Priority {
	switch p {
	case model.PriorityHigh:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityLow
	default:
		return model.PriorityHigh
	}
}
