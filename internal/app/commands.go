package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todosync/internal/model"
)

// identityChangedMsg carries a new anonymous user ID.
type identityChangedMsg struct {
	userID string
}

// signInFailedMsg is sent when anonymous sign-in fails. There is no retry;
// the app runs without sync.
type signInFailedMsg struct {
	err error
}

// signIn resolves the anonymous identity in the background.
func (m Model) signIn() tea.Cmd {
	p := m.provider
	logger := m.logger
	return func() tea.Msg {
		if _, err := p.SignIn(context.Background()); err != nil {
			logger.Error("anonymous sign-in failed", "err", err)
			return signInFailedMsg{err: err}
		}
		// The identity event stream delivers the result.
		return nil
	}
}

// waitForIdentity blocks until the provider emits an identity change.
func (m Model) waitForIdentity() tea.Cmd {
	events := m.provider.Events()
	return func() tea.Msg {
		return identityChangedMsg{userID: <-events}
	}
}

// waitForRemote blocks until the controller emits a remote state change.
func (m Model) waitForRemote() tea.Cmd {
	return m.controller.WaitForEvent()
}

// persistTasks writes the current task list to the remote document.
// Fire-and-forget: the controller guards ordering and swallows failures.
func (m Model) persistTasks() tea.Cmd {
	c := m.controller
	tasks := make([]model.Task, len(m.tasks))
	copy(tasks, m.tasks)
	return func() tea.Msg {
		c.SaveTasks(context.Background(), tasks)
		return nil
	}
}

// persistTheme writes the theme preference to the remote document.
func (m Model) persistTheme(dark bool) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		c.SaveTheme(context.Background(), dark)
		return nil
	}
}

// resetIdentity signs out and creates a fresh anonymous account with an
// empty document.
func (m Model) resetIdentity() tea.Cmd {
	p := m.provider
	logger := m.logger
	return func() tea.Msg {
		if err := p.SignOut(); err != nil {
			logger.Error("sign-out failed", "err", err)
			return nil
		}
		if _, err := p.SignIn(context.Background()); err != nil {
			logger.Error("re-sign-in failed", "err", err)
			return signInFailedMsg{err: err}
		}
		return nil
	}
}
