// Package main is the entry point for the todosync TUI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todosync/internal/app"
	"github.com/nhle/todosync/internal/identity"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/store"
	appsync "github.com/nhle/todosync/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todosync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Create context that cancels on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}
	if cfg.Remote.ProjectID == "" || cfg.Remote.APIKey == "" {
		return fmt.Errorf(
			"remote.project_id and remote.api_key must be set in %s",
			model.DefaultConfigPath(),
		)
	}

	logger, closeLog, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	prefs, err := store.NewPrefsCache(filepath.Join(model.DefaultConfigDir(), "prefs.db"))
	if err != nil {
		return err
	}
	defer prefs.Close()

	// Theme preference: config default, overridden by the local cache,
	// overridden again by the remote value once the first snapshot lands.
	initialDark := cfg.Display.DarkMode
	if cached, found, err := prefs.DarkMode(); err == nil && found {
		initialDark = cached
	}

	docStore, err := store.NewFirestoreStore(ctx, cfg.Remote)
	if err != nil {
		return err
	}
	defer docStore.Close()

	provider := identity.NewProvider(
		identity.NewClient(cfg.Remote.APIKey),
		identity.KeyringCache{},
		logger,
	)

	controller := appsync.New(docStore, logger)
	defer controller.Stop()

	m := app.New(controller, provider, prefs, logger, initialDark)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	return nil
}
