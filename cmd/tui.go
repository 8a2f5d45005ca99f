package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI against the configured API.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/songrec-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.api.Health(ctx); err != nil {
		r.logger.Warn("server not reachable, searches will fail until it is", "api", r.api.BaseURL(), "error", err)
	}

	model, err := ui.NewModel(ctx, r.api, fileLogger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
