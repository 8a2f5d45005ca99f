package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints the most recent searches served by this machine's server.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", shared.ErrInvalidFlag)
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	recorder := &repositories.Recorder{Searches: repositories.NewSearchLogRepository(db)}
	entries, err := recorder.History(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("Recent searches (%d)", len(entries)))
	data, err := formatter.HistoryToText(entries)
	if err != nil {
		return err
	}
	return r.emit(data, "")
}
