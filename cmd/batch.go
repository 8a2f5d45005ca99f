package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Batch reads a list of song queries and writes recommendations for each one to --dir.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	queries, err := tasks.ReadQueries(f)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("%w: %s contains no queries", shared.ErrMissingArgument, input)
	}

	r.logger.Info("starting batch", "queries", len(queries), "api", r.api.BaseURL())

	engine := tasks.NewEngine(r.api, shared.WithLogger(r.logger, "component", "batch"))
	progress := make(chan tasks.ProgressUpdate, 50)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Phase == tasks.WriteOutput || update.Phase == tasks.Queue {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.BatchRecommend(ctx, progress, queries, tasks.BatchOpts{
		Format:     strings.ToLower(cmd.String("format")),
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	wg.Wait()

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Batch complete")
	r.writePlain("Succeeded: %d/%d\n", result.Succeeded, result.Total)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return err
}

// batchCommand runs recommendations for a file of queries
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Find similar songs for every query in a file (one per line)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "File with one song query per line",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory (default: recommendations_{epoch})",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, markdown, csv, json)",
				Value:   formatter.FormatMarkdown,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent queries (max 10)",
				Value: 3,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Queries per second",
				Value: 2,
			},
		},
		Action: r.Batch,
	}
}
