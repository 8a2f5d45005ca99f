package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search posts the query to the server's /search endpoint and prints the matching tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := shared.NormalizeQuery(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	r.logger.Debug("searching", "query", query, "api", r.api.BaseURL())

	resp, err := r.api.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Error)
	}
	if len(resp.Tracks) == 0 {
		return r.writePlain("No songs found. Try a different search.\n")
	}

	data, err := formatter.RenderTracks(strings.ToLower(cmd.String("format")), query, resp.Tracks)
	if err != nil {
		return err
	}
	return r.emit(data, cmd.String("output"))
}

// Recommend posts the track id to the server's /recommend endpoint and prints similar songs.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	trackID := strings.TrimSpace(cmd.StringArg("track_id"))
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	r.logger.Debug("requesting recommendations", "track_id", trackID, "api", r.api.BaseURL())

	resp, err := r.api.Recommend(ctx, trackID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Error)
	}
	if len(resp.Recommendations) == 0 {
		return r.writePlain("Could not find similar songs. Please try another track.\n")
	}

	data, err := formatter.RenderRecommendations(strings.ToLower(cmd.String("format")), trackID, resp.Recommendations)
	if err != nil {
		return err
	}
	return r.emit(data, cmd.String("output"))
}

// Status checks that the server answers on /health.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking server status", "api", r.api.BaseURL())

	if err := r.api.Health(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Service is healthy\n")
	return r.writePlain("API: %s\n", r.api.BaseURL())
}
