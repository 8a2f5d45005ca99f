package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/songrec/internal/repositories"
	"github.com/desertthunder/songrec/internal/server"
	"github.com/desertthunder/songrec/internal/services"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/web"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Serve starts the JSON API and the search page on one listener.
//
// The page calls the API over HTTP like any other client, at --api-url or this server's own address.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if !r.config.HasSpotifyCredentials() {
		return fmt.Errorf("%w: set credentials.spotify in %s or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials, r.configPath)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = int(port)
	}

	recommender, err := r.newRecommender(ctx)
	if err != nil {
		return err
	}

	recorder, db := r.openRecorder()
	if db != nil {
		defer db.Close()
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	apiURL := cmd.String("api-url")
	if apiURL == "" {
		apiURL = loopbackURL(ln.Addr())
	}
	pageClient := services.NewAPIServiceWithTimeout(apiURL, r.config.API.Timeout())

	pages, err := web.NewHandler(pageClient, web.Options{Logger: shared.WithLogger(r.logger, "component", "web")})
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to build page: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Logging(r.logger), server.Recover(r.logger))
	router.Handler(server.NewAPIHandler(recommender, recorder, shared.WithLogger(r.logger, "component", "api")))
	router.Handler(pages)

	srv := server.New(cfg.Addr(), router, r.logger)
	pageURL := loopbackURL(ln.Addr()) + "/"

	r.logger.Info("serving", "addr", ln.Addr().String(), "page", pageURL, "api", apiURL)
	r.writePlain("Open %s in your browser (ctrl+c to stop)\n", pageURL)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(pageURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return srv.Serve(ctx, ln)
}

// newRecommender builds the Spotify catalog and the tiered recommender from config.
func (r *Runner) newRecommender(ctx context.Context) (*services.Recommender, error) {
	spotify, err := services.NewSpotifyService(ctx, services.SpotifyOptions{
		ClientID:          r.config.Credentials.Spotify.ClientID,
		ClientSecret:      r.config.Credentials.Spotify.ClientSecret,
		Market:            r.config.Credentials.Spotify.Market,
		MaxRetries:        r.config.Recommend.MaxRetries,
		Backoff:           time.Duration(r.config.Recommend.BackoffMS) * time.Millisecond,
		RequestsPerSecond: r.config.Recommend.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "component", "spotify"),
		OnTokenRefresh: func(t *oauth2.Token) {
			r.logger.Debug("spotify token refreshed", "expires", t.Expiry)
		},
	})
	if err != nil {
		return nil, err
	}

	if err := spotify.Authenticate(ctx); err != nil {
		return nil, err
	}

	return services.NewRecommender(spotify, services.RecommenderOptions{
		Limit:         r.config.Recommend.Limit,
		MinPopularity: r.config.Recommend.MinPopularity,
		Logger:        shared.WithLogger(r.logger, "component", "recommender"),
	}), nil
}

// openRecorder opens the request log. A database failure only disables logging.
func (r *Runner) openRecorder() (*repositories.Recorder, *sql.DB) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		r.logger.Warn("request log disabled", "path", r.config.Database.Path, "error", err)
		return nil, nil
	}

	return &repositories.Recorder{
		Searches:        repositories.NewSearchLogRepository(db),
		Recommendations: repositories.NewRecommendLogRepository(db),
	}, db
}

// loopbackURL turns a listener address into a URL reachable from this machine.
func loopbackURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
