// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	defaultMarket   = "US"
)

var errNotFound = errors.New("resource not found")

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	PreviewURL *string         `json:"preview_url"`
	URI        string          `json:"uri"`
}

// PrimaryArtist returns the first credited artist, or the zero value when none is listed.
func (t SpotifyTrack) PrimaryArtist() SpotifyArtist {
	if len(t.Artists) == 0 {
		return SpotifyArtist{}
	}
	return t.Artists[0]
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifyTrackList struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

type spotifyArtistList struct {
	Artists []SpotifyArtist `json:"artists"`
}

// SpotifyOptions configures a [SpotifyService].
type SpotifyOptions struct {
	ClientID          string
	ClientSecret      string
	Market            string
	BaseURL           string // defaults to the public Web API
	TokenURL          string // defaults to the accounts service
	HTTPClient        *http.Client
	MaxRetries        int
	Backoff           time.Duration
	RequestsPerSecond float64 // zero or negative disables pacing
	OnTokenRefresh    func(*oauth2.Token)
	Logger            *log.Logger
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Uses [clientcredentials] for app authentication, a [rate.Limiter] for pacing and retries on 429/5xx.
type SpotifyService struct {
	baseURL     string
	market      string
	httpClient  *http.Client
	tokens      oauth2.TokenSource
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	logger      *log.Logger
}

var _ Catalog = (*SpotifyService)(nil)

// NewSpotifyService creates a new Spotify catalog client with the given app credentials.
func NewSpotifyService(ctx context.Context, opts SpotifyOptions) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Market == "" {
		opts.Market = defaultMarket
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Duration(defaultBackoffMs) * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	tokens := &refreshableTokenSource{
		source:   oauth2.ReuseTokenSource(nil, config.TokenSource(ctx)),
		callback: opts.OnTokenRefresh,
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SpotifyService{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		market:      opts.Market,
		httpClient:  oauth2.NewClient(ctx, tokens),
		tokens:      tokens,
		limiter:     limiter,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.Backoff,
		logger:      opts.Logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate eagerly fetches an app token so bad credentials surface at startup rather than on the first search.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	if _, err := s.tokens.Token(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return nil
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports each newly issued token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

// doRequest performs a paced, retried GET against the Web API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.doRequestWithRetry(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: spotify API status %d", errNotFound, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrDecodeResponse, err)
		}
	}

	return nil
}

// SearchTracks searches the catalog for tracks matching query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", s.market)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, "/search", params, &response); err != nil {
		return nil, err
	}
	return response.Tracks.Items, nil
}

// SearchTrack searches for a track by title and artist and returns the best match.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*SpotifyTrack, error) {
	query := "track:" + title
	if artist != "" {
		query += " artist:" + artist
	}

	tracks, err := s.SearchTracks(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s - %s", shared.ErrTrackNotFound, artist, title)
	}
	return &tracks[0], nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
		}
		return nil, err
	}
	return &track, nil
}

// Artist retrieves an artist by ID.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	var artist SpotifyArtist
	if err := s.doRequest(ctx, "/artists/"+url.PathEscape(artistID), nil, &artist); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, artistID)
		}
		return nil, err
	}
	return &artist, nil
}

// ArtistTopTracks retrieves an artist's top tracks in the configured market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]SpotifyTrack, error) {
	params := url.Values{}
	params.Set("market", s.market)

	var response spotifyTrackList
	if err := s.doRequest(ctx, "/artists/"+url.PathEscape(artistID)+"/top-tracks", params, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// RelatedArtists retrieves artists similar to artistID.
func (s *SpotifyService) RelatedArtists(ctx context.Context, artistID string) ([]SpotifyArtist, error) {
	var response spotifyArtistList
	if err := s.doRequest(ctx, "/artists/"+url.PathEscape(artistID)+"/related-artists", nil, &response); err != nil {
		return nil, err
	}
	return response.Artists, nil
}

// Recommendations retrieves seeded recommendations.
func (s *SpotifyService) Recommendations(ctx context.Context, seed RecommendationSeed) ([]SpotifyTrack, error) {
	if len(seed.TrackIDs) == 0 && len(seed.Genres) == 0 {
		return nil, fmt.Errorf("%w: recommendations need at least one seed", shared.ErrInvalidInput)
	}

	params := url.Values{}
	if len(seed.TrackIDs) > 0 {
		params.Set("seed_tracks", strings.Join(seed.TrackIDs, ","))
	}
	if len(seed.Genres) > 0 {
		params.Set("seed_genres", strings.Join(seed.Genres, ","))
	}
	if seed.Limit > 0 {
		params.Set("limit", strconv.Itoa(seed.Limit))
	}
	if seed.MinPopularity > 0 {
		params.Set("min_popularity", strconv.Itoa(seed.MinPopularity))
	}
	params.Set("market", s.market)

	var response spotifyTrackList
	if err := s.doRequest(ctx, "/recommendations", params, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}
