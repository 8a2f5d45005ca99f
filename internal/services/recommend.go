package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Tier similarity scores and reasons.
const (
	TopTrackSimilarity       = 90.0
	RelatedArtistSimilarity  = 85.0
	SeededSimilarity         = 80.0
	ArtistFallbackSimilarity = 70.0

	topTrackReason       = "Same artist's top track"
	relatedArtistReason  = "Top track by similar artist %s"
	seededReason         = "Recommended by Spotify"
	artistFallbackReason = "Other song by this artist"
)

const (
	defaultSearchLimit    = 10
	defaultRecommendLimit = 10
	defaultMinPopularity  = 20

	topTracksPerArtist     = 5
	relatedArtistsToVisit  = 3
	topTracksPerRelated    = 2
	maxSeedGenres          = 2
	fallbackThreshold      = 5
	fallbackSearchLimit    = 10
	seededRecommendedLimit = 10
)

// RecommenderOptions configures a [Recommender].
type RecommenderOptions struct {
	Limit         int // results returned by Recommend
	SearchLimit   int // results returned by Search
	MinPopularity int
	Logger        *log.Logger
}

// Recommender finds tracks similar to a seed track using a tiered strategy over a [Catalog].
type Recommender struct {
	catalog       Catalog
	limit         int
	searchLimit   int
	minPopularity int
	logger        *log.Logger
}

// NewRecommender creates a Recommender over catalog.
func NewRecommender(catalog Catalog, opts RecommenderOptions) *Recommender {
	if opts.Limit <= 0 {
		opts.Limit = defaultRecommendLimit
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	if opts.MinPopularity <= 0 {
		opts.MinPopularity = defaultMinPopularity
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Recommender{
		catalog:       catalog,
		limit:         opts.Limit,
		searchLimit:   opts.SearchLimit,
		minPopularity: opts.MinPopularity,
		logger:        opts.Logger,
	}
}

// Search returns catalog tracks matching query.
func (r *Recommender) Search(ctx context.Context, query string) ([]models.Track, error) {
	query = shared.NormalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("%w: no search query provided", shared.ErrMissingArgument)
	}

	r.logger.Info("searching", "query", query)
	results, err := r.catalog.SearchTracks(ctx, query, r.searchLimit)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(results))
	for _, t := range results {
		tracks = append(tracks, toTrack(t))
	}

	r.logger.Info("search complete", "query", query, "count", len(tracks))
	return tracks, nil
}

// Recommend returns up to the configured number of tracks similar to trackID, best tiers first.
//
// Returns [shared.ErrTrackNotFound] (wrapped) when the seed track cannot be resolved.
// An empty result with a nil error means no tier produced anything.
func (r *Recommender) Recommend(ctx context.Context, trackID string) ([]models.Recommendation, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: no track ID provided", shared.ErrMissingArgument)
	}

	seed, err := r.catalog.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}

	artist := seed.PrimaryArtist()
	logger := r.logger.With("track", seed.Name, "artist", artist.Name)
	logger.Info("finding recommendations")

	var genres []string
	if artist.ID != "" {
		if info, err := r.catalog.Artist(ctx, artist.ID); err != nil {
			logger.Warn("artist lookup failed", "error", err)
		} else {
			genres = info.Genres
		}
	}

	var candidates []models.Recommendation

	if artist.ID != "" {
		candidates = append(candidates, r.artistTopTracks(ctx, logger, artist.ID, trackID)...)
	}
	if len(candidates) < r.limit && artist.ID != "" {
		candidates = append(candidates, r.relatedArtistTracks(ctx, logger, artist.ID, trackID)...)
	}
	if len(candidates) < r.limit {
		candidates = append(candidates, r.seededTracks(ctx, logger, trackID, genres)...)
	}
	if len(candidates) < fallbackThreshold && artist.Name != "" {
		candidates = append(candidates, r.artistFallback(ctx, logger, artist.Name, trackID)...)
	}

	results := dedupe(candidates, trackID, r.limit)
	if len(results) == 0 {
		logger.Warn("no recommendations found")
	} else {
		logger.Info("returning recommendations", "count", len(results))
	}
	return results, nil
}

// artistTopTracks is tier 1.
func (r *Recommender) artistTopTracks(ctx context.Context, logger *log.Logger, artistID, seedID string) []models.Recommendation {
	tracks, err := r.catalog.ArtistTopTracks(ctx, artistID)
	if err != nil {
		logger.Error("artist top tracks failed", "error", err)
		return nil
	}

	var recs []models.Recommendation
	for _, t := range firstN(tracks, topTracksPerArtist) {
		if t.ID == seedID {
			continue
		}
		recs = append(recs, toRecommendation(t, TopTrackSimilarity, topTrackReason))
	}

	logger.Debug("tier complete", "tier", 1, "count", len(recs))
	return recs
}

// relatedArtistTracks is tier 2.
func (r *Recommender) relatedArtistTracks(ctx context.Context, logger *log.Logger, artistID, seedID string) []models.Recommendation {
	related, err := r.catalog.RelatedArtists(ctx, artistID)
	if err != nil {
		logger.Error("related artists failed", "error", err)
		return nil
	}

	var recs []models.Recommendation
	for _, a := range firstN(related, relatedArtistsToVisit) {
		tracks, err := r.catalog.ArtistTopTracks(ctx, a.ID)
		if err != nil {
			logger.Error("related artist top tracks failed", "related", a.Name, "error", err)
			return recs
		}
		for _, t := range firstN(tracks, topTracksPerRelated) {
			if t.ID == seedID {
				continue
			}
			recs = append(recs, toRecommendation(t, RelatedArtistSimilarity, fmt.Sprintf(relatedArtistReason, a.Name)))
		}
	}

	logger.Debug("tier complete", "tier", 2, "count", len(recs))
	return recs
}

// seededTracks is tier 3.
func (r *Recommender) seededTracks(ctx context.Context, logger *log.Logger, seedID string, genres []string) []models.Recommendation {
	tracks, err := r.catalog.Recommendations(ctx, RecommendationSeed{
		TrackIDs:      []string{seedID},
		Genres:        firstN(genres, maxSeedGenres),
		Limit:         seededRecommendedLimit,
		MinPopularity: r.minPopularity,
	})
	if err != nil {
		logger.Error("seeded recommendations failed", "error", err)
		return nil
	}

	var recs []models.Recommendation
	for _, t := range tracks {
		if t.ID == seedID {
			continue
		}
		recs = append(recs, toRecommendation(t, SeededSimilarity, seededReason))
	}

	logger.Debug("tier complete", "tier", 3, "count", len(recs))
	return recs
}

// artistFallback is tier 4.
func (r *Recommender) artistFallback(ctx context.Context, logger *log.Logger, artistName, seedID string) []models.Recommendation {
	tracks, err := r.catalog.SearchTracks(ctx, artistName, fallbackSearchLimit)
	if err != nil {
		logger.Error("artist fallback search failed", "error", err)
		return nil
	}

	var recs []models.Recommendation
	for _, t := range tracks {
		if t.ID == seedID {
			continue
		}
		recs = append(recs, toRecommendation(t, ArtistFallbackSimilarity, artistFallbackReason))
	}

	logger.Debug("tier complete", "tier", 4, "count", len(recs))
	return recs
}

func toRecommendation(t SpotifyTrack, similarity float64, reason string) models.Recommendation {
	track := toTrack(t)
	return models.Recommendation{
		ID:         track.ID,
		Name:       track.Name,
		Artist:     track.Artist,
		Similarity: similarity,
		Reason:     reason,
		PreviewURL: track.PreviewURL,
	}
}

// dedupe keeps the first occurrence of each id, drops seedID and empty ids, and caps the result at limit.
func dedupe(recs []models.Recommendation, seedID string, limit int) []models.Recommendation {
	seen := make(map[string]struct{}, len(recs))
	out := make([]models.Recommendation, 0, min(len(recs), limit))
	for _, rec := range recs {
		if len(out) == limit {
			break
		}
		id := strings.TrimSpace(rec.ID)
		if id == "" || id == seedID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
