// package services defines the music catalog, recommendation strategy and API client used by songrec
//
// Spotify (catalog), Recommender (four-tier strategy), APIService (client for /search and /recommend)
package services

import (
	"context"

	"github.com/desertthunder/songrec/internal/models"
)

// Catalog defines the read-only music catalog operations the [Recommender] is built on.
type Catalog interface {
	// SearchTracks runs a free-text track search and returns at most limit results.
	SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error)

	// Track retrieves a single track by ID.
	// Returns [shared.ErrTrackNotFound] when the ID is unknown.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// Artist retrieves an artist, including genres, by ID.
	Artist(ctx context.Context, artistID string) (*SpotifyArtist, error)

	// ArtistTopTracks retrieves an artist's most popular tracks.
	ArtistTopTracks(ctx context.Context, artistID string) ([]SpotifyTrack, error)

	// RelatedArtists retrieves artists similar to the given one.
	RelatedArtists(ctx context.Context, artistID string) ([]SpotifyArtist, error)

	// Recommendations retrieves tracks seeded from seed.
	Recommendations(ctx context.Context, seed RecommendationSeed) ([]SpotifyTrack, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

// RecommendationSeed carries the parameters of a seeded recommendation lookup.
type RecommendationSeed struct {
	TrackIDs      []string
	Genres        []string
	Limit         int
	MinPopularity int
}

// toTrack maps a catalog track onto the wire [models.Track].
func toTrack(t SpotifyTrack) models.Track {
	track := models.Track{ID: t.ID, Name: t.Name, Artist: t.PrimaryArtist().Name}
	if t.PreviewURL != nil {
		track.PreviewURL = *t.PreviewURL
	}
	return track
}
