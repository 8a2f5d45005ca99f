// Package services implements the music catalog client, the recommendation strategy and the HTTP client for the songrec API.
//
// # Catalog Interface
//
// [Catalog] abstracts the read-only Spotify Web API calls the recommender needs, so tests substitute a fake.
//
// # Spotify Implementation
//
// [SpotifyService] authenticates the application (not a user) with the OAuth2 client credentials flow.
// The [clientcredentials.Config] client fetches and renews the app token transparently.
//
// Requests are paced with a token bucket ([rate.Limiter]) and retried with exponential backoff on 429 and 5xx responses,
// honouring Retry-After when Spotify sends one.
//
// # Recommendation Strategy
//
// [Recommender] combines four tiers, stopping early once it has enough results:
//  1. the artist's top tracks (similarity 90)
//  2. top tracks of related artists (85)
//  3. Spotify's seeded recommendations (80)
//  4. other songs found by searching the artist's name (70)
//
// Results are de-duplicated by track id with earlier tiers winning, never include the seed track,
// and are capped at the configured limit. A failing tier is logged and contributes nothing.
//
// # API Client
//
// [APIService] speaks the two JSON endpoints (POST /search, POST /recommend) served by the server package.
// It is the network client behind the page controller, the TUI and the search/recommend commands.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrDecodeResponse] : response body was not the expected JSON
//   - [shared.ErrTrackNotFound] : track ID not found
package services
