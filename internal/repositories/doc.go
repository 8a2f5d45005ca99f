// Package repositories implements SQLite persistence for the songrec request logs.
//
// Key Implementations:
//   - [SearchLogRepository] : queries served by POST /search, listed by the `history` command
//   - [RecommendLogRepository] : track ids served by POST /recommend
//   - [Recorder] : adapter the HTTP API uses to log requests without depending on either repository directly
//
// Schema lives in the embedded migrations of the shared package; callers run [shared.RunMigrations] first.
package repositories
