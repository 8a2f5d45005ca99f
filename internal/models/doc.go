// Package models defines the wire and domain types shared by the songrec API, its clients and front ends.
//
// Data Transfer Objects travel over the two JSON endpoints:
//   - [SearchRequest] / [SearchResponse] : POST /search
//   - [RecommendRequest] / [RecommendResponse] : POST /recommend
//
// [Track] and [Recommendation] are the flat records carried in those responses.
// [SearchLogEntry] is the only persisted entity and backs the `history` command.
package models
