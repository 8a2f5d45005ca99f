// Package server provides HTTP routing, middleware and the JSON API for songrec.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally; routes are registered with method
// patterns, so the mux answers 405 for the wrong method.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # JSON API
//
// [APIHandler] serves the endpoints the page controller consumes:
//
//	POST /search     {"query": "..."}    → {"success": true, "tracks": [...]}
//	POST /recommend  {"track_id": "..."} → {"success": true, "recommendations": [...]}
//	GET  /health                         → {"status": "ok"}
//
// Failures are reported in the body with success=false and a fixed message.
//
// # Middleware
//
// [RequestID], [Logging] and [Recover] are installed by the serve command in that order.
//
// [Server] runs the router until its context is canceled and then shuts down gracefully.
package server
