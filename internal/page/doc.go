// Package page implements the search and recommendation page controller.
//
// A [Controller] owns six page elements, injected through [Elements], and a [Client] for the two JSON
// endpoints. It turns a typed query into track cards and a selected card into recommendation cards,
// sharing one loading indicator and one error region between both flows.
//
// # Elements
//
// Elements are narrow interfaces ([Input], [Button], [Region], [Section], [Toggle]) so the same
// controller drives the server-rendered HTMX page and the terminal UI. The dom package provides
// in-memory implementations for both and for tests.
//
// # Request Ordering
//
// Every request carries a sequence number for its flow. A search supersedes both flows, a
// recommendation supersedes only earlier recommendations. Replies to superseded requests are
// dropped without touching the page, so a slow response never overwrites a newer one.
//
// # Rendering
//
// Fragments are rendered with html/template from the embedded templates directory; track names,
// artists, reasons and error messages are always escaped and preview URLs are sanitised.
package page
