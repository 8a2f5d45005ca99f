// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a terminal rendition of the search page. It owns an in-memory document from package dom
// and drives the same page controller as the web front end:
//  1. [SearchView] : type a song name and press enter
//  2. [ResultsView] : pick a track to load similar songs
//  3. [RecommendationsView] : browse the similar songs with match percentage, reason and preview link
//
// Controller calls block on the network, so they run as tea.Cmds and report back with the Msg union.
// Every view is drawn from the controller's Snapshot, which keeps the terminal consistent with what
// the controller has decided, stale responses included.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
