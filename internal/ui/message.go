package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchDone MsgKind = iota
	MsgRecommendDone
)

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(query string) Msg {
	return Msg{kind: MsgSearchDone, data: query}
}

// recommendDoneMsg is the constructor for [MsgRecommendDone]
func recommendDoneMsg(trackID string) Msg {
	return Msg{kind: MsgRecommendDone, data: trackID}
}
