package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/dom"
	"github.com/desertthunder/songrec/internal/page"
	"github.com/desertthunder/songrec/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	RecommendationsView
)

// Model represents the TUI application state.
//
// Displayed data lives in the controller; the model only keeps widgets and the view the user is in.
type Model struct {
	ctx       context.Context
	view      ViewState
	doc       *dom.Document
	ctrl      *page.Controller
	logger    *log.Logger
	width     int
	height    int
	pending   int
	input     textinput.Model
	spinner   spinner.Model
	trackList list.Model
	recList   list.Model
	help      help.Model
	keys      keyMap
}

// NewModel creates a TUI model whose page controller talks to client.
func NewModel(ctx context.Context, client page.Client, logger *log.Logger) (*Model, error) {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	doc := dom.NewDocument()
	ctrl, err := page.New(doc.Elements(), client, page.Options{
		Logger: shared.WithLogger(logger, "component", "page"),
	})
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Placeholder = "Search for a song..."
	input.CharLimit = 200
	input.Prompt = "♪ "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.ok

	return &Model{
		ctx:       ctx,
		view:      SearchView,
		doc:       doc,
		ctrl:      ctrl,
		logger:    logger,
		input:     input,
		spinner:   spin,
		trackList: newList("Search Results"),
		recList:   newList("Similar Songs"),
		help:      help.New(),
		keys:      newKeyMap(),
	}, nil
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

// Controller returns the page controller driven by this model.
func (m *Model) Controller() *page.Controller {
	return m.ctrl
}

// ViewState returns the view the user is currently in.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init starts the cursor blinking in the search field.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-10)
		m.recList.SetSize(msg.Width-4, msg.Height-12)
		m.input.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case RecommendationsView:
			return m.handleRecommendationsKeys(msg)
		}

	case spinner.TickMsg:
		if m.pending == 0 && !m.ctrl.Snapshot().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}

	snap := m.ctrl.Snapshot()
	cmds := []tea.Cmd{
		m.trackList.SetItems(trackItems(snap.Tracks, snap.ActiveID)),
		m.recList.SetItems(recommendationItems(snap.Recommendations)),
	}

	switch msg.kind {
	case MsgSearchDone:
		m.logger.Debug("search finished", "query", msg.data, "state", snap.State, "tracks", len(snap.Tracks))
		if snap.State == page.ShowingResults {
			m.trackList.Select(0)
			m.setView(ResultsView)
		}
	case MsgRecommendDone:
		m.logger.Debug("recommendations finished", "track_id", msg.data, "state", snap.State, "count", len(snap.Recommendations))
		if snap.State == page.ShowingRecommendations {
			m.recList.Select(0)
			m.setView(RecommendationsView)
		}
	}

	if snap.State == page.Error {
		m.setView(SearchView)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.doc.SearchInput.SetValue(m.input.Value())
		return m, m.search()
	case "esc":
		if len(m.trackList.Items()) > 0 {
			m.setView(ResultsView)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search), key.Matches(msg, m.keys.back):
		m.setView(SearchView)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.toggle):
		if len(m.recList.Items()) > 0 {
			m.setView(RecommendationsView)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.selectTrack(item.track.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleRecommendationsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.setView(SearchView)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.toggle):
		m.setView(ResultsView)
		return m, nil
	}

	var cmd tea.Cmd
	m.recList, cmd = m.recList.Update(msg)
	return m, cmd
}

func (m *Model) setView(v ViewState) {
	m.view = v
	if v == SearchView {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// search runs the controller's search flow off the update loop.
func (m *Model) search() tea.Cmd {
	m.pending++
	query := m.input.Value()
	run := func() tea.Msg {
		m.ctrl.Search(m.ctx)
		return searchDoneMsg(query)
	}
	return tea.Batch(m.spinner.Tick, run)
}

// selectTrack marks trackID active right away and loads its recommendations off the update loop.
func (m *Model) selectTrack(trackID string) tea.Cmd {
	m.pending++
	idx := m.trackList.Index()
	items := make([]list.Item, 0, len(m.trackList.Items()))
	for _, it := range m.trackList.Items() {
		if t, ok := it.(trackItem); ok {
			t.active = t.track.ID == trackID
			it = t
		}
		items = append(items, it)
	}
	setCmd := m.trackList.SetItems(items)
	m.trackList.Select(idx)

	run := func() tea.Msg {
		m.ctrl.SelectTrack(m.ctx, trackID)
		return recommendDoneMsg(trackID)
	}
	return tea.Batch(setCmd, m.spinner.Tick, run)
}

// View renders the UI from the controller's current snapshot.
func (m *Model) View() string {
	snap := m.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(styles.title.Render("Song Recommendations"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if snap.Loading {
		b.WriteString("  " + m.spinner.View() + styles.help.Render(" Loading..."))
	}
	b.WriteString("\n\n")

	switch {
	case snap.Error != "":
		b.WriteString(styles.alert.Render(styles.err.Render("Oops!") + " " + snap.Error))
		b.WriteString("\n")
	case m.view == RecommendationsView && snap.RecommendationsVisible:
		b.WriteString(m.renderRecommendations())
	case len(snap.Tracks) > 0:
		b.WriteString(m.trackList.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderRecommendations() string {
	out := m.recList.View() + "\n"
	item, ok := m.recList.SelectedItem().(recommendationItem)
	if !ok {
		return out
	}
	if item.rec.HasPreview() {
		return out + styles.ok.Render("Preview: ") + item.rec.PreviewURL + "\n"
	}
	return out + styles.warn.Render("No preview available") + "\n"
}

func (m *Model) renderHelp() string {
	var bindings []key.Binding
	switch m.view {
	case SearchView:
		enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))
		quit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
		bindings = []key.Binding{enter, m.keys.back, quit}
	case ResultsView:
		similar := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "find similar"))
		bindings = []key.Binding{m.keys.up, m.keys.down, similar, m.keys.search, m.keys.toggle, m.keys.quit}
	case RecommendationsView:
		bindings = []key.Binding{m.keys.up, m.keys.down, m.keys.back, m.keys.search, m.keys.quit}
	}
	return m.help.ShortHelpView(bindings)
}

// String describes the view for logging.
func (v ViewState) String() string {
	switch v {
	case SearchView:
		return "search"
	case ResultsView:
		return "results"
	case RecommendationsView:
		return "recommendations"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}
