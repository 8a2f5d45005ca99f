package page

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/shared"
)

// Messages shown in the error region.
const (
	MsgEmptyQuery        = "Please enter a song name"
	MsgNoSongs           = "No songs found. Try a different search."
	MsgConnectFailed     = "Failed to connect to server"
	MsgNoRecommendations = "Could not find similar songs. Please try another track."
	MsgRecommendFailed   = "Failed to get recommendations"
)

// DefaultSelectPath is the endpoint track cards post to when clicked.
const DefaultSelectPath = "/ui/select"

// Toggle is an element that can be shown or hidden.
type Toggle interface {
	SetVisible(visible bool)
}

// Input is a text field.
type Input interface {
	Value() string
}

// Button is the search trigger.
type Button interface {
	SetDisabled(disabled bool)
}

// Region is a container whose content is replaced wholesale.
type Region interface {
	Toggle
	SetHTML(html template.HTML)
}

// Section is a toggleable container that can be brought into view.
type Section interface {
	Toggle
	ScrollIntoView()
}

// Elements holds the page elements the controller writes to. All are required.
type Elements struct {
	SearchInput            Input
	SearchButton           Button
	SearchResults          Region
	RecommendationsSection Section
	RecommendationsList    Region
	LoadingSpinner         Toggle
}

func (e Elements) validate() error {
	missing := []string{}
	if e.SearchInput == nil {
		missing = append(missing, "search input")
	}
	if e.SearchButton == nil {
		missing = append(missing, "search button")
	}
	if e.SearchResults == nil {
		missing = append(missing, "search results")
	}
	if e.RecommendationsSection == nil {
		missing = append(missing, "recommendations section")
	}
	if e.RecommendationsList == nil {
		missing = append(missing, "recommendations list")
	}
	if e.LoadingSpinner == nil {
		missing = append(missing, "loading spinner")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", shared.ErrMissingElement, strings.Join(missing, ", "))
	}
	return nil
}

// Client calls the search and recommendation endpoints.
//
// An error means the call could not be completed or its body could not be decoded;
// application failures are reported through the response's Success and Error fields.
type Client interface {
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
	Recommend(ctx context.Context, trackID string) (*models.RecommendResponse, error)
}

// Options configures a [Controller].
type Options struct {
	Logger     *log.Logger
	SelectPath string // target of the hx-post on each track card
}

// Controller coordinates the search and recommendation flows of one page.
//
// Methods are safe for concurrent use. Network calls are made without holding the lock.
type Controller struct {
	el         Elements
	client     Client
	logger     *log.Logger
	selectPath string

	mu         sync.Mutex
	state      State
	searchSeq  uint64
	recSeq     uint64
	searchBusy bool
	recBusy    bool
	loading    bool
	showRecs   bool
	tracks     []models.Track
	recs       []models.Recommendation
	activeID   string
	errMsg     string
}

// New creates a Controller over elements. Returns [shared.ErrMissingElement] if any element is nil.
func New(elements Elements, client Client, opts Options) (*Controller, error) {
	if err := elements.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: client", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.SelectPath == "" {
		opts.SelectPath = DefaultSelectPath
	}

	return &Controller{
		el:         elements,
		client:     client,
		logger:     opts.Logger,
		selectPath: opts.SelectPath,
		state:      Idle,
	}, nil
}

// Search reads the search input and renders the matching tracks.
func (c *Controller) Search(ctx context.Context) {
	c.mu.Lock()
	query := strings.TrimSpace(c.el.SearchInput.Value())

	// any new search, valid or not, supersedes what is in flight
	c.searchSeq++
	c.recSeq++
	c.recBusy = false
	seq, recSeq := c.searchSeq, c.recSeq

	if query == "" {
		c.searchBusy = false
		c.syncLoading()
		c.showError(MsgEmptyQuery)
		c.mu.Unlock()
		return
	}

	c.searchBusy = true
	c.clearRecommendations()
	c.state = LoadingSearch
	c.syncLoading()
	c.mu.Unlock()

	c.logger.Debug("searching", "query", query, "seq", seq)
	resp, err := c.client.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.searchSeq {
		c.logger.Debug("dropping stale search response", "query", query, "seq", seq)
		return
	}
	c.searchBusy = false
	defer c.syncLoading()

	// a recommendation started while searching belongs to results this response replaces
	if c.recSeq != recSeq {
		c.logger.Debug("search supersedes recommendations", "query", query, "seq", seq)
		c.recSeq++
		c.recBusy = false
		c.clearRecommendations()
	}

	switch {
	case err != nil:
		c.logger.Error("search request failed", "query", query, "error", err)
		c.showError(MsgConnectFailed)
	case resp == nil:
		c.logger.Error("search request returned no response", "query", query)
		c.showError(MsgConnectFailed)
	case !resp.Success || len(resp.Tracks) == 0:
		c.showError(orDefault(resp.Error, MsgNoSongs))
	default:
		c.tracks = slices.Clone(resp.Tracks)
		c.activeID = ""
		c.errMsg = ""
		c.renderResults()
		c.state = ShowingResults
	}
}

// SelectTrack marks the card for trackID active and loads its recommendations.
//
// An empty trackID is logged and ignored.
func (c *Controller) SelectTrack(ctx context.Context, trackID string) {
	if trackID == "" {
		c.logger.Warn("selected card has no track id")
		return
	}

	c.mu.Lock()
	c.activeID = trackID
	if len(c.tracks) > 0 {
		c.renderResults()
	}
	c.mu.Unlock()

	c.Recommend(ctx, trackID)
}

// Recommend loads and renders recommendations for trackID.
func (c *Controller) Recommend(ctx context.Context, trackID string) {
	c.mu.Lock()
	c.recSeq++
	seq := c.recSeq
	c.recBusy = true
	c.clearRecommendations()
	c.state = LoadingRecommendations
	c.syncLoading()
	c.mu.Unlock()

	c.logger.Debug("requesting recommendations", "track_id", trackID, "seq", seq)
	resp, err := c.client.Recommend(ctx, trackID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.recSeq {
		c.logger.Debug("dropping stale recommendations", "track_id", trackID, "seq", seq)
		return
	}
	c.recBusy = false
	defer c.syncLoading()

	switch {
	case err != nil:
		c.logger.Error("recommend request failed", "track_id", trackID, "error", err)
		c.showError(MsgRecommendFailed)
	case resp == nil:
		c.logger.Error("recommend request returned no response", "track_id", trackID)
		c.showError(MsgRecommendFailed)
	case !resp.Success || len(resp.Recommendations) == 0:
		c.showError(orDefault(resp.Error, MsgNoRecommendations))
	default:
		c.recs = slices.Clone(resp.Recommendations)
		c.el.RecommendationsList.SetHTML(c.render("recommendations", c.recs))
		c.el.RecommendationsSection.SetVisible(true)
		c.showRecs = true
		c.el.RecommendationsSection.ScrollIntoView()
		c.state = ShowingRecommendations
	}
}

// ShowLoading shows or hides the loading indicator and disables or enables the search trigger with it.
func (c *Controller) ShowLoading(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showLoading(show)
}

// ShowError replaces the search results with a warning box and hides the recommendations section.
func (c *Controller) ShowError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showError(message)
}

// Snapshot returns a copy of what the page currently displays.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:                  c.state,
		Loading:                c.loading,
		Tracks:                 slices.Clone(c.tracks),
		ActiveID:               c.activeID,
		Recommendations:        slices.Clone(c.recs),
		RecommendationsVisible: c.showRecs,
		Error:                  c.errMsg,
	}
}

func (c *Controller) showLoading(show bool) {
	c.loading = show
	c.el.LoadingSpinner.SetVisible(show)
	c.el.SearchButton.SetDisabled(show)
}

// syncLoading shows the indicator while the latest request of either flow is outstanding.
func (c *Controller) syncLoading() {
	c.showLoading(c.searchBusy || c.recBusy)
}

func (c *Controller) showError(message string) {
	c.errMsg = message
	c.tracks = nil
	c.activeID = ""
	c.el.SearchResults.SetHTML(c.render("error", message))
	c.clearRecommendations()
	c.state = Error
}

func (c *Controller) clearRecommendations() {
	c.recs = nil
	c.showRecs = false
	c.el.RecommendationsSection.SetVisible(false)
	c.el.RecommendationsList.SetHTML("")
}

func (c *Controller) renderResults() {
	c.el.SearchResults.SetHTML(c.render("tracks", resultsView{
		Tracks:     c.tracks,
		ActiveID:   c.activeID,
		SelectPath: c.selectPath,
	}))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
