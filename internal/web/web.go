// Package web serves the search and recommendation page over HTMX.
//
// The page controller from package page runs on the server against an in-memory document from
// package dom. Each HTMX request feeds the user's input into the controller and answers with the
// re-rendered #app region, so the browser only ever swaps server-rendered HTML.
//
// Routes
//
//	GET  /                      → full page, opens a new page
//	POST /ui/search             → form post with "query"; returns #app
//	POST /ui/select?track_id=ID → card click; returns #app
//
// # Pages
//
// Every GET / opens a fresh page: its own document and controller, keyed by a uuid that #app
// carries in hx-vals, so each HTMX post names the page it came from. A reload therefore starts
// from an empty page and two browsers never see each other's state. Pages live in an expiring
// LRU; a post for an unknown or expired page gets a fresh one. Requests for the same page are
// serialized, requests for different pages are not.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songrec/internal/dom"
	"github.com/desertthunder/songrec/internal/page"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	SearchPath = "/ui/search"
	SelectPath = page.DefaultSelectPath

	// ScrollEvent is raised through HX-Trigger-After-Settle when new recommendations should be scrolled into view.
	ScrollEvent = "scrollRecommendations"

	// PageParam is the form value naming the page a post belongs to.
	PageParam = "page"
	// PageIDHeader echoes the page a response was rendered for.
	PageIDHeader = "X-Page-ID"
)

const (
	defaultMaxPages = 1024
	defaultPageTTL  = 30 * time.Minute
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type appView struct {
	PageID              string
	PageParam           string
	SearchPath          string
	Query               string
	Disabled            bool
	Loading             bool
	Results             template.HTML
	ShowRecommendations bool
	Recommendations     template.HTML
}

// pageSession is one open page: a document and the controller driving it.
type pageSession struct {
	id   string
	doc  *dom.Document
	ctrl *page.Controller

	mu      sync.Mutex
	scrolls int
}

// Options configures a [Handler].
type Options struct {
	Logger   *log.Logger
	MaxPages int           // open pages kept before the least recently used is dropped (default 1024)
	PageTTL  time.Duration // idle time before a page expires (default 30m)
}

// Handler serves the page and its HTMX endpoints.
type Handler struct {
	client page.Client
	logger *log.Logger
	pages  *expirable.LRU[string, *pageSession]
	mux    *http.ServeMux
}

// NewHandler creates the page handler over client.
func NewHandler(client page.Client, opts Options) (*Handler, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.PageTTL <= 0 {
		opts.PageTTL = defaultPageTTL
	}

	h := &Handler{client: client, logger: opts.Logger, mux: http.NewServeMux()}
	h.pages = expirable.NewLRU[string, *pageSession](opts.MaxPages, func(id string, _ *pageSession) {
		h.logger.Debug("page closed", "page", id)
	}, opts.PageTTL)

	h.mux.HandleFunc("GET /{$}", h.index)
	h.mux.HandleFunc("POST "+SearchPath, h.search)
	h.mux.HandleFunc("POST "+SelectPath, h.selectTrack)
	return h, nil
}

// Routes returns the HTTP routes this handler serves.
func (h *Handler) Routes() []string {
	return []string{"GET /{$}", "POST " + SearchPath, "POST " + SelectPath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Page returns the controller of the open page id, or nil if there is none.
func (h *Handler) Page(id string) *page.Controller {
	p, ok := h.pages.Peek(id)
	if !ok {
		return nil
	}
	return p.ctrl
}

// Pages reports how many pages are open.
func (h *Handler) Pages() int {
	return h.pages.Len()
}

func (h *Handler) newPage() (*pageSession, error) {
	doc := dom.NewDocument()
	id := shared.GenerateID()
	ctrl, err := page.New(doc.Elements(), h.client, page.Options{
		Logger:     shared.WithLogger(h.logger, "component", "page", "page", id),
		SelectPath: SelectPath,
	})
	if err != nil {
		return nil, err
	}

	p := &pageSession{id: id, doc: doc, ctrl: ctrl}
	h.pages.Add(id, p)
	h.logger.Debug("page opened", "page", id, "open", h.pages.Len())
	return p, nil
}

// lookup returns the page a post names, opening a fresh one when it is unknown or expired.
func (h *Handler) lookup(r *http.Request) (*pageSession, error) {
	id := r.FormValue(PageParam)
	if p, ok := h.pages.Get(id); ok {
		// re-adding restarts the idle timer
		h.pages.Add(id, p)
		return p, nil
	}
	if id != "" {
		h.logger.Info("unknown page, opening a new one", "page", id)
	}
	return h.newPage()
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	p, err := h.newPage()
	if err != nil {
		h.fail(w, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h.render(w, p, "layout")
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p, err := h.lookup(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.doc.SearchInput.SetValue(r.PostFormValue("query"))
	p.ctrl.Search(r.Context())
	h.render(w, p, "app")
}

func (h *Handler) selectTrack(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookup(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.ctrl.SelectTrack(r.Context(), r.FormValue("track_id"))
	h.render(w, p, "app")
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("failed to open page", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// render writes the named template from p's document. Callers hold p.mu.
func (h *Handler) render(w http.ResponseWriter, p *pageSession, name string) {
	view := appView{
		PageID:              p.id,
		PageParam:           PageParam,
		SearchPath:          SearchPath,
		Query:               p.doc.SearchInput.Value(),
		Disabled:            p.doc.SearchButton.Disabled(),
		Loading:             p.doc.LoadingSpinner.Visible(),
		Results:             p.doc.SearchResults.HTML(),
		ShowRecommendations: p.doc.RecommendationsSection.Visible(),
		Recommendations:     p.doc.RecommendationsList.HTML(),
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		h.logger.Error("failed to render page", "template", name, "page", p.id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if scrolls := p.doc.RecommendationsSection.ScrollCount(); scrolls != p.scrolls {
		p.scrolls = scrolls
		w.Header().Set("HX-Trigger-After-Settle", ScrollEvent)
	}

	w.Header().Set(PageIDHeader, p.id)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
