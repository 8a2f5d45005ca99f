// Package dom provides an in-memory page for the controller in package page.
//
// Each [Element] records what the controller wrote to it (HTML content, visibility, disabled state,
// scroll requests) so a front end can render it and tests can assert on it.
package dom

import (
	"html/template"
	"sync"

	"github.com/desertthunder/songrec/internal/page"
)

// Element ids used by the page layout.
const (
	SearchInputID            = "search-input"
	SearchButtonID           = "search-button"
	SearchResultsID          = "search-results"
	RecommendationsSectionID = "recommendations"
	RecommendationsListID    = "recommendations-list"
	LoadingSpinnerID         = "loading"
)

// Element is a single in-memory page element. The zero value is a visible, enabled, empty element.
type Element struct {
	id string

	mu       sync.RWMutex
	value    string
	html     template.HTML
	hidden   bool
	disabled bool
	scrolls  int
}

// NewElement creates an element with the given id.
func NewElement(id string) *Element {
	return &Element{id: id}
}

func (e *Element) ID() string { return e.id }

func (e *Element) Value() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.value
}

// SetValue sets the text of an input element, as a user typing would.
func (e *Element) SetValue(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
}

func (e *Element) HTML() template.HTML {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.html
}

func (e *Element) SetHTML(html template.HTML) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.html = html
}

func (e *Element) Visible() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.hidden
}

func (e *Element) SetVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = !visible
}

func (e *Element) Disabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disabled
}

func (e *Element) SetDisabled(disabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disabled = disabled
}

// ScrollIntoView records a scroll request; ScrollCount reports how many were made.
func (e *Element) ScrollIntoView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrolls++
}

func (e *Element) ScrollCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scrolls
}

// Document is the set of elements the page controller needs, in their initial state:
// the recommendations section and loading indicator start hidden.
type Document struct {
	SearchInput            *Element
	SearchButton           *Element
	SearchResults          *Element
	RecommendationsSection *Element
	RecommendationsList    *Element
	LoadingSpinner         *Element
}

// NewDocument creates a Document in its initial state.
func NewDocument() *Document {
	d := &Document{
		SearchInput:            NewElement(SearchInputID),
		SearchButton:           NewElement(SearchButtonID),
		SearchResults:          NewElement(SearchResultsID),
		RecommendationsSection: NewElement(RecommendationsSectionID),
		RecommendationsList:    NewElement(RecommendationsListID),
		LoadingSpinner:         NewElement(LoadingSpinnerID),
	}
	d.RecommendationsSection.SetVisible(false)
	d.LoadingSpinner.SetVisible(false)
	return d
}

// Elements returns the document's elements for [page.New].
func (d *Document) Elements() page.Elements {
	return page.Elements{
		SearchInput:            d.SearchInput,
		SearchButton:           d.SearchButton,
		SearchResults:          d.SearchResults,
		RecommendationsSection: d.RecommendationsSection,
		RecommendationsList:    d.RecommendationsList,
		LoadingSpinner:         d.LoadingSpinner,
	}
}
