package page

import (
	"bytes"
	"embed"
	"html/template"
	"net/url"

	"github.com/desertthunder/songrec/internal/formatter"
	"github.com/desertthunder/songrec/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"queryEscape": url.QueryEscape,
	"similarity":  formatter.FormatSimilarity,
}).ParseFS(templateFS, "templates/*.html"))

type resultsView struct {
	Tracks     []models.Track
	ActiveID   string
	SelectPath string
}

// render executes the named fragment. A failure is logged and renders nothing.
func (c *Controller) render(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		c.logger.Error("failed to render fragment", "template", name, "error", err)
		return ""
	}
	return template.HTML(buf.String())
}
