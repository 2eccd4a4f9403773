package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/neexbeast/vacation-planner/internal/vacation"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var pageNames = []string{"index", "result", "about", "error"}

// Views holds one parsed template set per page, each combined with the layout.
type Views struct {
	pages map[string]*template.Template
}

// pageData is the single view model passed to every page.
type pageData struct {
	Caller        *vacation.Caller
	ActivityTypes []string
	VacationTypes []string
	Itinerary     *vacation.Itinerary
	Error         string
}

var viewFuncs = template.FuncMap{
	"join": strings.Join,
	"precip": func(p *string) string {
		if p == nil {
			return "none"
		}
		return *p
	},
	"day":   func(t time.Time) string { return t.Format(dateLayout) },
	"asset": hasAsset,
}

// hasAsset reports whether a /static/ path is served from the embedded assets.
func hasAsset(ref string) bool {
	name, ok := strings.CutPrefix(ref, "/static/")
	if !ok || !fs.ValidPath(name) {
		return false
	}
	_, err := fs.Stat(staticFiles, "static/"+name)
	return err == nil
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(viewFuncs).ParseFS(templateFiles,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// execute runs the page into a buffer and writes it with the given status.
// Nothing is written when execution fails.
func (v *Views) execute(w http.ResponseWriter, status int, page string, data pageData) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
