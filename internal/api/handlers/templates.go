package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home.html", "chat.html", "locations.html", "about.html", "sources.html",
	"dashboard.html", "table.html",
}

var templateFuncs = template.FuncMap{
	// share scales count against the largest count in items, for bar widths.
	"share": func(count int, items []services.LabelCount) int {
		top := 0
		for _, it := range items {
			if it.Count > top {
				top = it.Count
			}
		}
		if top == 0 {
			return 0
		}
		return count * 100 / top
	},
	"date": func(t time.Time) string {
		return t.Format(services.DateLayout)
	},
	"mapURL": func(s entities.School) string {
		return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.4f&mlon=%.4f#map=17/%.4f/%.4f",
			s.Latitude, s.Longitude, s.Latitude, s.Longitude)
	},
	"selected": func(cols []string, c string) bool {
		for _, v := range cols {
			if v == c {
				return true
			}
		}
		return false
	},
	// query output is already encoded, so it must not be escaped again.
	"query": func(v url.Values) template.URL {
		return template.URL(v.Encode())
	},
}

// pageData is what every page template receives.
type pageData struct {
	Title  string
	Active string
	Data   interface{}
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	t, ok := rd.pages[name]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
