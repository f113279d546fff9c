package handlers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

// DashboardService defines the dashboard operations used by the handler.
type DashboardService interface {
	DefaultRange(ctx context.Context) services.DateRange
	Summary(ctx context.Context, rng services.DateRange) (*services.Summary, error)
	BrowseTable(ctx context.Context, table string, columns []string, limit int) (*services.TableView, error)
	ExportCSV(ctx context.Context, w io.Writer, table string, columns []string, limit int) error
}

// DashboardHandler serves the password-gated analytics pages.
type DashboardHandler struct {
	service DashboardService
	render  *renderer
}

func NewDashboardHandler(service DashboardService) (*DashboardHandler, error) {
	rd, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{service: service, render: rd}, nil
}

type dashboardPage struct {
	Range   services.DateRange
	Summary *services.Summary
	Error   string
	Tables  []repositories.Table
}

type tablePage struct {
	View  *services.TableView
	Limit int
	Query url.Values
}

// Dashboard handles GET /dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{Tables: repositories.Tables()}

	rng, err := h.dateRange(r)
	if err != nil {
		page.Range = h.service.DefaultRange(r.Context())
		page.Error = apperrors.PublicMessage(err)
		h.render.render(w, r, http.StatusBadRequest, "dashboard.html", pageData{Title: "Dashboard", Data: page})
		return
	}
	page.Range = rng

	// On storage errors the page still renders with an empty summary
	summary, err := h.service.Summary(r.Context(), rng)
	page.Summary = summary
	if err != nil {
		page.Error = "Error loading analytics: " + apperrors.PublicMessage(err)
	}
	h.render.render(w, r, http.StatusOK, "dashboard.html", pageData{Title: "Dashboard", Data: page})
}

// Summary handles GET /api/dashboard/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), rng)
	if err != nil {
		respondWithJSON(w, apperrors.HTTPStatus(err), map[string]interface{}{
			"error":   apperrors.PublicMessage(err),
			"summary": summary,
		})
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// BrowseTable handles GET /dashboard/tables/{table}
func (h *DashboardHandler) BrowseTable(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	view, err := h.service.BrowseTable(r.Context(), r.PathValue("table"), query["columns"], limit)
	if err != nil {
		http.Error(w, apperrors.PublicMessage(err), apperrors.HTTPStatus(err))
		return
	}

	// Mirror the service's clamping so the export link matches the view
	switch {
	case limit <= 0:
		limit = services.DefaultBrowseLimit
	case limit > services.MaxBrowseLimit:
		limit = services.MaxBrowseLimit
	}
	exportQuery := url.Values{"columns": view.Columns, "limit": {strconv.Itoa(limit)}}
	h.render.render(w, r, http.StatusOK, "table.html", pageData{
		Title: "Table " + string(view.Table),
		Data:  tablePage{View: view, Limit: limit, Query: exportQuery},
	})
}

// ExportCSV handles GET /dashboard/tables/{table}/export.csv
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	table := r.PathValue("table")

	if _, ok := repositories.ParseTable(table); !ok {
		http.Error(w, "unknown table", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+table+`.csv"`)
	if err := h.service.ExportCSV(r.Context(), w, table, query["columns"], limit); err != nil {
		// Column and storage errors surface before any row is written
		w.Header().Del("Content-Disposition")
		http.Error(w, apperrors.PublicMessage(err), apperrors.HTTPStatus(err))
		return
	}
}

func (h *DashboardHandler) dateRange(r *http.Request) (services.DateRange, error) {
	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	// Missing bounds default to the stored data range
	def := services.DateRange{}
	if from == "" || to == "" {
		def = h.service.DefaultRange(r.Context())
	}
	return services.ParseDateRange(from, to, def)
}
