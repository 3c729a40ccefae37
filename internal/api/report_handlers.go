package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/filter"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/lookup"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/session"
)

// ReportHandler serves the report catalogue and report sessions
type ReportHandler struct {
	registry *reports.Registry
	store    *session.Store
	lookups  *lookup.Service
	exporter *export.Exporter
}

// NewReportHandler creates a new report handler
func NewReportHandler(registry *reports.Registry, store *session.Store, lookups *lookup.Service, exporter *export.Exporter) *ReportHandler {
	return &ReportHandler{
		registry: registry,
		store:    store,
		lookups:  lookups,
		exporter: exporter,
	}
}

// Mount registers the report routes on r
func (h *ReportHandler) Mount(r chi.Router) {
	r.Get("/reports", h.ListReports)
	r.Get("/reports/{type}/lookups", h.GetLookups)
	r.Post("/reports/{type}/sessions", h.CreateSession)
	r.Get("/export/formats", GetExportFormats)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetView)
		r.Delete("/", h.DeleteSession)
		r.Post("/generate", h.Generate)
		r.Post("/drill", h.Drill)
		r.Post("/fold", h.Fold)
		r.Post("/reset", h.Reset)
		r.Get("/export", h.Export)
		r.Get("/print", h.Print)
	})
}

type reportInfo struct {
	Key            string   `json:"key"`
	Title          string   `json:"title"`
	BranchRequired bool     `json:"branch_required"`
	PageSize       int      `json:"page_size"`
	Ranges         []string `json:"ranges"`
	ExactDate      bool     `json:"exact_date"`
	DateRange      bool     `json:"date_range"`
}

// ListReports returns the available report types
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	defs := h.registry.List()
	out := make([]reportInfo, 0, len(defs))
	for _, d := range defs {
		info := reportInfo{
			Key:            d.Key,
			Title:          d.Title,
			BranchRequired: d.BranchRequired,
			PageSize:       d.PageSize,
			Ranges:         []string{},
			ExactDate:      d.ExactDateField != "",
			DateRange:      d.DateRangeField != "",
		}
		for _, rc := range d.Ranges {
			info.Ranges = append(info.Ranges, rc.Criterion)
		}
		out = append(out, info)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": out,
		"count":   len(out),
	})
}

// GetLookups returns branches, products and institute for a report type
func (h *ReportHandler) GetLookups(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.Get(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	l, err := h.lookups.Load(r.Context(), def.Category)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// CreateSession opens a report session
func (h *ReportHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.Get(chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	s := h.store.Create(def)
	s.SetInstitute(h.lookups.InstituteName(r.Context(), def.Category))

	log.Info().Str("session", s.ID).Str("report", def.Key).Str("subject", Subject(r.Context())).Msg("Session created")
	writeJSON(w, http.StatusCreated, s.View())
}

func (h *ReportHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return s, true
}

// GetView returns the current page of the session. ?page=n moves to page n,
// ?page=next and ?page=prev step one page.
func (h *ReportHandler) GetView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	switch p := r.URL.Query().Get("page"); p {
	case "":
	case "next":
		s.NextPage()
	case "prev":
		s.PrevPage()
	default:
		n, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
		s.SetPage(n)
	}
	writeJSON(w, http.StatusOK, s.View())
}

// DeleteSession discards a session
func (h *ReportHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Generate runs the report with the submitted filter form
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var form filter.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.Generate(r.Context(), form); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

type drillRequest struct {
	ID interface{} `json:"id"`
}

// Drill opens the row identified by id one level deeper
func (h *ReportHandler) Drill(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req drillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.Drill(req.ID); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Fold returns to the previous aggregation level
func (h *ReportHandler) Fold(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.FoldUp(); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Reset clears filters and results
func (h *ReportHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, s.View())
}
