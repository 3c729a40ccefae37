package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/drilldown"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/filter"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/lookup"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/session"
)

// Pinger reports database health
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthCheck returns the health status of the service
func HealthCheck(db Pinger, lookupStats *cache.StatsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC(),
		}
		if lookupStats != nil {
			status["lookup_cache"] = lookupStats.GetStats()
		}

		code := http.StatusOK
		if err := db.Health(ctx); err != nil {
			status["status"] = "error"
			status["database"] = "unhealthy"
			status["error"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "healthy"
		}

		writeJSON(w, code, status)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	var (
		verr *filter.ValidationError
		lerr *lookup.Error
		gerr *session.GenerationError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &lerr), errors.As(err, &gerr):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrGenerateInFlight),
		errors.Is(err, session.ErrSuperseded),
		errors.Is(err, drilldown.ErrInvalidTransition),
		errors.Is(err, drilldown.ErrAtBaseLevel):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrUnknownBucket),
		errors.Is(err, reports.ErrUnknownType),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes it as a JSON error body
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	ev := log.Warn()
	if code >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", code).Msg("Request failed")

	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	writeError(w, code, msg)
}
