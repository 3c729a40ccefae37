package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
)

// CacheHandler exposes the lookup cache statistics
type CacheHandler struct {
	stats *cache.StatsCache
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(stats *cache.StatsCache) *CacheHandler {
	return &CacheHandler{stats: stats}
}

// Mount registers the cache routes on r
func (h *CacheHandler) Mount(r chi.Router) {
	r.Get("/cache/lookups", h.GetStats)
	r.Delete("/cache/lookups", h.Clear)
}

// GetStats returns lookup cache statistics
func (h *CacheHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

// Clear drops cached lookups so the next form load sees fresh branches and products
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.stats.Clear()
	log.Info().Str("subject", Subject(r.Context())).Msg("Lookup cache cleared")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Cache cleared successfully",
	})
}
