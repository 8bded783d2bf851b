package handlers

import (
	"net/http"

	"github.com/cookseyplate/tipping-system/services"
	"github.com/cookseyplate/tipping-system/squiggle"
)

// SyncHandler exposes the external-data sync operations: manual fixture and
// team refreshes plus the fetch cache controls.
type SyncHandler struct {
	syncService services.SyncService
	cache       *squiggle.CachedFetcher
}

func NewSyncHandler(ss services.SyncService, cache *squiggle.CachedFetcher) *SyncHandler {
	return &SyncHandler{
		syncService: ss,
		cache:       cache,
	}
}

func (h *SyncHandler) SyncGames(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	saved, err := h.syncService.SyncGames(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"year": year, "games_saved": saved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SyncHandler) UpdateLiveScores(w http.ResponseWriter, r *http.Request) {
	year, err := getIDFromURL(r, "year")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, err := h.syncService.UpdateLiveScores(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"year": year, "games_updated": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SyncHandler) SyncTeams(w http.ResponseWriter, r *http.Request) {
	saved, err := h.syncService.SyncTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams_saved": saved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SyncHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.syncService.ListTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SyncHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	keys := h.cache.Stats()
	response := jsonResponse{"size": len(keys), "keys": keys}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SyncHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	if err := writeJSON(w, http.StatusOK, jsonResponse{"cleared": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
