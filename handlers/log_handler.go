package handlers

import (
	"net/http"

	"github.com/cookseyplate/tipping-system/services"
)

type LogHandler struct {
	syncService services.SyncService
}

func NewLogHandler(ss services.SyncService) *LogHandler {
	return &LogHandler{syncService: ss}
}

func (h *LogHandler) ListSyncLogs(w http.ResponseWriter, r *http.Request) {
	var importType *string
	if t := r.URL.Query().Get("type"); t != "" {
		importType = &t
	}

	limit := 50
	if l, err := queryInt(r, "limit"); err == nil && l != nil && *l > 0 {
		limit = *l
	}

	logs, err := h.syncService.ListImportLogs(r.Context(), importType, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"logs": logs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
