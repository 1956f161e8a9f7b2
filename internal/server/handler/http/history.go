package http

import (
	"net/http"

	"go.uber.org/zap"
)

// HistoryService exposes the recent-games list.
type HistoryService interface {
	Recent() ([]string, error)
	Clear() error
}

// HistoryHandler serves the recent-games history of the current user.
type HistoryHandler struct {
	History HistoryService
	Log     *zap.Logger
}

// Recent handles GET /api/history.
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	games, err := h.History.Recent()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// Clear handles DELETE /api/history.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.History.Clear(); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
