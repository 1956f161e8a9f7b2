package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SettingsService exposes the theme preference.
type SettingsService interface {
	Theme() string
	SetTheme(theme string) error
}

// SettingsHandler serves user preferences.
type SettingsHandler struct {
	Settings SettingsService
	Log      *zap.Logger
}

// ThemeBody is the payload of the theme endpoints.
type ThemeBody struct {
	Theme string `json:"theme"`
}

// Theme handles GET /api/settings/theme.
func (h *SettingsHandler) Theme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThemeBody{Theme: h.Settings.Theme()})
}

// SetTheme handles PUT /api/settings/theme.
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var body ThemeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Settings.SetTheme(body.Theme); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
