package handler

import (
	"net/http"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/presets"
	"github.com/easeaico/her-chat/internal/types"
)

// SettingsHandler serves API settings, avatars and provider presets.
type SettingsHandler struct {
	store *app.Store
}

func NewSettingsHandler(store *app.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// GetAPI handles GET /api/settings/api
func (h *SettingsHandler) GetAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.APISettings())
}

// PutAPI handles PUT /api/settings/api
func (h *SettingsHandler) PutAPI(w http.ResponseWriter, r *http.Request) {
	var settings types.APISettings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.store.SaveAPISettings(r.Context(), settings); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.APISettings())
}

// GetAvatars handles GET /api/settings/avatars
func (h *SettingsHandler) GetAvatars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Avatars())
}

// PutAvatars handles PUT /api/settings/avatars
func (h *SettingsHandler) PutAvatars(w http.ResponseWriter, r *http.Request) {
	var avatars types.Avatars
	if err := decodeJSON(r, &avatars); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.store.SaveAvatars(r.Context(), avatars); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Avatars())
}

// Presets handles GET /api/presets
func (h *SettingsHandler) Presets(w http.ResponseWriter, r *http.Request) {
	providers, err := presets.Providers()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

// State handles GET /api/state
func (h *SettingsHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}
