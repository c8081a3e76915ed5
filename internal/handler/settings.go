package handler

import (
	"net/http"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/websocket"
)

// SettingsHandler exposes the language and notification permission preferences.
type SettingsHandler struct {
	prefs *store.PreferenceStore
	hub   *websocket.Hub
}

func NewSettingsHandler(prefs *store.PreferenceStore, hub *websocket.Hub) *SettingsHandler {
	return &SettingsHandler{prefs: prefs, hub: hub}
}

type languageResponse struct {
	Language i18n.LanguageCode `json:"language"`
	Chosen   bool              `json:"chosen"`
}

// GetLanguage returns the chosen language. chosen is false until the user
// picks one, so the UI can show the language picker.
func (h *SettingsHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.prefs.Language()
	writeJSON(w, http.StatusOK, languageResponse{Language: lang, Chosen: ok})
}

func (h *SettingsHandler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language i18n.LanguageCode `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.prefs.SetLanguage(req.Language); err != nil {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}

	lang, _ := h.prefs.Language()
	broadcast(h.hub, websocket.NewMessage(websocket.EntitySettings, "updated", 0, map[string]any{"language": string(lang)}))
	writeJSON(w, http.StatusOK, languageResponse{Language: lang, Chosen: true})
}

type permissionBody struct {
	Permission model.NotificationPermission `json:"permission"`
}

func (h *SettingsHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissionBody{Permission: h.prefs.Permission()})
}

func (h *SettingsHandler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.prefs.SetPermission(req.Permission); err != nil {
		writeError(w, http.StatusBadRequest, "permission must be granted, denied, or default")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntitySettings, "updated", 0, map[string]any{"permission": string(req.Permission)}))
	writeJSON(w, http.StatusOK, req)
}
