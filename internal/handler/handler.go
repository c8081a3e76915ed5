package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/websocket"
)

// LanguageSource supplies the user's chosen language.
type LanguageSource interface {
	Language() (i18n.LanguageCode, bool)
}

// requestLanguage returns the ?lang= override when it names a supported
// language, otherwise the stored preference.
func requestLanguage(r *http.Request, prefs LanguageSource) i18n.LanguageCode {
	if code, ok := i18n.Parse(r.URL.Query().Get("lang")); ok {
		return code
	}
	if prefs == nil {
		return i18n.Fallback
	}
	lang, _ := prefs.Language()
	return lang
}

func broadcast(hub *websocket.Hub, msg websocket.Message) {
	if hub != nil {
		hub.Broadcast(msg)
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return parseInt64Param(r, "id")
}

func parseInt64Param(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps repository sentinels to status codes. what names the
// entity in the not-found message.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to save "+what)
	}
}
