package handler

import (
	"net/http"

	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/websocket"
)

type JournalHandler struct {
	journal *store.JournalStore
	hub     *websocket.Hub
}

func NewJournalHandler(js *store.JournalStore, hub *websocket.Hub) *JournalHandler {
	return &JournalHandler{journal: js, hub: hub}
}

func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.journal.List())
}

type journalRequest struct {
	Content          string `json:"content"`
	ReminderDateTime string `json:"reminderDateTime"`
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	e, err := h.journal.Add(req.Content, req.ReminderDateTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content is required and reminder must be YYYY-MM-DDTHH:MM")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityJournal, "created", e.ID, nil))
	writeJSON(w, http.StatusCreated, e)
}

func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var patch model.JournalPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	e, err := h.journal.Update(id, patch)
	if err != nil {
		writeStoreError(w, err, "entry")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityJournal, "updated", id, nil))
	writeJSON(w, http.StatusOK, e)
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.journal.Remove(id)

	broadcast(h.hub, websocket.NewMessage(websocket.EntityJournal, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
