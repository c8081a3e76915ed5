package handler

import (
	"net/http"

	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/websocket"
)

type MilkHandler struct {
	vendors *store.MilkVendorStore
	hub     *websocket.Hub
}

func NewMilkHandler(vs *store.MilkVendorStore, hub *websocket.Hub) *MilkHandler {
	return &MilkHandler{vendors: vs, hub: hub}
}

func (h *MilkHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.vendors.List())
}

func (h *MilkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	v, err := h.vendors.Add(req.Name)
	if err != nil {
		writeStoreError(w, err, "vendor")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilkVendor, "created", v.ID, nil))
	writeJSON(w, http.StatusCreated, v)
}

func (h *MilkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.vendors.Remove(id)

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilkVendor, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *MilkHandler) AddRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var rec model.MilkRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, err := h.vendors.AddRecord(id, rec)
	if err != nil {
		writeStoreError(w, err, "vendor")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilkRecord, "created", created.ID, map[string]any{"vendor_id": id}))
	writeJSON(w, http.StatusCreated, created)
}

func (h *MilkHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	recordID, err := parseInt64Param(r, "record_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record_id")
		return
	}

	if err := h.vendors.RemoveRecord(id, recordID); err != nil {
		writeStoreError(w, err, "vendor")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilkRecord, "deleted", recordID, map[string]any{"vendor_id": id}))
	w.WriteHeader(http.StatusNoContent)
}

// Totals returns the vendor's litres and amount per month, newest first.
func (h *MilkHandler) Totals(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	totals, err := h.vendors.MonthlyTotals(id)
	if err != nil {
		writeStoreError(w, err, "vendor")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
