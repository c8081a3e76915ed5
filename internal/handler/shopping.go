package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/voice"
	"github.com/dukerupert/lifemate/internal/websocket"
)

type ShoppingHandler struct {
	lists    *store.ShoppingListStore
	products *store.ProductStore
	parser   *voice.Parser
	prefs    LanguageSource
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewShoppingHandler(ls *store.ShoppingListStore, ps *store.ProductStore, parser *voice.Parser, prefs LanguageSource, hub *websocket.Hub, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{lists: ls, products: ps, parser: parser, prefs: prefs, hub: hub, logger: logger}
}

// listResponse is a list with its running totals.
type listResponse struct {
	model.ShoppingList
	Total          float64 `json:"total"`
	PurchasedTotal float64 `json:"purchasedTotal"`
}

func withTotals(l model.ShoppingList) listResponse {
	return listResponse{ShoppingList: l, Total: l.Total(), PurchasedTotal: l.PurchasedTotal()}
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	lists := h.lists.List()
	out := make([]listResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, withTotals(l))
	}
	writeJSON(w, http.StatusOK, out)
}

type createListRequest struct {
	Name       string                   `json:"name"`
	Items      []model.ShoppingListItem `json:"items"`
	ProductIDs []int64                  `json:"productIds"`
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var picked []model.Product
	for _, id := range req.ProductIDs {
		p, err := h.products.Get(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown product")
			return
		}
		picked = append(picked, p)
	}

	l, err := h.lists.Add(req.Name, req.Items)
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}
	if len(picked) > 0 {
		l, err = h.lists.AddProducts(l.ID, picked, requestLanguage(r, h.prefs))
		if err != nil {
			h.logger.Error("add products to new list", "error", err)
			writeStoreError(w, err, "list")
			return
		}
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingList, "created", l.ID, nil))
	writeJSON(w, http.StatusCreated, withTotals(l))
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var patch model.ShoppingListPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	l, err := h.lists.Update(id, patch)
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingList, "updated", id, nil))
	writeJSON(w, http.StatusOK, withTotals(l))
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.lists.Remove(id)

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingList, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShoppingHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	l, err := h.lists.Duplicate(id)
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingList, "created", l.ID, nil))
	writeJSON(w, http.StatusCreated, withTotals(l))
}

func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var item model.ShoppingListItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	added, ok, err := h.lists.AddItem(id, item)
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "item already on list")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingItem, "created", added.ID, map[string]any{"list_id": id}))
	writeJSON(w, http.StatusCreated, added)
}

func (h *ShoppingHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	itemID, err := parseInt64Param(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	item, err := h.lists.UpdateItem(listID, itemID, patch)
	if err != nil {
		writeStoreError(w, err, "item")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingItem, "updated", itemID, map[string]any{"list_id": listID}))
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	itemID, err := parseInt64Param(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	if err := h.lists.RemoveItem(listID, itemID); err != nil {
		writeStoreError(w, err, "list")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingItem, "deleted", itemID, map[string]any{"list_id": listID}))
	w.WriteHeader(http.StatusNoContent)
}

type voiceRequest struct {
	Transcript string `json:"transcript"`
}

type voiceResponse struct {
	Command voice.Command          `json:"command"`
	Item    model.ShoppingListItem `json:"item"`
	Added   bool                   `json:"added"`
}

// Voice adds the item spoken in a transcript. A product already on the list
// is reported with added=false.
func (h *ShoppingHandler) Voice(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req voiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	cmd, ok := h.parser.Parse(req.Transcript)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "could not understand the item")
		return
	}

	item, added, err := h.lists.AddFromVoice(id, cmd, h.products.List(), requestLanguage(r, h.prefs))
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
		broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingItem, "created", item.ID, map[string]any{"list_id": id}))
	}
	writeJSON(w, status, voiceResponse{Command: cmd, Item: item, Added: added})
}

type expensesRequest struct {
	Name     string          `json:"name"`
	Expenses []model.Expense `json:"expenses"`
}

// SaveExpenses stores a finished trip as a checked list.
func (h *ShoppingHandler) SaveExpenses(w http.ResponseWriter, r *http.Request) {
	var req expensesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	l, err := h.lists.SaveExpenses(req.Name, req.Expenses)
	if errors.Is(err, store.ErrNoExpenses) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingList, "created", l.ID, nil))
	writeJSON(w, http.StatusCreated, withTotals(l))
}
