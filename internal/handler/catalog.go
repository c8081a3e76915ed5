package handler

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/websocket"
)

// CatalogHandler serves the built-in reference data and the product list.
type CatalogHandler struct {
	catalog  *catalog.Catalog
	products *store.ProductStore
	prefs    LanguageSource
	hub      *websocket.Hub
}

func NewCatalogHandler(cat *catalog.Catalog, ps *store.ProductStore, prefs LanguageSource, hub *websocket.Hub) *CatalogHandler {
	return &CatalogHandler{catalog: cat, products: ps, prefs: prefs, hub: hub}
}

func (h *CatalogHandler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, i18n.Languages)
}

// Categories returns every category, or only top-level ones with ?top=true.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("top") == "true" {
		writeJSON(w, http.StatusOK, h.catalog.TopLevel())
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Categories)
}

func (h *CatalogHandler) Units(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Units)
}

func (h *CatalogHandler) Zodiac(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.ZodiacSigns)
}

// Products lists products, optionally narrowed by ?category= and ?q=. The
// search matches names in the request language.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ProductFilter{
		Search: q.Get("q"),
		Lang:   requestLanguage(r, h.prefs),
	}
	if c := q.Get("category"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		f.CategoryID = id
	}

	products := h.products.Filter(f)
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, err := h.products.Add(p)
	if err != nil {
		writeStoreError(w, err, "product")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityProduct, "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}
