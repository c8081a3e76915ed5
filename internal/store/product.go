package store

import (
	"strings"
	"sync"

	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

// ProductStore is the product list: the built-in catalog plus products the
// user added.
type ProductStore struct {
	kv      *kv.Store
	ids     *idgen.Generator
	catalog *catalog.Catalog
	mu      sync.Mutex
}

func NewProductStore(kvs *kv.Store, ids *idgen.Generator, cat *catalog.Catalog) *ProductStore {
	return &ProductStore{kv: kvs, ids: ids, catalog: cat}
}

func (s *ProductStore) load() []model.Product {
	return kv.Load(s.kv, kv.KeyProducts, s.catalog.Products)
}

func (s *ProductStore) List() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *ProductStore) Get(id int64) (model.Product, error) {
	for _, p := range s.List() {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, ErrNotFound
}

// Add appends a user product. It needs an English name and a known unit; a
// missing category is guessed from the existing products.
func (s *ProductStore) Add(p model.Product) (model.Product, error) {
	if strings.TrimSpace(p.Name.In(i18n.English)) == "" {
		return model.Product{}, ErrInvalidName
	}
	if _, ok := s.catalog.Unit(p.Unit); !ok {
		return model.Product{}, ErrInvalidInput
	}
	if p.Price < 0 {
		return model.Product{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.load()
	if p.CategoryID == 0 {
		p.CategoryID = catalog.Categorize(products, p.Name.In(i18n.English))
	} else if _, ok := s.catalog.Category(p.CategoryID); !ok {
		return model.Product{}, ErrInvalidInput
	}
	p.ID = s.ids.Next()

	out := make([]model.Product, 0, len(products)+1)
	out = append(out, products...)
	kv.Save(s.kv, kv.KeyProducts, append(out, p))
	return p, nil
}

// FindByName returns the product named name in any language, ignoring case.
func (s *ProductStore) FindByName(name string) (model.Product, bool) {
	return catalog.FindByName(s.List(), name)
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID int64
	Search     string
	Lang       i18n.LanguageCode
	// Exclude drops products whose name in Lang is in the set (lower-cased).
	Exclude map[string]bool
}

// Filter returns the products in f.CategoryID (including sub-categories)
// whose name in f.Lang contains f.Search, ignoring case.
func (s *ProductStore) Filter(f ProductFilter) []model.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []model.Product
	for _, p := range s.List() {
		if f.CategoryID != 0 && !s.catalog.InCategory(p, f.CategoryID) {
			continue
		}
		name := strings.ToLower(p.Name.In(f.Lang))
		if search != "" && !strings.Contains(name, search) {
			continue
		}
		if f.Exclude[name] {
			continue
		}
		out = append(out, p)
	}
	return out
}
