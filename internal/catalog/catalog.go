package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

//go:embed catalog.json
var catalogJSON []byte

// Catalog is the built-in reference data: categories, units, zodiac signs,
// health tips and the seed product list.
type Catalog struct {
	Categories  []model.Category              `json:"categories"`
	Units       []model.UnitOption            `json:"units"`
	ZodiacSigns []model.ZodiacSign            `json:"zodiacSigns"`
	HealthTips  map[string][]i18n.Translations `json:"healthTips"`
	Products    []model.Product               `json:"products"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It is shared; callers must not mutate it.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogJSON)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

// Unit returns the option for u.
func (c *Catalog) Unit(u model.Unit) (model.UnitOption, bool) {
	for _, opt := range c.Units {
		if opt.Value == u {
			return opt, true
		}
	}
	return model.UnitOption{}, false
}

// Sign returns the zodiac sign with the given id.
func (c *Catalog) Sign(id string) (model.ZodiacSign, bool) {
	for _, s := range c.ZodiacSigns {
		if s.ID == id {
			return s, true
		}
	}
	return model.ZodiacSign{}, false
}

// Category returns the category with the given id.
func (c *Catalog) Category(id int64) (model.Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return model.Category{}, false
}

// TopLevel returns the categories that have no parent.
func (c *Catalog) TopLevel() []model.Category {
	var out []model.Category
	for _, cat := range c.Categories {
		if cat.ParentID == 0 {
			out = append(out, cat)
		}
	}
	return out
}

// InCategory reports whether p belongs to categoryID directly or through a
// sub-category of it.
func (c *Catalog) InCategory(p model.Product, categoryID int64) bool {
	if p.CategoryID == categoryID {
		return true
	}
	cat, ok := c.Category(p.CategoryID)
	return ok && cat.ParentID == categoryID
}
