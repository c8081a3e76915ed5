package catalog

import (
	"testing"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c := Default()

	if len(c.Products) == 0 {
		t.Fatal("no products")
	}
	if len(c.Units) != 5 {
		t.Errorf("units = %d, want 5", len(c.Units))
	}
	if len(c.ZodiacSigns) != 12 {
		t.Errorf("zodiac signs = %d, want 12", len(c.ZodiacSigns))
	}
	for _, pool := range []string{TipsRain, TipsCold, TipsHot, TipsGeneral} {
		if len(c.HealthTips[pool]) == 0 {
			t.Errorf("health tip pool %q empty", pool)
		}
	}

	seen := make(map[int64]bool)
	for _, p := range c.Products {
		if seen[p.ID] {
			t.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = true
		if _, ok := c.Unit(p.Unit); !ok {
			t.Errorf("product %d has unknown unit %q", p.ID, p.Unit)
		}
		if _, ok := c.Category(p.CategoryID); !ok {
			t.Errorf("product %d has unknown category %d", p.ID, p.CategoryID)
		}
	}
}

func TestInCategoryIncludesSubcategories(t *testing.T) {
	c := Default()

	male := model.Product{ID: 1, CategoryID: 81}
	if !c.InCategory(male, 8) {
		t.Error("product in sub-category 81 should be in parent 8")
	}
	if !c.InCategory(male, 81) {
		t.Error("product should be in its own category")
	}
	if c.InCategory(male, 1) {
		t.Error("product should not be in unrelated category")
	}

	for _, cat := range c.TopLevel() {
		if cat.ParentID != 0 {
			t.Errorf("top level category %d has parent %d", cat.ID, cat.ParentID)
		}
	}
}

func TestSign(t *testing.T) {
	c := Default()

	s, ok := c.Sign("aries")
	if !ok {
		t.Fatal("aries not found")
	}
	if got := s.Name.In(i18n.English); got != "Aries" {
		t.Errorf("name = %q, want Aries", got)
	}
	if _, ok := c.Sign("ophiuchus"); ok {
		t.Error("unexpected sign")
	}
}

func TestTipPool(t *testing.T) {
	tests := []struct {
		condition string
		temp      float64
		want      string
	}{
		{"Light Rain", 30, TipsRain},
		{"drizzle", 10, TipsRain},
		{"Clear", 10, TipsCold},
		{"Sunny", 35, TipsHot},
		{"Partly cloudy", 22, TipsGeneral},
		{"Clear", 15, TipsGeneral},
		{"Clear", 28, TipsGeneral},
	}
	for _, tt := range tests {
		if got := TipPool(tt.condition, tt.temp); got != tt.want {
			t.Errorf("TipPool(%q, %v) = %q, want %q", tt.condition, tt.temp, got, tt.want)
		}
	}
}

func TestHealthTipFallsBackToGeneral(t *testing.T) {
	c := &Catalog{HealthTips: map[string][]i18n.Translations{
		TipsGeneral: {{i18n.English: "walk"}},
	}}
	if got := c.HealthTip(TipsRain).In(i18n.English); got != "walk" {
		t.Errorf("tip = %q, want walk", got)
	}
}

var testProducts = []model.Product{
	{ID: 101, CategoryID: 1, Name: i18n.Translations{i18n.English: "Milk", i18n.Hindi: "दूध"}, Unit: model.UnitLitre},
	{ID: 201, CategoryID: 2, Name: i18n.Translations{i18n.English: "Potato", i18n.Hindi: "आलू"}, Unit: model.UnitKg},
	{ID: 202, CategoryID: 2, Name: i18n.Translations{i18n.English: "Sweet Potato"}, Unit: model.UnitKg},
}

func TestFindByName(t *testing.T) {
	tests := []struct {
		name   string
		wantID int64
		wantOK bool
	}{
		{"milk", 101, true},
		{"  MILK ", 101, true},
		{"दूध", 101, true},
		{"आलू", 201, true},
		{"mil", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		p, ok := FindByName(testProducts, tt.name)
		if ok != tt.wantOK || p.ID != tt.wantID {
			t.Errorf("FindByName(%q) = %d, %v; want %d, %v", tt.name, p.ID, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		want int64
	}{
		{"Milk", 1},
		{"toned milk", 1},
		{"sweet potato chips", 2},
		{"potatoes", 2},
		{"batteries", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Categorize(testProducts, tt.name); got != tt.want {
			t.Errorf("Categorize(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}
