package voice

import (
	"testing"

	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

func TestParse(t *testing.T) {
	p := NewParser(catalog.Default().Units)

	tests := []struct {
		in       string
		wantQty  float64
		wantUnit model.Unit
		wantName string
		wantOK   bool
	}{
		{"2 kg potato", 2, model.UnitKg, "potato", true},
		{"1.5 Ltr milk", 1.5, model.UnitLitre, "milk", true},
		{"add 3 packet biscuits", 3, model.UnitPacket, "biscuits", true},
		{"tomato", 1, "", "tomato", true},
		{"2 किग्रा आलू", 2, model.UnitKg, "आलू", true},
		{"आलू 1 किग्रा जोड़ें", 1, model.UnitKg, "आलू 1", true},
		{"5 gram jeera", 5, model.UnitGram, "jeera", true},
		{"kgs of rice", 1, "", "kgs of rice", true},
		{"address book", 1, "", "address book", true},
		{"2 kg", 2, model.UnitKg, "", false},
		{"add", 1, "", "", false},
		{"", 1, "", "", false},
	}
	for _, tt := range tests {
		cmd, ok := p.Parse(tt.in)
		if ok != tt.wantOK {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
		if cmd.Quantity != tt.wantQty || cmd.Unit != tt.wantUnit || cmd.ProductName != tt.wantName {
			t.Errorf("Parse(%q) = {%v %q %q}, want {%v %q %q}",
				tt.in, cmd.Quantity, cmd.Unit, cmd.ProductName, tt.wantQty, tt.wantUnit, tt.wantName)
		}
	}
}

func TestItemResolvesCatalogProduct(t *testing.T) {
	products := []model.Product{
		{ID: 201, Name: i18n.Translations{i18n.English: "Potato", i18n.Hindi: "आलू"}, Unit: model.UnitKg},
	}

	item := Item(Command{Quantity: 2, ProductName: "आलू"}, products, i18n.English)
	if item.ID != 201 || item.Name != "Potato" || item.Unit != model.UnitKg || item.Quantity != 2 {
		t.Errorf("item = %+v", item)
	}

	item = Item(Command{Quantity: 1, Unit: model.UnitGram, ProductName: "potato"}, products, i18n.Hindi)
	if item.Name != "आलू" || item.Unit != model.UnitGram {
		t.Errorf("spoken unit should win: %+v", item)
	}
}

func TestItemFreeform(t *testing.T) {
	item := Item(Command{Quantity: 4, ProductName: "candles"}, nil, i18n.English)
	if item.ID != 0 {
		t.Errorf("ID = %d, want 0 for the store to assign", item.ID)
	}
	if item.Name != "Candles" {
		t.Errorf("Name = %q, want Candles", item.Name)
	}
	if item.Unit != model.UnitPieces {
		t.Errorf("Unit = %q, want pcs", item.Unit)
	}
}

func TestIndexWord(t *testing.T) {
	tests := []struct {
		text, word string
		want       int
	}{
		{"kg rice", "kg", 0},
		{"rice kg", "kg", 5},
		{"kgs rice", "kg", -1},
		{"bkg kg", "kg", 4},
		{"", "kg", -1},
	}
	for _, tt := range tests {
		if got := indexWord(tt.text, tt.word); got != tt.want {
			t.Errorf("indexWord(%q, %q) = %d, want %d", tt.text, tt.word, got, tt.want)
		}
	}
}
