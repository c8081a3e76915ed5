package catalog

import (
	"sort"
	"strings"

	"github.com/dukerupert/lifemate/internal/model"
)

// Categorize guesses a category for a free-form item name from the product
// list: exact translated-name match first, then the longest product name
// contained in the item name. Returns 0 when nothing matches.
func Categorize(products []model.Product, itemName string) int64 {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return 0
	}

	if p, ok := FindByName(products, name); ok {
		return p.CategoryID
	}

	type keyword struct {
		word       string
		categoryID int64
	}
	var keywords []keyword
	for _, p := range products {
		for _, v := range p.Name.Values() {
			keywords = append(keywords, keyword{strings.ToLower(v), p.CategoryID})
		}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i].word) > len(keywords[j].word)
	})
	for _, k := range keywords {
		if k.word != "" && strings.Contains(name, k.word) {
			return k.categoryID
		}
	}
	return 0
}

// FindByName returns the product whose name in any language equals name,
// ignoring case and surrounding whitespace.
func FindByName(products []model.Product, name string) (model.Product, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return model.Product{}, false
	}
	for _, p := range products {
		for _, v := range p.Name {
			if strings.ToLower(v) == want {
				return p, true
			}
		}
	}
	return model.Product{}, false
}
