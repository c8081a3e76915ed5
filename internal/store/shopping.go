package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/voice"
)

// ErrNoExpenses reports an expense save with no priced lines.
var ErrNoExpenses = errors.New("no expenses with quantity and price")

type ShoppingListStore struct {
	kv  *kv.Store
	ids *idgen.Generator
	mu  sync.Mutex
}

func NewShoppingListStore(kvs *kv.Store, ids *idgen.Generator) *ShoppingListStore {
	s := &ShoppingListStore{kv: kvs, ids: ids}
	for _, l := range s.load() {
		ids.Observe(l.ID)
	}
	return s
}

func (s *ShoppingListStore) load() []model.ShoppingList {
	return kv.Load(s.kv, kv.KeyShoppingLists, []model.ShoppingList{})
}

func (s *ShoppingListStore) save(lists []model.ShoppingList) {
	kv.Save(s.kv, kv.KeyShoppingLists, lists)
}

// List returns every list, most recent first.
func (s *ShoppingListStore) List() []model.ShoppingList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *ShoppingListStore) Get(id int64) (model.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.load() {
		if l.ID == id {
			return l, nil
		}
	}
	return model.ShoppingList{}, ErrNotFound
}

// Add creates a list named name (trimmed) holding items and puts it first.
// Names are unique ignoring case.
func (s *ShoppingListStore) Add(name string, items []model.ShoppingListItem) (model.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(name, items)
}

func (s *ShoppingListStore) add(name string, items []model.ShoppingListItem) (model.ShoppingList, error) {
	name, ok := normalizeName(name)
	if !ok {
		return model.ShoppingList{}, ErrInvalidName
	}
	lists := s.load()
	if nameTaken(name, listNames(lists)) {
		return model.ShoppingList{}, ErrDuplicateName
	}
	if items == nil {
		items = []model.ShoppingListItem{}
	}

	l := model.ShoppingList{
		ID:        s.ids.Next(),
		Name:      name,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	s.save(append([]model.ShoppingList{l}, lists...))
	return l, nil
}

// Remove deletes the list. Removing a missing list does nothing.
func (s *ShoppingListStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.load()
	kept := lists[:0]
	for _, l := range lists {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) != len(lists) {
		s.save(kept)
	}
}

// Update merges patch into the list. A rename must keep names unique.
func (s *ShoppingListStore) Update(id int64, patch model.ShoppingListPatch) (model.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.load()
	i := indexOfList(lists, id)
	if i < 0 {
		return model.ShoppingList{}, ErrNotFound
	}

	if patch.Name != nil {
		name, ok := normalizeName(*patch.Name)
		if !ok {
			return model.ShoppingList{}, ErrInvalidName
		}
		var others []string
		for j, l := range lists {
			if j != i {
				others = append(others, l.Name)
			}
		}
		if nameTaken(name, others) {
			return model.ShoppingList{}, ErrDuplicateName
		}
		lists[i].Name = name
	}
	if patch.Items != nil {
		lists[i].Items = *patch.Items
	}

	s.save(lists)
	return lists[i], nil
}

// Duplicate copies a list's items into a new list named "<name> (Copy)",
// then "<name> (Copy 2)" and so on until the name is free.
func (s *ShoppingListStore) Duplicate(id int64) (model.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.load()
	i := indexOfList(lists, id)
	if i < 0 {
		return model.ShoppingList{}, ErrNotFound
	}
	src := lists[i]

	names := listNames(lists)
	exists := func(n string) bool {
		for _, existing := range names {
			if existing == n {
				return true
			}
		}
		return false
	}
	name := src.Name + " (Copy)"
	for n := 2; exists(name); n++ {
		name = fmt.Sprintf("%s (Copy %d)", src.Name, n)
	}

	items := make([]model.ShoppingListItem, len(src.Items))
	copy(items, src.Items)
	l := model.ShoppingList{
		ID:        s.ids.Next(),
		Name:      name,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	s.save(append([]model.ShoppingList{l}, lists...))
	return l, nil
}

// AddProducts appends one item per product, named in lang with quantity 1.
// Products whose name is already on the list are skipped.
func (s *ShoppingListStore) AddProducts(listID int64, products []model.Product, lang i18n.LanguageCode) (model.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.load()
	i := indexOfList(lists, listID)
	if i < 0 {
		return model.ShoppingList{}, ErrNotFound
	}
	for _, p := range products {
		item := model.ShoppingListItem{
			ID:       p.ID,
			Name:     p.Name.In(lang),
			Quantity: 1,
			Unit:     p.Unit,
		}
		lists[i].Items, _ = s.appendItem(lists[i].Items, item)
	}
	s.save(lists)
	return lists[i], nil
}

// AddItem appends item unless an item with the same name (ignoring case) is
// already on the list, in which case added is false and nothing changes.
func (s *ShoppingListStore) AddItem(listID int64, item model.ShoppingListItem) (model.ShoppingListItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(item.Name) == "" {
		return model.ShoppingListItem{}, false, ErrInvalidName
	}
	if item.Quantity < 0 || item.ExpectedPrice < 0 || item.ActualPrice < 0 {
		return model.ShoppingListItem{}, false, ErrInvalidInput
	}

	lists := s.load()
	i := indexOfList(lists, listID)
	if i < 0 {
		return model.ShoppingListItem{}, false, ErrNotFound
	}
	items, added := s.appendItem(lists[i].Items, item)
	if !added {
		return model.ShoppingListItem{}, false, nil
	}
	lists[i].Items = items
	s.save(lists)
	return items[len(items)-1], true, nil
}

// AddFromVoice adds the item a voice command names. Known products keep their
// id, translated name and unit; anything else is added as free text.
func (s *ShoppingListStore) AddFromVoice(listID int64, cmd voice.Command, products []model.Product, lang i18n.LanguageCode) (model.ShoppingListItem, bool, error) {
	return s.AddItem(listID, voice.Item(cmd, products, lang))
}

func (s *ShoppingListStore) appendItem(items []model.ShoppingListItem, item model.ShoppingListItem) ([]model.ShoppingListItem, bool) {
	for _, it := range items {
		if strings.EqualFold(it.Name, item.Name) {
			return items, false
		}
	}
	if item.ID == 0 || indexOfItem(items, item.ID) >= 0 {
		item.ID = s.ids.Next()
	}
	if item.Unit == "" {
		item.Unit = model.UnitPieces
	}
	return append(items, item), true
}

// UpdateItem merges patch into an item. Changing quantity or expected price
// recomputes actualPrice = quantity * expectedPrice; changing only the actual
// price back-derives expectedPrice = actualPrice / quantity (0 when quantity
// is 0).
func (s *ShoppingListStore) UpdateItem(listID, itemID int64, patch model.ItemPatch) (model.ShoppingListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.load()
	i := indexOfList(lists, listID)
	if i < 0 {
		return model.ShoppingListItem{}, ErrNotFound
	}
	j := indexOfItem(lists[i].Items, itemID)
	if j < 0 {
		return model.ShoppingListItem{}, ErrNotFound
	}

	updated, err := ApplyItemPatch(lists[i].Items[j], patch)
	if err != nil {
		return model.ShoppingListItem{}, err
	}
	lists[i].Items[j] = updated
	s.save(lists)
	return updated, nil
}

// ApplyItemPatch returns item with patch merged and the price invariant restored.
func ApplyItemPatch(item model.ShoppingListItem, patch model.ItemPatch) (model.ShoppingListItem, error) {
	for _, v := range []*float64{patch.Quantity, patch.ExpectedPrice, patch.ActualPrice} {
		if v != nil && *v < 0 {
			return item, ErrInvalidInput
		}
	}

	if patch.Name != nil {
		name, ok := normalizeName(*patch.Name)
		if !ok {
			return item, ErrInvalidName
		}
		item.Name = name
	}
	if patch.CustomName != nil {
		item.CustomName = *patch.CustomName
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.IsChecked != nil {
		item.IsChecked = *patch.IsChecked
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.ExpectedPrice != nil {
		item.ExpectedPrice = *patch.ExpectedPrice
	}
	if patch.ActualPrice != nil {
		item.ActualPrice = *patch.ActualPrice
	}

	switch {
	case patch.Quantity != nil || patch.ExpectedPrice != nil:
		item.ActualPrice = item.Quantity * item.ExpectedPrice
	case patch.ActualPrice != nil:
		if item.Quantity > 0 {
			item.ExpectedPrice = item.ActualPrice / item.Quantity
		} else {
			item.ExpectedPrice = 0
		}
	}
	return item, nil
}

// RemoveItem deletes an item from a list. A missing item is not an error.
func (s *ShoppingListStore) RemoveItem(listID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.load()
	i := indexOfList(lists, listID)
	if i < 0 {
		return ErrNotFound
	}
	j := indexOfItem(lists[i].Items, itemID)
	if j < 0 {
		return nil
	}
	lists[i].Items = append(lists[i].Items[:j], lists[i].Items[j+1:]...)
	s.save(lists)
	return nil
}

// SaveExpenses records a finished shopping trip as a new list. Only lines with
// a positive quantity and price are kept; each is stored checked, with its
// actual price set to price * quantity.
func (s *ShoppingListStore) SaveExpenses(name string, expenses []model.Expense) (model.ShoppingList, error) {
	if _, ok := normalizeName(name); !ok {
		return model.ShoppingList{}, ErrInvalidName
	}

	var items []model.ShoppingListItem
	for _, e := range expenses {
		if e.Quantity <= 0 || e.Price <= 0 {
			continue
		}
		item := model.ShoppingListItem{
			ID:            e.ProductID,
			Name:          e.Name,
			Quantity:      e.Quantity,
			Unit:          e.Unit,
			ExpectedPrice: e.Price,
			ActualPrice:   e.Price * e.Quantity,
			IsChecked:     true,
		}
		if item.Unit == "" {
			item.Unit = model.UnitPieces
		}
		if item.ID == 0 || indexOfItem(items, item.ID) >= 0 {
			item.ID = s.ids.Next()
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return model.ShoppingList{}, ErrNoExpenses
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(name, items)
}

func listNames(lists []model.ShoppingList) []string {
	names := make([]string, len(lists))
	for i, l := range lists {
		names[i] = l.Name
	}
	return names
}

func indexOfList(lists []model.ShoppingList, id int64) int {
	for i, l := range lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func indexOfItem(items []model.ShoppingListItem, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
