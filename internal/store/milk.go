package store

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

type MilkVendorStore struct {
	kv  *kv.Store
	ids *idgen.Generator
	mu  sync.Mutex
}

func NewMilkVendorStore(kvs *kv.Store, ids *idgen.Generator) *MilkVendorStore {
	s := &MilkVendorStore{kv: kvs, ids: ids}
	for _, v := range s.load() {
		ids.Observe(v.ID)
		for _, r := range v.Records {
			ids.Observe(r.ID)
		}
	}
	return s
}

func (s *MilkVendorStore) load() []model.MilkVendorList {
	return kv.Load(s.kv, kv.KeyMilkVendors, []model.MilkVendorList{})
}

func (s *MilkVendorStore) save(vendors []model.MilkVendorList) {
	kv.Save(s.kv, kv.KeyMilkVendors, vendors)
}

func (s *MilkVendorStore) List() []model.MilkVendorList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *MilkVendorStore) Get(id int64) (model.MilkVendorList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.load() {
		if v.ID == id {
			return v, nil
		}
	}
	return model.MilkVendorList{}, ErrNotFound
}

// Add creates a vendor named name (trimmed) and puts it first. Names are
// unique ignoring case.
func (s *MilkVendorStore) Add(name string) (model.MilkVendorList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := normalizeName(name)
	if !ok {
		return model.MilkVendorList{}, ErrInvalidName
	}
	vendors := s.load()
	names := make([]string, len(vendors))
	for i, v := range vendors {
		names[i] = v.Name
	}
	if nameTaken(name, names) {
		return model.MilkVendorList{}, ErrDuplicateName
	}

	v := model.MilkVendorList{
		ID:        s.ids.Next(),
		Name:      name,
		Records:   []model.MilkRecord{},
		CreatedAt: time.Now().UTC(),
	}
	s.save(append([]model.MilkVendorList{v}, vendors...))
	return v, nil
}

// Remove deletes the vendor and its records. Removing a missing vendor does nothing.
func (s *MilkVendorStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendors := s.load()
	kept := vendors[:0]
	for _, v := range vendors {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	if len(kept) != len(vendors) {
		s.save(kept)
	}
}

// AddRecord adds a delivery to a vendor and keeps records newest date first.
// Quantity and price must be positive and the date must use model.DateLayout.
func (s *MilkVendorStore) AddRecord(vendorID int64, rec model.MilkRecord) (model.MilkRecord, error) {
	if rec.Quantity <= 0 || rec.PricePerLitre <= 0 {
		return model.MilkRecord{}, ErrInvalidInput
	}
	if _, err := time.Parse(model.DateLayout, rec.Date); err != nil {
		return model.MilkRecord{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vendors := s.load()
	i := indexOfVendor(vendors, vendorID)
	if i < 0 {
		return model.MilkRecord{}, ErrNotFound
	}

	rec.ID = s.ids.Next()
	records := append([]model.MilkRecord{rec}, vendors[i].Records...)
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Date > records[b].Date
	})
	vendors[i].Records = records
	s.save(vendors)
	return rec, nil
}

// RemoveRecord deletes one delivery. A missing record is not an error.
func (s *MilkVendorStore) RemoveRecord(vendorID, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vendors := s.load()
	i := indexOfVendor(vendors, vendorID)
	if i < 0 {
		return ErrNotFound
	}
	records := vendors[i].Records
	for j, r := range records {
		if r.ID == recordID {
			vendors[i].Records = append(records[:j], records[j+1:]...)
			s.save(vendors)
			return nil
		}
	}
	return nil
}

// MonthlyTotals groups a vendor's deliveries by month, newest month first.
func (s *MilkVendorStore) MonthlyTotals(vendorID int64) ([]model.MilkMonthTotal, error) {
	v, err := s.Get(vendorID)
	if err != nil {
		return nil, err
	}
	return MonthlyTotals(v.Records), nil
}

// MonthlyTotals groups records by calendar month, newest month first.
// Records with an unparseable date are skipped.
func MonthlyTotals(records []model.MilkRecord) []model.MilkMonthTotal {
	type acc struct {
		litres, amount decimal.Decimal
		n              int
	}
	type monthKey struct {
		year  int
		month time.Month
	}

	sums := make(map[monthKey]*acc)
	var order []monthKey
	for _, r := range records {
		d, err := time.Parse(model.DateLayout, r.Date)
		if err != nil {
			continue
		}
		k := monthKey{d.Year(), d.Month()}
		a, ok := sums[k]
		if !ok {
			a = &acc{litres: decimal.Zero, amount: decimal.Zero}
			sums[k] = a
			order = append(order, k)
		}
		q := decimal.NewFromFloat(r.Quantity)
		a.litres = a.litres.Add(q)
		a.amount = a.amount.Add(q.Mul(decimal.NewFromFloat(r.PricePerLitre)))
		a.n++
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year > order[j].year
		}
		return order[i].month > order[j].month
	})

	totals := make([]model.MilkMonthTotal, 0, len(order))
	for _, k := range order {
		a := sums[k]
		totals = append(totals, model.MilkMonthTotal{
			Year:    k.year,
			Month:   k.month,
			Litres:  a.litres.InexactFloat64(),
			Amount:  a.amount.InexactFloat64(),
			Records: a.n,
		})
	}
	return totals
}

func indexOfVendor(vendors []model.MilkVendorList, id int64) int {
	for i, v := range vendors {
		if v.ID == id {
			return i
		}
	}
	return -1
}
