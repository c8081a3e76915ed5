package store

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/lifemate/internal/model"
)

func setupMilkStore(t *testing.T) *MilkVendorStore {
	t.Helper()
	kvs, ids := setupTestKV(t)
	return NewMilkVendorStore(kvs, ids)
}

func TestAddMilkVendor(t *testing.T) {
	s := setupMilkStore(t)

	v, err := s.Add(" Ramu Doodhwala ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if v.Name != "Ramu Doodhwala" {
		t.Errorf("name = %q", v.Name)
	}
	if _, err := s.Add("ramu doodhwala"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate err = %v, want ErrDuplicateName", err)
	}
	if _, err := s.Add(""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty err = %v, want ErrInvalidName", err)
	}

	w, _ := s.Add("Shyam Dairy")
	vendors := s.List()
	if len(vendors) != 2 || vendors[0].ID != w.ID {
		t.Errorf("vendors = %+v, want newest first", vendors)
	}
}

func TestMilkRecordsSortedByDateDesc(t *testing.T) {
	s := setupMilkStore(t)
	v, _ := s.Add("Ramu")

	for _, d := range []string{"2026-03-02", "2026-03-05", "2026-02-28", "2026-03-03"} {
		if _, err := s.AddRecord(v.ID, model.MilkRecord{Date: d, Quantity: 1, PricePerLitre: 60}); err != nil {
			t.Fatalf("add record %s: %v", d, err)
		}
	}

	got, _ := s.Get(v.ID)
	want := []string{"2026-03-05", "2026-03-03", "2026-03-02", "2026-02-28"}
	for i, w := range want {
		if got.Records[i].Date != w {
			t.Errorf("records[%d].Date = %q, want %q", i, got.Records[i].Date, w)
		}
	}
}

func TestAddMilkRecordValidation(t *testing.T) {
	s := setupMilkStore(t)
	v, _ := s.Add("Ramu")

	bad := []model.MilkRecord{
		{Date: "2026-03-01", Quantity: 0, PricePerLitre: 60},
		{Date: "2026-03-01", Quantity: 1, PricePerLitre: 0},
		{Date: "01/03/2026", Quantity: 1, PricePerLitre: 60},
	}
	for _, r := range bad {
		if _, err := s.AddRecord(v.ID, r); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("AddRecord(%+v) err = %v, want ErrInvalidInput", r, err)
		}
	}
	if _, err := s.AddRecord(42, model.MilkRecord{Date: "2026-03-01", Quantity: 1, PricePerLitre: 60}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing vendor err = %v, want ErrNotFound", err)
	}
}

func TestRemoveMilkRecord(t *testing.T) {
	s := setupMilkStore(t)
	v, _ := s.Add("Ramu")
	r, _ := s.AddRecord(v.ID, model.MilkRecord{Date: "2026-03-01", Quantity: 1.5, PricePerLitre: 60})

	if err := s.RemoveRecord(v.ID, r.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveRecord(v.ID, r.ID); err != nil {
		t.Errorf("second remove: %v", err)
	}
	got, _ := s.Get(v.ID)
	if len(got.Records) != 0 {
		t.Errorf("records = %d, want 0", len(got.Records))
	}

	s.Remove(v.ID)
	s.Remove(v.ID)
	if _, err := s.Get(v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get removed vendor err = %v, want ErrNotFound", err)
	}
}

func TestMonthlyTotals(t *testing.T) {
	records := []model.MilkRecord{
		{Date: "2026-03-05", Quantity: 1.5, PricePerLitre: 60},
		{Date: "2026-03-01", Quantity: 2, PricePerLitre: 55},
		{Date: "2026-02-27", Quantity: 1, PricePerLitre: 50},
		{Date: "2025-12-31", Quantity: 0.5, PricePerLitre: 50},
		{Date: "garbage", Quantity: 9, PricePerLitre: 9},
	}

	totals := MonthlyTotals(records)
	if len(totals) != 3 {
		t.Fatalf("months = %d, want 3", len(totals))
	}
	mar := totals[0]
	if mar.Year != 2026 || mar.Month != time.March {
		t.Errorf("first month = %d-%v, want 2026-March", mar.Year, mar.Month)
	}
	if !floatEquals(mar.Litres, 3.5) || !floatEquals(mar.Amount, 200) || mar.Records != 2 {
		t.Errorf("march = %+v, want 3.5 L / 200 / 2", mar)
	}
	if totals[2].Year != 2025 {
		t.Errorf("last month year = %d, want 2025", totals[2].Year)
	}
}
