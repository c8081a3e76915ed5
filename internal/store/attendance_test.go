package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/lifemate/internal/attendance"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

func setupAttendanceStore(t *testing.T) *AttendanceStore {
	t.Helper()
	kvs, _ := setupTestKV(t)
	return NewAttendanceStore(kvs)
}

func TestToggleCycle(t *testing.T) {
	s := setupAttendanceStore(t)
	const day = "2026-04-10"

	want := []model.AttendanceStatus{model.StatusPresent, model.StatusAbsent, model.StatusUnmarked}
	for i, w := range want {
		rec, err := s.Toggle(day)
		if err != nil {
			t.Fatalf("toggle %d: %v", i+1, err)
		}
		if rec.Status != w {
			t.Errorf("toggle %d status = %q, want %q", i+1, rec.Status, w)
		}
	}
	if _, ok := s.Record(day); ok {
		t.Error("record should be deleted after third toggle")
	}
	if n := len(s.Records()); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestAbsentClearsOvertime(t *testing.T) {
	s := setupAttendanceStore(t)
	const day = "2026-04-11"

	s.SetStatus(day, model.StatusPresent)
	if _, err := s.SetOvertimeHours(day, 3); err != nil {
		t.Fatalf("set overtime: %v", err)
	}
	if _, err := s.SetOvertimeDay(day, true); err != nil {
		t.Fatalf("set ot day: %v", err)
	}

	rec, err := s.SetStatus(day, model.StatusAbsent)
	if err != nil {
		t.Fatalf("mark absent: %v", err)
	}
	if rec.OvertimeHours != 0 || rec.IsOvertimeDay {
		t.Errorf("overtime not cleared: %+v", rec)
	}

	if _, err := s.SetOvertimeHours(day, 2); !errors.Is(err, ErrNotPresent) {
		t.Errorf("overtime on absent day err = %v, want ErrNotPresent", err)
	}
	if _, err := s.SetOvertimeDay("2026-04-12", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("ot day on unmarked day err = %v, want ErrNotFound", err)
	}
}

func TestOvertimeHoursClearedByZero(t *testing.T) {
	s := setupAttendanceStore(t)
	const day = "2026-04-13"

	s.SetStatus(day, model.StatusPresent)
	s.SetOvertimeHours(day, 2.5)
	rec, _ := s.SetOvertimeHours(day, 0)
	if rec.OvertimeHours != 0 {
		t.Errorf("OvertimeHours = %v, want 0", rec.OvertimeHours)
	}

	raw, _, err := s.kv.Get(kv.KeyAttendanceRecords)
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	var docs []map[string]any
	json.Unmarshal(raw, &docs)
	if _, ok := docs[0]["overtimeHours"]; ok {
		t.Error("cleared overtimeHours should be absent from the stored document")
	}
}

func TestSetStatusValidation(t *testing.T) {
	s := setupAttendanceStore(t)

	if _, err := s.SetStatus("10-04-2026", model.StatusPresent); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad date err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.SetStatus("2026-04-10", "late"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.SetStatus("2026-04-10", model.StatusUnmarked); err != nil {
		t.Errorf("unmarking an unmarked day: %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	s := setupAttendanceStore(t)

	if got := s.Settings(); got != (model.AttendanceSettings{}) {
		t.Errorf("default settings = %+v, want zero", got)
	}

	got, err := s.UpdateSettings(model.AttendanceSettingsPatch{MonthlySalary: ptr(15000.0)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.UpdateSettings(model.AttendanceSettingsPatch{OvertimeRatePerHour: ptr(80.0)})
	if got.MonthlySalary != 15000 || got.OvertimeRatePerHour != 80 {
		t.Errorf("settings = %+v", got)
	}
	if _, err := s.UpdateSettings(model.AttendanceSettingsPatch{MonthlyAdvance: ptr(-1.0)}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative advance err = %v, want ErrInvalidInput", err)
	}
}

func TestSaveMonthThroughStores(t *testing.T) {
	kvs, ids := setupTestKV(t)
	att := NewAttendanceStore(kvs)
	hist := NewHistoryStore(kvs, ids)
	archiver := attendance.NewArchiver(att, hist)

	att.UpdateSettings(model.AttendanceSettingsPatch{MonthlySalary: ptr(3000.0)})
	att.SetStatus("2026-04-01", model.StatusPresent)

	if _, err := archiver.SaveMonth(2026, time.April); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := archiver.SaveMonth(2026, time.April); !errors.Is(err, attendance.ErrAlreadySaved) {
		t.Fatalf("second save err = %v, want ErrAlreadySaved", err)
	}
	history := hist.List()
	if len(history) != 1 {
		t.Fatalf("history = %d, want 1", len(history))
	}
	if history[0].Month != time.April || history[0].PresentDays != 1 {
		t.Errorf("snapshot = %+v", history[0])
	}
}

func TestHistoryOrderAndRemove(t *testing.T) {
	kvs, ids := setupTestKV(t)
	hist := NewHistoryStore(kvs, ids)

	for _, ym := range []struct {
		y int
		m time.Month
	}{{2026, time.March}, {2025, time.December}, {2026, time.May}} {
		if _, err := hist.Add(model.AttendanceHistoryRecord{Year: ym.y, Month: ym.m}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	list := hist.List()
	if list[0].Month != time.May || list[2].Year != 2025 {
		t.Errorf("order = %+v, want newest month first", list)
	}

	hist.Remove(list[0].ID)
	hist.Remove(list[0].ID)
	if n := len(hist.List()); n != 2 {
		t.Errorf("history = %d, want 2", n)
	}
}

func TestHistoryMonthsUpgradedFromZeroBased(t *testing.T) {
	kvs, ids := setupTestKV(t)

	// A document written before months were 1-based: version 0, January = 0.
	legacy := `[{"id":1,"year":2025,"month":0,"presentDays":20},{"id":2,"year":2024,"month":11}]`
	if err := kvs.Put(kv.KeyAttendanceHistory, []byte(legacy)); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	hist := NewHistoryStore(kvs, ids)
	list := hist.List()
	if len(list) != 2 {
		t.Fatalf("history = %d, want 2", len(list))
	}
	if list[0].Month != time.January || list[0].PresentDays != 20 {
		t.Errorf("first = %+v, want January with 20 present days", list[0])
	}
	if list[1].Month != time.December {
		t.Errorf("second month = %v, want December", list[1].Month)
	}

	// Loading again must not shift months a second time.
	if again := hist.List(); again[0].Month != time.January {
		t.Errorf("month after reload = %v, want January", again[0].Month)
	}
}
