package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/lifemate/internal/attendance"
	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

// ErrNotPresent reports an overtime change on a day not marked present.
var ErrNotPresent = errors.New("day is not marked present")

type AttendanceStore struct {
	kv *kv.Store
	mu sync.Mutex
}

func NewAttendanceStore(kvs *kv.Store) *AttendanceStore {
	return &AttendanceStore{kv: kvs}
}

func (s *AttendanceStore) load() []model.AttendanceRecord {
	return kv.Load(s.kv, kv.KeyAttendanceRecords, []model.AttendanceRecord{})
}

func (s *AttendanceStore) save(records []model.AttendanceRecord) {
	kv.Save(s.kv, kv.KeyAttendanceRecords, records)
}

func validDate(date string) bool {
	_, err := time.Parse(model.DateLayout, date)
	return err == nil
}

// Records returns every marked day.
func (s *AttendanceStore) Records() []model.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Record returns the record for date, if the day is marked.
func (s *AttendanceStore) Record(date string) (model.AttendanceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.load() {
		if r.Date == date {
			return r, true
		}
	}
	return model.AttendanceRecord{}, false
}

// SetStatus marks date. StatusUnmarked deletes the record; marking a day
// absent clears its overtime.
func (s *AttendanceStore) SetStatus(date string, status model.AttendanceStatus) (model.AttendanceRecord, error) {
	if !validDate(date) {
		return model.AttendanceRecord{}, ErrInvalidInput
	}
	if status != model.StatusUnmarked && !status.Valid() {
		return model.AttendanceRecord{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatus(s.load(), date, status), nil
}

func (s *AttendanceStore) setStatus(records []model.AttendanceRecord, date string, status model.AttendanceStatus) model.AttendanceRecord {
	i := indexOfDay(records, date)

	if status == model.StatusUnmarked {
		if i >= 0 {
			s.save(append(records[:i], records[i+1:]...))
		}
		return model.AttendanceRecord{Date: date}
	}

	if i < 0 {
		rec := model.AttendanceRecord{Date: date, Status: status}
		s.save(append(records, rec))
		return rec
	}

	records[i].Status = status
	if status == model.StatusAbsent {
		records[i].OvertimeHours = 0
		records[i].IsOvertimeDay = false
	}
	s.save(records)
	return records[i]
}

// Toggle advances date one step through unmarked -> present -> absent -> unmarked.
func (s *AttendanceStore) Toggle(date string) (model.AttendanceRecord, error) {
	if !validDate(date) {
		return model.AttendanceRecord{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	current := model.StatusUnmarked
	if i := indexOfDay(records, date); i >= 0 {
		current = records[i].Status
	}
	return s.setStatus(records, date, attendance.NextStatus(current)), nil
}

// SetOvertimeHours sets the overtime of a present day. Zero or negative
// hours clear it.
func (s *AttendanceStore) SetOvertimeHours(date string, hours float64) (model.AttendanceRecord, error) {
	return s.updatePresent(date, func(r *model.AttendanceRecord) {
		if hours > 0 {
			r.OvertimeHours = hours
		} else {
			r.OvertimeHours = 0
		}
	})
}

// SetOvertimeDay flags or unflags a present day as an OT day.
func (s *AttendanceStore) SetOvertimeDay(date string, on bool) (model.AttendanceRecord, error) {
	return s.updatePresent(date, func(r *model.AttendanceRecord) {
		r.IsOvertimeDay = on
	})
}

func (s *AttendanceStore) updatePresent(date string, fn func(*model.AttendanceRecord)) (model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	i := indexOfDay(records, date)
	if i < 0 {
		return model.AttendanceRecord{}, ErrNotFound
	}
	if records[i].Status != model.StatusPresent {
		return model.AttendanceRecord{}, ErrNotPresent
	}
	fn(&records[i])
	s.save(records)
	return records[i], nil
}

// Settings returns the salary settings, zero-valued until first set.
func (s *AttendanceStore) Settings() model.AttendanceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return kv.Load(s.kv, kv.KeyAttendanceSettings, model.AttendanceSettings{})
}

// UpdateSettings merges patch into the settings. Negative amounts are rejected.
func (s *AttendanceStore) UpdateSettings(patch model.AttendanceSettingsPatch) (model.AttendanceSettings, error) {
	for _, v := range []*float64{patch.MonthlySalary, patch.MonthlyAdvance, patch.OvertimeRatePerHour} {
		if v != nil && *v < 0 {
			return model.AttendanceSettings{}, ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := kv.Load(s.kv, kv.KeyAttendanceSettings, model.AttendanceSettings{})
	if patch.MonthlySalary != nil {
		settings.MonthlySalary = *patch.MonthlySalary
	}
	if patch.MonthlyAdvance != nil {
		settings.MonthlyAdvance = *patch.MonthlyAdvance
	}
	if patch.OvertimeRatePerHour != nil {
		settings.OvertimeRatePerHour = *patch.OvertimeRatePerHour
	}
	kv.Save(s.kv, kv.KeyAttendanceSettings, settings)
	return settings, nil
}

func indexOfDay(records []model.AttendanceRecord, date string) int {
	for i, r := range records {
		if r.Date == date {
			return i
		}
	}
	return -1
}

// HistoryStore holds archived monthly payroll snapshots.
type HistoryStore struct {
	kv  *kv.Store
	ids *idgen.Generator
	mu  sync.Mutex
}

func NewHistoryStore(kvs *kv.Store, ids *idgen.Generator) *HistoryStore {
	kvs.Register(kv.KeyAttendanceHistory, upgradeHistoryMonths)
	s := &HistoryStore{kv: kvs, ids: ids}
	for _, r := range s.load() {
		ids.Observe(r.ID)
	}
	return s
}

func (s *HistoryStore) load() []model.AttendanceHistoryRecord {
	return kv.Load(s.kv, kv.KeyAttendanceHistory, []model.AttendanceHistoryRecord{})
}

// List returns archived months, newest month first.
func (s *HistoryStore) List() []model.AttendanceHistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add archives rec. A second snapshot of the same year/month is rejected with
// attendance.ErrAlreadySaved and the history is left as it was.
func (s *HistoryStore) Add(rec model.AttendanceHistoryRecord) (model.AttendanceHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	for _, h := range history {
		if h.Year == rec.Year && h.Month == rec.Month {
			return model.AttendanceHistoryRecord{}, attendance.ErrAlreadySaved
		}
	}

	rec.ID = s.ids.Next()
	history = append([]model.AttendanceHistoryRecord{rec}, history...)
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].Year != history[j].Year {
			return history[i].Year > history[j].Year
		}
		return history[i].Month > history[j].Month
	})
	kv.Save(s.kv, kv.KeyAttendanceHistory, history)
	return rec, nil
}

// Remove deletes a snapshot. Removing a missing snapshot does nothing.
func (s *HistoryStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	kept := history[:0]
	for _, h := range history {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	if len(kept) != len(history) {
		kv.Save(s.kv, kv.KeyAttendanceHistory, kept)
	}
}

// upgradeHistoryMonths moves stored months from 0-11 to 1-12.
func upgradeHistoryMonths(raw []byte) ([]byte, error) {
	var docs []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	for _, d := range docs {
		var m int
		if v, ok := d["month"]; ok {
			if err := json.Unmarshal(v, &m); err != nil {
				return nil, fmt.Errorf("decode month: %w", err)
			}
		}
		d["month"] = json.RawMessage(fmt.Sprint(m + 1))
	}
	return json.Marshal(docs)
}
