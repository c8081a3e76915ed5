package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/lifemate/internal/model"
)

// ErrAlreadySaved reports that a month already has an archived snapshot.
var ErrAlreadySaved = errors.New("month already saved")

// ErrInvalidMonth reports a month outside 1-12.
var ErrInvalidMonth = errors.New("invalid month")

// ErrEmptyMonth reports a month with no present or absent days.
var ErrEmptyMonth = errors.New("month has no attendance")

// Source supplies the live attendance state.
type Source interface {
	Records() []model.AttendanceRecord
	Settings() model.AttendanceSettings
}

// History stores archived months. Add must return ErrAlreadySaved, leaving
// the history untouched, when year/month is already present.
type History interface {
	Add(rec model.AttendanceHistoryRecord) (model.AttendanceHistoryRecord, error)
}

type Archiver struct {
	source  Source
	history History
}

func NewArchiver(source Source, history History) *Archiver {
	return &Archiver{source: source, history: history}
}

// Month summarizes and prices year/month from the live records.
func (a *Archiver) Month(year int, month time.Month) (Summary, Payroll) {
	settings := a.source.Settings()
	s := Summarize(a.source.Records(), year, month)
	return s, Compute(s, settings, DaysInMonth(year, month))
}

// SaveMonth archives year/month. It never overwrites: a second save of the
// same month returns ErrAlreadySaved. A month with nothing marked returns
// ErrEmptyMonth and is not archived.
func (a *Archiver) SaveMonth(year int, month time.Month) (model.AttendanceHistoryRecord, error) {
	if month < time.January || month > time.December {
		return model.AttendanceHistoryRecord{}, ErrInvalidMonth
	}

	settings := a.source.Settings()
	s := Summarize(a.source.Records(), year, month)
	if s.PresentDays == 0 && s.AbsentDays == 0 {
		return model.AttendanceHistoryRecord{}, ErrEmptyMonth
	}
	p := Compute(s, settings, DaysInMonth(year, month))

	rec, err := a.history.Add(Snapshot(s, settings, p))
	if errors.Is(err, ErrAlreadySaved) {
		return model.AttendanceHistoryRecord{}, err
	}
	if err != nil {
		return model.AttendanceHistoryRecord{}, fmt.Errorf("save month %d-%02d: %w", year, int(month), err)
	}
	return rec, nil
}
