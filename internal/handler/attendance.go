package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/lifemate/internal/attendance"
	"github.com/dukerupert/lifemate/internal/model"
	"github.com/dukerupert/lifemate/internal/store"
	"github.com/dukerupert/lifemate/internal/websocket"
)

type AttendanceHandler struct {
	records  *store.AttendanceStore
	history  *store.HistoryStore
	archiver *attendance.Archiver
	hub      *websocket.Hub
	loc      *time.Location
	now      func() time.Time
}

func NewAttendanceHandler(as *store.AttendanceStore, hs *store.HistoryStore, hub *websocket.Hub, loc *time.Location) *AttendanceHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceHandler{
		records:  as,
		history:  hs,
		archiver: attendance.NewArchiver(as, hs),
		hub:      hub,
		loc:      loc,
		now:      time.Now,
	}
}

type monthResponse struct {
	Records  []model.AttendanceRecord `json:"records"`
	Summary  attendance.Summary       `json:"summary"`
	Payroll  attendance.Payroll       `json:"payroll"`
	Settings model.AttendanceSettings `json:"settings"`
}

// Month returns the records and payroll of ?year=&month=, defaulting to the
// current month.
func (h *AttendanceHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.loc)
	year, month := now.Year(), now.Month()

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = time.Month(m)
	}

	prefix := attendance.MonthPrefix(year, month)
	records := []model.AttendanceRecord{}
	for _, rec := range h.records.Records() {
		if strings.HasPrefix(rec.Date, prefix) {
			records = append(records, rec)
		}
	}

	summary, payroll := h.archiver.Month(year, month)
	writeJSON(w, http.StatusOK, monthResponse{
		Records:  records,
		Summary:  summary,
		Payroll:  payroll,
		Settings: h.records.Settings(),
	})
}

// Toggle cycles a day through unmarked, present and absent.
func (h *AttendanceHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	rec, err := h.records.Toggle(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	h.broadcastDay(date, rec)
	writeJSON(w, http.StatusOK, rec)
}

type dayRequest struct {
	Status        *string  `json:"status"`
	OvertimeHours *float64 `json:"overtimeHours"`
	IsOvertimeDay *bool    `json:"isOvertimeDay"`
}

// UpdateDay sets a day's status and overtime. An empty or "none" status
// clears the day. Overtime can only be set on a present day.
func (h *AttendanceHandler) UpdateDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	var req dayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status == nil && req.OvertimeHours == nil && req.IsOvertimeDay == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	var (
		rec model.AttendanceRecord
		err error
	)
	if req.Status != nil {
		status := model.AttendanceStatus(*req.Status)
		if status == "none" {
			status = model.StatusUnmarked
		}
		rec, err = h.records.SetStatus(date, status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date or status")
			return
		}
	}
	if req.OvertimeHours != nil {
		if rec, err = h.records.SetOvertimeHours(date, *req.OvertimeHours); err != nil {
			h.writeDayError(w, err)
			return
		}
	}
	if req.IsOvertimeDay != nil {
		if rec, err = h.records.SetOvertimeDay(date, *req.IsOvertimeDay); err != nil {
			h.writeDayError(w, err)
			return
		}
	}
	h.broadcastDay(date, rec)
	writeJSON(w, http.StatusOK, rec)
}

func (h *AttendanceHandler) writeDayError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotPresent) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeStoreError(w, err, "day")
}

func (h *AttendanceHandler) broadcastDay(date string, rec model.AttendanceRecord) {
	broadcast(h.hub, websocket.NewMessage(websocket.EntityAttendance, "updated", 0, map[string]any{
		"date":   date,
		"status": string(rec.Status),
	}))
}

func (h *AttendanceHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.records.Settings())
}

func (h *AttendanceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.AttendanceSettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	settings, err := h.records.UpdateSettings(patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amounts must not be negative")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityAttendance, "settings_updated", 0, nil))
	writeJSON(w, http.StatusOK, settings)
}

func (h *AttendanceHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.history.List())
}

// SaveHistory archives the payroll of {year, month}. A month can be saved once.
func (h *AttendanceHandler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rec, err := h.archiver.SaveMonth(req.Year, time.Month(req.Month))
	switch {
	case errors.Is(err, attendance.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "month already saved")
		return
	case errors.Is(err, attendance.ErrInvalidMonth):
		writeError(w, http.StatusBadRequest, "month must be 1-12")
		return
	case errors.Is(err, attendance.ErrEmptyMonth):
		writeError(w, http.StatusBadRequest, "nothing to save for this month")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to save month")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityHistory, "created", rec.ID, nil))
	writeJSON(w, http.StatusCreated, rec)
}

func (h *AttendanceHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	h.history.Remove(id)

	broadcast(h.hub, websocket.NewMessage(websocket.EntityHistory, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
