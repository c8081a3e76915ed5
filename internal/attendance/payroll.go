package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/lifemate/internal/model"
)

// Summary is the attendance of one calendar month.
type Summary struct {
	Year               int        `json:"year"`
	Month              time.Month `json:"month"`
	PresentDays        int        `json:"presentDays"`
	AbsentDays         int        `json:"absentDays"`
	TotalOvertimeHours float64    `json:"totalOvertimeHours"`
	TotalOvertimeDays  int        `json:"totalOvertimeDays"`
}

// Payroll is the pay derived from a Summary and the salary settings.
type Payroll struct {
	DaysInMonth         int     `json:"daysInMonth"`
	DailyRate           float64 `json:"dailyRate"`
	EarnedAmount        float64 `json:"earnedAmount"`
	TotalOvertimePay    float64 `json:"totalOvertimePay"`
	TotalOvertimeDayPay float64 `json:"totalOvertimeDayPay"`
	MonthlyAdvance      float64 `json:"monthlyAdvance"`
	NetPayable          float64 `json:"netPayable"`
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthPrefix is the date prefix shared by every record of a month.
func MonthPrefix(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d-", year, int(month))
}

// Summarize counts the records that fall in year/month. Overtime hours and
// OT days only count on present days.
func Summarize(records []model.AttendanceRecord, year int, month time.Month) Summary {
	s := Summary{Year: year, Month: month}
	prefix := MonthPrefix(year, month)
	hours := decimal.Zero

	for _, r := range records {
		if !strings.HasPrefix(r.Date, prefix) {
			continue
		}
		switch r.Status {
		case model.StatusPresent:
			s.PresentDays++
			hours = hours.Add(decimal.NewFromFloat(r.OvertimeHours))
			if r.IsOvertimeDay {
				s.TotalOvertimeDays++
			}
		case model.StatusAbsent:
			s.AbsentDays++
		}
	}
	s.TotalOvertimeHours = hours.InexactFloat64()
	return s
}

// Compute derives the month's pay. The daily rate is zero when there is no
// salary or no days.
func Compute(s Summary, settings model.AttendanceSettings, daysInMonth int) Payroll {
	salary := decimal.NewFromFloat(settings.MonthlySalary)
	advance := decimal.NewFromFloat(settings.MonthlyAdvance)
	otRate := decimal.NewFromFloat(settings.OvertimeRatePerHour)

	dailyRate := decimal.Zero
	if salary.IsPositive() && daysInMonth > 0 {
		dailyRate = salary.Div(decimal.NewFromInt(int64(daysInMonth)))
	}

	earned := dailyRate.Mul(decimal.NewFromInt(int64(s.PresentDays)))
	otPay := decimal.NewFromFloat(s.TotalOvertimeHours).Mul(otRate)
	otDayPay := decimal.NewFromInt(int64(s.TotalOvertimeDays)).Mul(dailyRate)
	net := earned.Add(otPay).Add(otDayPay).Sub(advance)

	return Payroll{
		DaysInMonth:         daysInMonth,
		DailyRate:           dailyRate.InexactFloat64(),
		EarnedAmount:        earned.InexactFloat64(),
		TotalOvertimePay:    otPay.InexactFloat64(),
		TotalOvertimeDayPay: otDayPay.InexactFloat64(),
		MonthlyAdvance:      advance.InexactFloat64(),
		NetPayable:          net.InexactFloat64(),
	}
}

// Snapshot builds the archive record for a month. The id is left for the
// history store to assign.
func Snapshot(s Summary, settings model.AttendanceSettings, p Payroll) model.AttendanceHistoryRecord {
	return model.AttendanceHistoryRecord{
		Year:                s.Year,
		Month:               s.Month,
		PresentDays:         s.PresentDays,
		AbsentDays:          s.AbsentDays,
		MonthlySalary:       settings.MonthlySalary,
		MonthlyAdvance:      settings.MonthlyAdvance,
		EarnedAmount:        p.EarnedAmount,
		NetPayable:          p.NetPayable,
		TotalOvertimeHours:  s.TotalOvertimeHours,
		OvertimeRatePerHour: settings.OvertimeRatePerHour,
		TotalOvertimePay:    p.TotalOvertimePay,
		TotalOvertimeDays:   s.TotalOvertimeDays,
		TotalOvertimeDayPay: p.TotalOvertimeDayPay,
	}
}
