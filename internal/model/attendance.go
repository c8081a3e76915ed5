package model

import "time"

// DateLayout is the layout of AttendanceRecord.Date.
const DateLayout = "2006-01-02"

type AttendanceStatus string

const (
	StatusUnmarked AttendanceStatus = ""
	StatusPresent  AttendanceStatus = "present"
	StatusAbsent   AttendanceStatus = "absent"
)

// Valid reports whether s is a status a record can hold.
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

type AttendanceRecord struct {
	Date          string           `json:"date"`
	Status        AttendanceStatus `json:"status"`
	OvertimeHours float64          `json:"overtimeHours,omitempty"`
	IsOvertimeDay bool             `json:"isOvertimeDay,omitempty"`
}

type AttendanceSettings struct {
	MonthlySalary       float64 `json:"monthlySalary"`
	MonthlyAdvance      float64 `json:"monthlyAdvance"`
	OvertimeRatePerHour float64 `json:"overtimeRatePerHour"`
}

type AttendanceSettingsPatch struct {
	MonthlySalary       *float64 `json:"monthlySalary,omitempty"`
	MonthlyAdvance      *float64 `json:"monthlyAdvance,omitempty"`
	OvertimeRatePerHour *float64 `json:"overtimeRatePerHour,omitempty"`
}

// AttendanceHistoryRecord is the archived payroll of one month. Month is 1-12.
type AttendanceHistoryRecord struct {
	ID                  int64      `json:"id"`
	Year                int        `json:"year"`
	Month               time.Month `json:"month"`
	PresentDays         int        `json:"presentDays"`
	AbsentDays          int        `json:"absentDays"`
	MonthlySalary       float64    `json:"monthlySalary"`
	MonthlyAdvance      float64    `json:"monthlyAdvance"`
	EarnedAmount        float64    `json:"earnedAmount"`
	NetPayable          float64    `json:"netPayable"`
	TotalOvertimeHours  float64    `json:"totalOvertimeHours"`
	OvertimeRatePerHour float64    `json:"overtimeRatePerHour"`
	TotalOvertimePay    float64    `json:"totalOvertimePay"`
	TotalOvertimeDays   int        `json:"totalOvertimeDays"`
	TotalOvertimeDayPay float64    `json:"totalOvertimeDayPay"`
}
