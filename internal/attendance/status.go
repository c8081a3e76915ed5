package attendance

import "github.com/dukerupert/lifemate/internal/model"

// NextStatus advances a day through the toggle cycle
// unmarked -> present -> absent -> unmarked.
func NextStatus(current model.AttendanceStatus) model.AttendanceStatus {
	switch current {
	case model.StatusUnmarked:
		return model.StatusPresent
	case model.StatusPresent:
		return model.StatusAbsent
	default:
		return model.StatusUnmarked
	}
}
