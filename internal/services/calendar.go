package services

import (
	"delivery-eta-service/internal/domain"
	"time"
)

// IsExcluded reports whether date is skipped when counting business days.
//
// Weekends are excluded only when excludeWeekends is set. Holiday exclusion is
// controlled by the caller: pass the zero HolidaySet when a rule disables it.
func IsExcluded(date time.Time, excludeWeekends bool, holidays domain.HolidaySet) bool {
	if excludeWeekends {
		switch date.Weekday() {
		case time.Saturday, time.Sunday:
			return true
		}
	}
	return holidays.Contains(date)
}
