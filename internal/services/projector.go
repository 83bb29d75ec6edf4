package services

import (
	"delivery-eta-service/internal/domain"
	"fmt"
	"time"
)

// maxCalendarDays bounds the walk in AddCountableDays. With every day
// excluded the target can never be reached; ten years of calendar days is
// far beyond any valid rule horizon.
const maxCalendarDays = 10 * 366

// AddCountableDays advances start by days countable (non-excluded) days.
//
// The walk moves one calendar day at a time and only counts days that
// IsExcluded rejects, so any non-zero result is itself a countable day.
// days <= 0 returns start unchanged: same-day rules must not be pushed to
// the next business day. An error wrapping domain.ErrInvalidRule is returned
// when no countable day is found within maxCalendarDays.
func AddCountableDays(start time.Time, days int, excludeWeekends bool, holidays domain.HolidaySet) (time.Time, error) {
	current := domain.DateOf(start)
	if days <= 0 {
		return current, nil
	}

	counted := 0
	for walked := 0; counted < days; walked++ {
		if walked >= maxCalendarDays {
			return time.Time{}, fmt.Errorf("%w: counted %d of %d days from %s within %d calendar days",
				domain.ErrInvalidRule, counted, days, start.Format(time.DateOnly), maxCalendarDays)
		}
		current = current.AddDate(0, 0, 1)
		if !IsExcluded(current, excludeWeekends, holidays) {
			counted++
		}
	}
	return current, nil
}
