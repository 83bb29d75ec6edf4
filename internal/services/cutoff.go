package services

import (
	"delivery-eta-service/internal/domain"
	"time"
)

// ResolveEffectiveOrderDate returns day zero for projections.
//
// The order timestamp is read in loc (UTC when nil). Without a cutoff the
// local order date is returned. With one, an order placed strictly after
// HH:MM local time rolls over to the next calendar day.
func ResolveEffectiveOrderDate(orderAt time.Time, cutoff *domain.Cutoff, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := orderAt.In(loc)
	day := domain.DateOf(local)

	if cutoff == nil {
		return day
	}

	y, m, d := local.Date()
	deadline := time.Date(y, m, d, cutoff.Hour, cutoff.Minute, 0, 0, loc)
	if local.After(deadline) {
		return day.AddDate(0, 0, 1)
	}
	return day
}
