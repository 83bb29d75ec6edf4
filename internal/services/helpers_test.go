package services

import (
	"delivery-eta-service/internal/domain"
	"testing"
	"time"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse timestamp %q: %v", s, err)
	}
	return v
}

// scenarioRule is the rule used by the documented cutoff scenarios.
func scenarioRule() domain.DeliveryRule {
	return domain.DeliveryRule{
		ID:              "r1",
		Name:            "Standard",
		Active:          true,
		Countries:       domain.NewCountrySet([]string{"US"}),
		Cutoff:          &domain.Cutoff{Hour: 14, Minute: 0},
		Location:        time.UTC,
		MinDays:         2,
		MaxDays:         3,
		ProcessingDays:  1,
		ExcludeWeekends: true,
		ExcludeHolidays: true,
	}
}
