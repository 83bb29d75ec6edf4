package services

import (
	"delivery-eta-service/internal/domain"
	"fmt"
	"time"
)

// Calculate computes the delivery window for one order line shipped to dest.
//
// ok is false when no rule serves the destination; callers degrade
// gracefully. An error is returned only for corrupted rule data.
func Calculate(
	snap domain.Snapshot,
	dest domain.Destination,
	orderAt time.Time,
) (domain.ETAResult, bool, error) {
	rule, ok := Resolve(snap.Rules, dest)
	if !ok {
		return domain.ETAResult{}, false, nil
	}

	res, err := Project(rule, snap.Holidays, dest, orderAt)
	if err != nil {
		return domain.ETAResult{}, false, fmt.Errorf("calculate eta: %w", err)
	}
	return res, true, nil
}

// Project applies a single resolved rule: cutoff, then processing days, then
// the min/max transit windows measured from the processing-complete date.
func Project(
	rule domain.DeliveryRule,
	holidays []domain.Holiday,
	dest domain.Destination,
	orderAt time.Time,
) (domain.ETAResult, error) {
	if err := rule.Validate(); err != nil {
		return domain.ETAResult{}, fmt.Errorf("project rule: %w", err)
	}

	var excluded domain.HolidaySet
	if rule.ExcludeHolidays {
		excluded = domain.NewHolidaySet(holidays, dest.Country)
	}

	dayZero := ResolveEffectiveOrderDate(orderAt, rule.Cutoff, rule.Zone())
	processed, err := AddCountableDays(dayZero, rule.ProcessingDays, rule.ExcludeWeekends, excluded)
	if err != nil {
		return domain.ETAResult{}, fmt.Errorf("project rule %q: processing: %w", rule.ID, err)
	}

	// Both windows share the same base and a monotonic projector, so
	// minDate <= maxDate follows from MinDays <= MaxDays.
	minDate, err := AddCountableDays(processed, rule.MinDays, rule.ExcludeWeekends, excluded)
	if err != nil {
		return domain.ETAResult{}, fmt.Errorf("project rule %q: min window: %w", rule.ID, err)
	}
	maxDate, err := AddCountableDays(processed, rule.MaxDays, rule.ExcludeWeekends, excluded)
	if err != nil {
		return domain.ETAResult{}, fmt.Errorf("project rule %q: max window: %w", rule.ID, err)
	}

	vars := MessageVars{
		MinDate:  minDate,
		MaxDate:  maxDate,
		MinDays:  rule.MinDays,
		MaxDays:  rule.MaxDays,
		Carrier:  rule.Carrier,
		RuleName: rule.Name,
		Country:  dest.Country,
	}
	if rule.Cutoff != nil {
		vars.CutoffTime = rule.Cutoff.String()
	}

	return domain.ETAResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Carrier:  rule.Carrier,
		MinDate:  minDate,
		MaxDate:  maxDate,
		MinDays:  rule.MinDays,
		MaxDays:  rule.MaxDays,
		Message:  RenderMessage(rule.MessageTemplate, vars),
		Display:  rule.Display,
	}, nil
}
