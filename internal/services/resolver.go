package services

import (
	"delivery-eta-service/internal/domain"
	"slices"
	"strings"
)

// SortRules orders rules for resolution: priority descending, then newest
// creation first. Rule ID breaks any remaining tie so the order is stable
// across loads.
func SortRules(rules []domain.DeliveryRule) {
	slices.SortStableFunc(rules, func(a, b domain.DeliveryRule) int {
		if a.Priority != b.Priority {
			if a.Priority > b.Priority {
				return -1
			}
			return 1
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Resolve selects the delivery rule for dest from rules ordered by SortRules.
//
// The first active rule passing country, region and postal-code checks wins;
// a more specific lower-priority rule never overrides it. When no rule passes
// all three, the first rule matching on country alone is returned. ok is
// false only when no rule serves the destination country at all.
func Resolve(rules []domain.DeliveryRule, dest domain.Destination) (domain.DeliveryRule, bool) {
	for _, r := range rules {
		if !r.Active || !r.Countries.Contains(dest.Country) {
			continue
		}
		if !matchesOptional(r.Regions, dest.Region) {
			continue
		}
		if !matchesOptional(r.PostalCodes, dest.PostalCode) {
			continue
		}
		return r, true
	}

	// Fallback: an unmatched region or postal filter should not leave a
	// served country without an estimate.
	for _, r := range rules {
		if r.Active && r.Countries.Contains(dest.Country) {
			return r, true
		}
	}

	return domain.DeliveryRule{}, false
}

// matchesOptional passes when the rule has no constraint or the destination
// carries no value to test against.
func matchesOptional(set domain.StringSet, value string) bool {
	if set.Empty() || value == "" {
		return true
	}
	return set.Has(value)
}
