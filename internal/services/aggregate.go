package services

import "delivery-eta-service/internal/domain"

// Aggregate picks one of results according to policy.
//
// PolicyLatest selects the greatest MaxDate, PolicyEarliest the smallest
// MinDate. Ties keep the first occurrence. The returned value is always one
// of the inputs; ok is false for an empty input.
func Aggregate(results []domain.ETAResult, policy domain.AggregationPolicy) (domain.ETAResult, bool) {
	if len(results) == 0 {
		return domain.ETAResult{}, false
	}

	best := 0
	for i := 1; i < len(results); i++ {
		switch policy {
		case domain.PolicyEarliest:
			if results[i].MinDate.Before(results[best].MinDate) {
				best = i
			}
		default:
			if results[i].MaxDate.After(results[best].MaxDate) {
				best = i
			}
		}
	}

	return results[best], true
}
