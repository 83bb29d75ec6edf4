package domain

import (
	"strings"
	"time"
)

// Estimated delivery window computed for a single order line.
// It is ephemeral and never persisted.
type ETAResult struct {
	RuleID   string
	RuleName string
	Carrier  string
	MinDate  time.Time
	MaxDate  time.Time
	MinDays  int
	MaxDays  int
	Message  string
	Display  map[string]string
}

// Policy for collapsing per-line ETAs into one cart or checkout ETA.
type AggregationPolicy string

const (
	// The slowest line governs the combined shipment promise.
	PolicyLatest AggregationPolicy = "latest"
	// The fastest line governs.
	PolicyEarliest AggregationPolicy = "earliest"
)

// ParsePolicy falls back to PolicyLatest for empty or unknown values.
func ParsePolicy(s string) AggregationPolicy {
	switch AggregationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyEarliest:
		return PolicyEarliest
	default:
		return PolicyLatest
	}
}

// Storefront surface that can be individually enabled per shop.
type Surface string

const (
	SurfaceProduct  Surface = "product"
	SurfaceCart     Surface = "cart"
	SurfaceCheckout Surface = "checkout"
)

// NormalizeShop canonicalizes a shop domain for storage, cache keys and
// lookups. Shop domains are case-insensitive.
func NormalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

// Per-shop display and aggregation settings.
type ShopSettings struct {
	Shop            string
	Policy          AggregationPolicy
	ProductEnabled  bool
	CartEnabled     bool
	CheckoutEnabled bool
}

func (s ShopSettings) Enabled(surface Surface) bool {
	switch surface {
	case SurfaceProduct:
		return s.ProductEnabled
	case SurfaceCart:
		return s.CartEnabled
	case SurfaceCheckout:
		return s.CheckoutEnabled
	default:
		return false
	}
}

// Immutable, request-scoped view of one shop's rules, holidays and settings.
// Rules hold only active, well-formed entries, ordered by priority (desc)
// and then creation time (newest first).
type Snapshot struct {
	Shop     string
	Rules    []DeliveryRule
	Holidays []Holiday
	Settings ShopSettings
}
