package dto

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidOrderDate = errors.New("order_date must be an RFC 3339 timestamp or a YYYY-MM-DD date")

// OrderDate accepts an RFC 3339 timestamp or a calendar date. A bare date
// means the start of that day in UTC.
type OrderDate struct {
	time.Time
}

func (d *OrderDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidOrderDate
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		d.Time = t
		return nil
	}
	return ErrInvalidOrderDate
}

type ETARequest struct {
	CountryCode string     `json:"country_code"`
	Region      string     `json:"region"`
	PostalCode  string     `json:"postal_code"`
	ProductID   string     `json:"product_id"`
	VariantID   string     `json:"variant_id"`
	OrderDate   *OrderDate `json:"order_date"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type CartRequest struct {
	CountryCode string     `json:"country_code"`
	Region      string     `json:"region"`
	PostalCode  string     `json:"postal_code"`
	Items       []CartItem `json:"items"`
	OrderDate   *OrderDate `json:"order_date"`
}

// Dates are calendar dates ("2006-01-02").
type ETAResponse struct {
	MinDate  string            `json:"min_date"`
	MaxDate  string            `json:"max_date"`
	MinDays  int               `json:"min_days"`
	MaxDays  int               `json:"max_days"`
	Message  string            `json:"message"`
	RuleID   string            `json:"rule_id"`
	RuleName string            `json:"rule_name"`
	Carrier  string            `json:"carrier,omitempty"`
	Display  map[string]string `json:"display,omitempty"`
}

type ETAEnvelope struct {
	Success bool         `json:"success"`
	ETA     *ETAResponse `json:"eta,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
}

type LineResponse struct {
	ProductID string       `json:"product_id"`
	VariantID string       `json:"variant_id,omitempty"`
	Matched   bool         `json:"matched"`
	ETA       *ETAResponse `json:"eta,omitempty"`
}

type CartEnvelope struct {
	Success      bool           `json:"success"`
	Policy       string         `json:"policy,omitempty"`
	ETA          *ETAResponse   `json:"eta,omitempty"`
	Lines        []LineResponse `json:"lines,omitempty"`
	MatchedLines int            `json:"matched_lines"`
	Error        string         `json:"error,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// Error codes carried in the "error" field.
const (
	ErrCodeValidation   = "validation_error"
	ErrCodeNotEnabled   = "not_enabled"
	ErrCodeNoRule       = "no_rule_matched"
	ErrCodeShopNotFound = "shop_not_found"
	ErrCodeInternal     = "internal_error"
	ErrCodeMethod       = "method_not_allowed"
	ErrCodeRateLimited  = "rate_limited"
)
