package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WildcardCountry matches every destination country.
const WildcardCountry = "*"

// MaxHorizonDays caps ProcessingDays+MaxDays. Delivery promises further out
// than a year are treated as corrupted rule data.
const MaxHorizonDays = 365

// Represents a merchant-configured delivery rule.
// Rules are owned by the merchant and read-only to the ETA engine; list-valued
// fields are decoded into typed sets once, when the request snapshot is built.
type DeliveryRule struct {
	ID              string
	Name            string
	Active          bool
	Priority        int
	CreatedAt       time.Time
	Countries       CountrySet
	Regions         StringSet
	PostalCodes     StringSet
	Carrier         string
	Cutoff          *Cutoff
	Location        *time.Location
	MinDays         int
	MaxDays         int
	ProcessingDays  int
	ExcludeWeekends bool
	ExcludeHolidays bool
	MessageTemplate string
	Display         map[string]string
}

// Validate reports day-count corruption that must never reach the projector.
func (r DeliveryRule) Validate() error {
	if r.MinDays < 0 || r.MaxDays < 0 || r.ProcessingDays < 0 {
		return fmt.Errorf("%w: rule %q has negative day counts (min=%d max=%d processing=%d)",
			ErrInvalidRule, r.ID, r.MinDays, r.MaxDays, r.ProcessingDays)
	}
	if r.MinDays > r.MaxDays {
		return fmt.Errorf("%w: rule %q has min_days=%d greater than max_days=%d",
			ErrInvalidRule, r.ID, r.MinDays, r.MaxDays)
	}
	if r.ProcessingDays+r.MaxDays > MaxHorizonDays {
		return fmt.Errorf("%w: rule %q spans %d days (processing=%d max=%d), limit is %d",
			ErrInvalidRule, r.ID, r.ProcessingDays+r.MaxDays, r.ProcessingDays, r.MaxDays, MaxHorizonDays)
	}
	return nil
}

// Zone returns the rule's declared timezone, or UTC when none was declared.
func (r DeliveryRule) Zone() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// Daily order deadline, interpreted in the owning rule's timezone.
type Cutoff struct {
	Hour   int
	Minute int
}

// ParseCutoff parses an "HH:MM" 24-hour clock value.
func ParseCutoff(s string) (Cutoff, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Cutoff{}, fmt.Errorf("parse cutoff %q: expected HH:MM", s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Cutoff{}, fmt.Errorf("parse cutoff %q: invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Cutoff{}, fmt.Errorf("parse cutoff %q: invalid minute", s)
	}

	return Cutoff{Hour: h, Minute: m}, nil
}

func (c Cutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Set of normalized codes (regions, postal codes).
// A nil or empty set is treated as "no constraint" by the resolver.
type StringSet map[string]struct{}

func NewStringSet(values []string, normalize func(string) string) StringSet {
	if len(values) == 0 {
		return nil
	}

	s := make(StringSet, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Empty() bool { return len(s) == 0 }

// Set of ISO country codes, or the wildcard.
type CountrySet struct {
	Any   bool
	Codes StringSet
}

func NewCountrySet(codes []string) CountrySet {
	for _, c := range codes {
		if strings.TrimSpace(c) == WildcardCountry {
			return CountrySet{Any: true}
		}
	}
	return CountrySet{Codes: NewStringSet(codes, NormalizeCode)}
}

func (c CountrySet) Contains(country string) bool {
	if c.Any {
		return true
	}
	return c.Codes.Has(NormalizeCode(country))
}

// NormalizeCode upper-cases and trims country and region codes.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizePostalCode upper-cases a postal code and drops inner whitespace,
// so "sw1a 1aa" and "SW1A1AA" compare equal.
func NormalizePostalCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Shipping destination supplied by the caller. Country is required.
type Destination struct {
	Country    string
	Region     string
	PostalCode string
}

func NewDestination(country, region, postalCode string) Destination {
	return Destination{
		Country:    NormalizeCode(country),
		Region:     NormalizeCode(region),
		PostalCode: NormalizePostalCode(postalCode),
	}
}
