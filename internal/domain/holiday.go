package domain

import "time"

// Represents a merchant-declared non-delivery day.
// Recurring holidays match the same month and day every year; otherwise
// only the exact date matches. An empty Country applies to every destination.
type Holiday struct {
	Name      string
	Date      time.Time
	Recurring bool
	Country   string
}

type monthDay struct {
	month time.Month
	day   int
}

// Lookup structure for holiday exclusion. The zero value excludes nothing.
type HolidaySet struct {
	exact     map[time.Time]struct{}
	recurring map[monthDay]struct{}
}

// NewHolidaySet indexes the holidays that apply to destination country.
func NewHolidaySet(holidays []Holiday, country string) HolidaySet {
	country = NormalizeCode(country)

	s := HolidaySet{
		exact:     make(map[time.Time]struct{}),
		recurring: make(map[monthDay]struct{}),
	}
	for _, h := range holidays {
		if hc := NormalizeCode(h.Country); hc != "" && hc != country {
			continue
		}
		d := DateOf(h.Date)
		if h.Recurring {
			s.recurring[monthDay{d.Month(), d.Day()}] = struct{}{}
			continue
		}
		s.exact[d] = struct{}{}
	}
	return s
}

func (s HolidaySet) Contains(date time.Time) bool {
	d := DateOf(date)
	if _, ok := s.exact[d]; ok {
		return true
	}
	_, ok := s.recurring[monthDay{d.Month(), d.Day()}]
	return ok
}

func (s HolidaySet) Len() int { return len(s.exact) + len(s.recurring) }

// DateOf truncates t to its calendar date, keeping t's own year/month/day
// and discarding the clock and location. Dates are carried as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
