package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Short human-readable date layout used in rendered messages ("Mar 14").
const MessageDateLayout = "Jan 2"

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Values available to message templates.
type MessageVars struct {
	MinDate    time.Time
	MaxDate    time.Time
	MinDays    int
	MaxDays    int
	Carrier    string
	RuleName   string
	Country    string
	CutoffTime string
}

// Map exposes the recognized placeholder names and their rendered values.
func (v MessageVars) Map() map[string]string {
	minDate := v.MinDate.Format(MessageDateLayout)
	maxDate := v.MaxDate.Format(MessageDateLayout)

	dateRange := minDate + " - " + maxDate
	if minDate == maxDate {
		dateRange = minDate
	}

	return map[string]string{
		"min_date":    minDate,
		"max_date":    maxDate,
		"min_days":    strconv.Itoa(v.MinDays),
		"max_days":    strconv.Itoa(v.MaxDays),
		"carrier":     v.Carrier,
		"rule_name":   v.RuleName,
		"country":     v.Country,
		"cutoff_time": v.CutoffTime,
		"date_range":  dateRange,
	}
}

// Render substitutes {name} placeholders found in vars.
// Unknown placeholders are left verbatim.
func Render(template string, vars map[string]string) string {
	if !strings.Contains(template, "{") {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if val, ok := vars[name]; ok {
			return val
		}
		return tok
	})
}

// RenderMessage renders template, or the default sentence when template is blank.
func RenderMessage(template string, v MessageVars) string {
	if strings.TrimSpace(template) == "" {
		return DefaultMessage(v.MinDays, v.MaxDays)
	}
	return Render(template, v.Map())
}

// DefaultMessage is used for rules without a custom template.
// TODO: confirm with product whether same-day rules (0 days) should read "today".
func DefaultMessage(minDays, maxDays int) string {
	if minDays == maxDays {
		return fmt.Sprintf("Delivery in %d business day(s)", minDays)
	}
	return fmt.Sprintf("Delivery in %d-%d business days", minDays, maxDays)
}
