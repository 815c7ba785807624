package billing

import (
	"strings"
	"time"
)

// Filter selects bills for the list page. Zero values match everything.
type Filter struct {
	// Status is a status code, or "" / "all" for every status.
	Status string
	// Query matches vendor, reference number or requester,
	// case-insensitively.
	Query string
	// From and To bound the request date (inclusive) when parseable.
	From string
	To   string
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Match reports whether the bill passes the filter.
func (f Filter) Match(b Bill) bool {
	if f.Status != "" && !strings.EqualFold(f.Status, "all") && b.Status != f.Status {
		return false
	}

	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(b.VendorName), q) &&
			!strings.Contains(strings.ToLower(b.ReferenceNo), q) &&
			!strings.Contains(strings.ToLower(b.RequesterName), q) {
			return false
		}
	}

	if f.From != "" || f.To != "" {
		date, ok := parseDate(b.RequestDate)
		if ok {
			if from, ok := parseDate(f.From); f.From != "" && ok && date.Before(from) {
				return false
			}
			if to, ok := parseDate(f.To); f.To != "" && ok && date.After(to) {
				return false
			}
		}
	}

	return true
}

// Apply returns the bills matching the filter, preserving order.
func (f Filter) Apply(bills []Bill) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}
