package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayouts are tried in order by ParseDate; the first match wins.
// Day and month accept one or two digits.
var DateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2006/1/2",
}

// ParseDate parses a ledger date cell (YYYY-MM-DD, DD/MM/YYYY or YYYY/MM/DD)
// into a calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q does not match any of %v", ErrInvalidDate, s, DateLayouts)
}
