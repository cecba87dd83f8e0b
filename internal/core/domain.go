package core

import (
	"errors"
	"time"
)

const (
	PeriodUnknown Period = iota
	PeriodWeek
	PeriodMonth
)

type (
	// Period is a relative reporting window ending today.
	Period int

	// DateRange is a pair of calendar dates, both bounds inclusive.
	DateRange struct {
		Start time.Time
		End   time.Time
	}

	// Columns holds the 1-based positions of the ledger columns.
	Columns struct {
		Date     int
		Category int
		Amount   int
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingColumn = errors.New("missing ledger column")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrUnknownPeriod = errors.New("unknown period")
	ErrEmptyCategory = errors.New("empty category")
)

func (p Period) String() string {
	switch p {
	case PeriodWeek:
		return "week"
	case PeriodMonth:
		return "month"
	default:
		return "unknown"
	}
}

// NewDate returns midnight UTC of the given calendar day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CalendarDay drops the clock and zone of t, keeping its local calendar day.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether the calendar day of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	day := CalendarDay(t)
	return !day.Before(CalendarDay(r.Start)) && !day.After(CalendarDay(r.End))
}

// RangeFor resolves a period against now. Weeks start on Monday.
func RangeFor(p Period, now time.Time) (DateRange, error) {
	today := CalendarDay(now)
	switch p {
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return DateRange{Start: today.AddDate(0, 0, -offset), End: today}, nil
	case PeriodMonth:
		return DateRange{Start: NewDate(today.Year(), today.Month(), 1), End: today}, nil
	default:
		return DateRange{}, ErrUnknownPeriod
	}
}
