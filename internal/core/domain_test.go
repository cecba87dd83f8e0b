package core

import (
	"errors"
	"testing"
	"time"
)

func TestRangeFor(t *testing.T) {
	// Wednesday afternoon, local zone.
	now := time.Date(2024, time.June, 12, 15, 30, 0, 0, time.FixedZone("ICT", 7*3600))

	week, err := RangeFor(PeriodWeek, now)
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if !week.Start.Equal(NewDate(2024, time.June, 10)) || !week.End.Equal(NewDate(2024, time.June, 12)) {
		t.Fatalf("unexpected week range: %v..%v", week.Start, week.End)
	}

	month, err := RangeFor(PeriodMonth, now)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if !month.Start.Equal(NewDate(2024, time.June, 1)) || !month.End.Equal(NewDate(2024, time.June, 12)) {
		t.Fatalf("unexpected month range: %v..%v", month.Start, month.End)
	}

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2024, time.June, 16, 9, 0, 0, 0, time.UTC)
	week, _ = RangeFor(PeriodWeek, sunday)
	if !week.Start.Equal(NewDate(2024, time.June, 10)) {
		t.Fatalf("sunday week start = %v", week.Start)
	}

	if _, err := RangeFor(PeriodUnknown, now); !errors.Is(err, ErrUnknownPeriod) {
		t.Fatalf("expected ErrUnknownPeriod, got %v", err)
	}
}

func TestDateRangeContainsIsInclusive(t *testing.T) {
	r := DateRange{Start: NewDate(2024, time.June, 1), End: NewDate(2024, time.June, 15)}
	for _, d := range []time.Time{NewDate(2024, time.June, 1), NewDate(2024, time.June, 15), NewDate(2024, time.June, 7)} {
		if !r.Contains(d) {
			t.Fatalf("expected %v in range", d)
		}
	}
	for _, d := range []time.Time{NewDate(2024, time.May, 31), NewDate(2024, time.June, 16)} {
		if r.Contains(d) {
			t.Fatalf("expected %v outside range", d)
		}
	}
}
