package core

// LedgerSummary is the result of aggregating one category over a date range.
type LedgerSummary struct {
	Category string
	Range    DateRange
	Total    float64
	Matched  int // rows that counted toward Total
	Skipped  int // rows dropped for a bad date, amount or short row
}
