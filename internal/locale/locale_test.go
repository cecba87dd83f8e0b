package locale

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ledgerbot/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	l, ok := Lookup(" VI ")
	assert.True(t, ok)
	assert.Same(t, Vietnamese, l)

	l, ok = Lookup("en")
	assert.True(t, ok)
	assert.Same(t, English, l)

	_, ok = Lookup("fr")
	assert.False(t, ok)
	assert.Equal(t, []string{"vi", "en"}, Codes())
}

func TestClassifyPeriod(t *testing.T) {
	cases := []struct {
		l      *Locale
		phrase string
		want   core.Period
	}{
		{Vietnamese, "tuần này", core.PeriodWeek},
		{Vietnamese, "Tuần Này", core.PeriodWeek},
		{Vietnamese, "tháng này", core.PeriodMonth},
		{Vietnamese, "thang nay", core.PeriodMonth},
		{Vietnamese, "hôm nay", core.PeriodUnknown},
		{Vietnamese, "sometime", core.PeriodUnknown},
		{Vietnamese, "", core.PeriodUnknown},
		{English, "this week", core.PeriodWeek},
		{English, "this MONTH", core.PeriodMonth},
		{English, "sometime", core.PeriodUnknown},
		// week wins when both keywords appear
		{English, "week of the month", core.PeriodWeek},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.l.ClassifyPeriod(tc.phrase), "%s: %q", tc.l.Code, tc.phrase)
	}
}

func TestPrompt(t *testing.T) {
	s := core.LedgerSummary{
		Category: "cafe",
		Range:    core.DateRange{Start: core.NewDate(2024, time.June, 1), End: core.NewDate(2024, time.June, 15)},
		Total:    80000,
	}
	assert.Equal(t,
		"Hãy trả lời bằng tiếng Việt.\n\nTổng chi tiêu cho 'cafe' từ 2024-06-01 đến 2024-06-15 là 80000.00 VND.",
		Vietnamese.Prompt(s))
	assert.Equal(t,
		"Please answer in English.\n\nTotal spending for 'cafe' from 2024-06-01 to 2024-06-15 is 80000.00 VND.",
		English.Prompt(s))
}

func TestAnalyzeError(t *testing.T) {
	msg := English.AnalyzeError(errors.New(strings.Repeat("x", 300)), 200)
	assert.True(t, strings.HasPrefix(msg, English.AnalyzeFailed+" "))
	assert.Equal(t, 200, strings.Count(msg, "x"))
	assert.True(t, strings.HasSuffix(msg, "…"))

	short := English.AnalyzeError(errors.New("boom"), 200)
	assert.Equal(t, English.AnalyzeFailed+" boom", short)
}
