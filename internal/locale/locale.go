// Package locale holds the user-facing strings and period keywords of the
// bot for each supported language.
package locale

import (
	"fmt"
	"strings"

	"ledgerbot/internal/core"
)

type Locale struct {
	Code string

	// Period keywords are matched as substrings of the normalized phrase.
	WeekKeywords  []string
	MonthKeywords []string

	Welcome          string
	Usage            string
	UnknownPeriod    string
	AnalyzeFailed    string // followed by a newline and the error detail
	Generating       string
	GenerationFailed string

	// ReportPrompt is formatted with category, start, end and total.
	ReportPrompt string
	Currency     string
}

var Vietnamese = &Locale{
	Code:          "vi",
	WeekKeywords:  []string{"tuần"},
	MonthKeywords: []string{"tháng"},

	Welcome:          "Chào mừng! Bạn có thể gõ lệnh /analyze <danh_mục> <thời_gian>, ví dụ: /analyze cafe tuần này, hoặc /analyze nhậu tháng này.",
	Usage:            "Hãy dùng cú pháp: /analyze <danh_mục> <thời_gian>\nVí dụ: /analyze cafe tuần này",
	UnknownPeriod:    "Thời gian không rõ. Hãy thử 'tuần này' hoặc 'tháng này'.",
	AnalyzeFailed:    "Đã xảy ra lỗi khi xử lý yêu cầu. Vui lòng thử lại!\nChi tiết:",
	Generating:       "🤖 Đang tạo nội dung...",
	GenerationFailed: "⚠️ Đã xảy ra lỗi! Vui lòng thử lại.",

	ReportPrompt: "Hãy trả lời bằng tiếng Việt.\n\nTổng chi tiêu cho '%s' từ %s đến %s là %.2f %s.",
	Currency:     "VND",
}

var English = &Locale{
	Code:          "en",
	WeekKeywords:  []string{"week"},
	MonthKeywords: []string{"month"},

	Welcome:          "Welcome! Type /analyze <category> <period>, for example: /analyze cafe this week, or /analyze dining this month.",
	Usage:            "Usage: /analyze <category> <period>\nExample: /analyze cafe this week",
	UnknownPeriod:    "Unrecognized period. Try 'this week' or 'this month'.",
	AnalyzeFailed:    "Something went wrong while processing your request. Please try again!\nDetails:",
	Generating:       "🤖 Generating...",
	GenerationFailed: "⚠️ Something went wrong! Please try again.",

	ReportPrompt: "Please answer in English.\n\nTotal spending for '%s' from %s to %s is %.2f %s.",
	Currency:     "VND",
}

var byCode = map[string]*Locale{
	Vietnamese.Code: Vietnamese,
	English.Code:    English,
}

// Codes lists the supported language codes.
func Codes() []string { return []string{Vietnamese.Code, English.Code} }

// Lookup returns the locale for a language code.
func Lookup(code string) (*Locale, bool) {
	l, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
	return l, ok
}

// ClassifyPeriod maps a free-text period phrase to a core.Period. Week
// keywords are checked before month keywords; anything else is unknown.
func (l *Locale) ClassifyPeriod(phrase string) core.Period {
	p := core.Normalize(phrase)
	if p == "" {
		return core.PeriodUnknown
	}
	if containsAny(p, l.WeekKeywords) {
		return core.PeriodWeek
	}
	if containsAny(p, l.MonthKeywords) {
		return core.PeriodMonth
	}
	return core.PeriodUnknown
}

// Prompt phrases a ledger summary as a one-shot model prompt.
func (l *Locale) Prompt(s core.LedgerSummary) string {
	return fmt.Sprintf(l.ReportPrompt,
		s.Category,
		s.Range.Start.Format("2006-01-02"),
		s.Range.End.Format("2006-01-02"),
		s.Total,
		l.Currency)
}

// AnalyzeError formats a failure reply with a detail capped at maxRunes.
func (l *Locale) AnalyzeError(err error, maxRunes int) string {
	detail := err.Error()
	if r := []rune(detail); len(r) > maxRunes {
		detail = string(r[:maxRunes]) + "…"
	}
	return l.AnalyzeFailed + " " + detail
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k = core.Normalize(k); k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
