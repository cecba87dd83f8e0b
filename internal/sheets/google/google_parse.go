package google

import (
	"fmt"
	"strings"
)

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// padRows converts an API values matrix into strings, padding every row to
// the widest row so that trailing empty cells read as "".
func padRows(values [][]interface{}) [][]string {
	width := 0
	for _, row := range values {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(values))
	for i, row := range values {
		cols := toStrings(row)
		for len(cols) < width {
			cols = append(cols, "")
		}
		out[i] = cols
	}
	return out
}

// quoteSheetName renders a worksheet title for A1 notation.
func quoteSheetName(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// rowRange returns the A1 range covering a single 1-based row.
func rowRange(title string, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteSheetName(title), row, row)
}
