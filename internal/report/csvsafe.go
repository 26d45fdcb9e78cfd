package report

import (
	"strings"
)

// EscapeCell protects against CSV formula injection by prefixing cells
// whose first character a spreadsheet could interpret as the start of
// a formula.
func EscapeCell(value string) string {
	if value == "" {
		return value
	}

	firstChar := value[0]
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' {
		return "'" + value
	}

	if strings.HasPrefix(value, "|") || strings.HasPrefix(value, "%") {
		return "'" + value
	}

	if strings.HasPrefix(value, "\t") {
		return "'" + value
	}

	if strings.HasPrefix(value, "\r") || strings.HasPrefix(value, "\n") {
		return "'" + value
	}

	return value
}

// EscapeRow escapes all cells in a row.
func EscapeRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCell(cell)
	}
	return escaped
}

// EscapeRows escapes all cells in multiple rows.
func EscapeRows(rows [][]string) [][]string {
	escaped := make([][]string, len(rows))
	for i, row := range rows {
		escaped[i] = EscapeRow(row)
	}
	return escaped
}
