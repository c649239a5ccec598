package sources

import "strings"

// SplitCSVLine splits one delimited line on commas that are outside quotes.
// A double quote toggles the in-quotes state and is dropped, so a doubled
// quote inside a quoted field disappears rather than becoming a literal.
// Lines are never joined: a newline inside a quoted field is not supported.
func SplitCSVLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	return append(fields, current.String())
}

// cleanCell strips quotes and surrounding whitespace (including a trailing \r)
func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.ReplaceAll(s, `"`, ""), "\ufeff"))
}
