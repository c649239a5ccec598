package sources

import "strings"

// Field is a logical column of the directory export
type Field int

const (
	FieldID Field = iota
	FieldName
	FieldAddress
	FieldCity
	FieldState
	FieldActivities
	fieldCount
)

var fieldNames = [fieldCount]string{"id", "name", "address", "city", "state", "activities"}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// headerMatcher tests a lower-cased header cell against a logical field
type headerMatcher func(header string) bool

func containsAny(fragments ...string) headerMatcher {
	return func(h string) bool {
		for _, f := range fragments {
			if strings.Contains(h, f) {
				return true
			}
		}
		return false
	}
}

// columnMatchers tolerate column renames between releases. Substring matches
// can hit the wrong column when two headers share a fragment; the first
// header (left to right) that matches wins.
var columnMatchers = [fieldCount]headerMatcher{
	FieldID: func(h string) bool {
		return strings.Contains(h, "establishment_id") || h == "id"
	},
	FieldName:       containsAny("establishment_name", "name"),
	FieldAddress:    containsAny("address"),
	FieldCity:       containsAny("city"),
	FieldState:      containsAny("state"),
	FieldActivities: containsAny("activities", "activity"),
}

// ColumnMap holds the column index of each logical field, -1 when absent
type ColumnMap [fieldCount]int

// NormalizeHeader splits a header line and lower-cases each cell
func NormalizeHeader(line string) []string {
	cells := SplitCSVLine(line)
	for i, c := range cells {
		cells[i] = strings.ToLower(cleanCell(c))
	}
	return cells
}

// DiscoverColumns builds the column-index table for a normalized header
func DiscoverColumns(header []string) ColumnMap {
	var m ColumnMap
	for f := Field(0); f < fieldCount; f++ {
		m[f] = -1
		for i, h := range header {
			if columnMatchers[f](h) {
				m[f] = i
				break
			}
		}
	}
	return m
}

// Cell returns the cleaned value of field f in cols, "" when absent
func (m ColumnMap) Cell(cols []string, f Field) string {
	idx := m[f]
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cleanCell(cols[idx])
}

// Missing lists fields that no header matched
func (m ColumnMap) Missing() []string {
	var missing []string
	for f := Field(0); f < fieldCount; f++ {
		if m[f] < 0 {
			missing = append(missing, f.String())
		}
	}
	return missing
}
