package sources

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/estlookup/internal/model"
)

// MarkupFields is the partial record recovered from a search result page
type MarkupFields struct {
	Name       *string
	Address    *string
	City       *string
	State      *string
	Activities *string
}

// Record converts the extracted fields into the canonical record
func (m MarkupFields) Record() *model.EstablishmentRecord {
	return &model.EstablishmentRecord{
		EstablishmentName: m.Name,
		Address:           m.Address,
		City:              m.City,
		State:             m.State,
		Activities:        m.Activities,
	}
}

// MarkupExtractor pulls the first result row out of search-page markup by
// pattern matching on result-table cell markers.
type MarkupExtractor struct {
	markers  model.MarkupMarkers
	name     *regexp.Regexp
	address  *regexp.Regexp
	city     *regexp.Regexp
	state    *regexp.Regexp
	activity *regexp.Regexp
}

// NewMarkupExtractor compiles one cell pattern per marker
func NewMarkupExtractor(markers model.MarkupMarkers) *MarkupExtractor {
	return &MarkupExtractor{
		markers:  markers,
		name:     cellPattern(markers.Name),
		address:  cellPattern(markers.Address),
		city:     cellPattern(markers.City),
		state:    cellPattern(markers.State),
		activity: cellPattern(markers.Activities),
	}
}

// cellPattern matches a <td> whose class contains marker and captures its
// content up to the closing </td>. Header cells (<th>) carry the same class
// in table views and are deliberately not matched.
func cellPattern(marker string) *regexp.Regexp {
	if marker == "" {
		return nil
	}
	return regexp.MustCompile(`(?is)<td\b[^>]*\bclass\s*=\s*["'][^"']*` +
		regexp.QuoteMeta(marker) + `[^"']*["'][^>]*>(.*?)</td\s*>`)
}

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// Extract returns the fields found in markup; unmatched fields are nil
func (e *MarkupExtractor) Extract(markup string) MarkupFields {
	return MarkupFields{
		Name:       firstCellText(e.name, markup),
		Address:    firstCellText(e.address, markup),
		City:       firstCellText(e.city, markup),
		State:      firstCellText(e.state, markup),
		Activities: firstCellText(e.activity, markup),
	}
}

// ExtractFields is Extract with a one-off extractor
func ExtractFields(markup string, markers model.MarkupMarkers) MarkupFields {
	return NewMarkupExtractor(markers).Extract(markup)
}

// firstCellText returns the first non-blank run of text inside the first
// matching cell, entity-decoded with whitespace collapsed.
func firstCellText(re *regexp.Regexp, markup string) *string {
	if re == nil {
		return nil
	}
	m := re.FindStringSubmatch(markup)
	if m == nil {
		return nil
	}
	for _, span := range tagPattern.Split(m[1], -1) {
		text := collapseSpace(html.UnescapeString(span))
		if text != "" {
			return &text
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MarkupDiagnosis describes a page on which no name cell was found
type MarkupDiagnosis struct {
	ResultsSection bool
	Excerpt        string
}

const excerptRunes = 500

// Diagnose reports whether a results section appears present and returns
// tag-stripped text near the first occurrence of the name marker, to spot
// page-structure drift.
func (e *MarkupExtractor) Diagnose(markup string) MarkupDiagnosis {
	var d MarkupDiagnosis

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		d.ResultsSection = doc.Find("table tbody tr").Length() > 0 ||
			doc.Find(".view-content, .views-table, .search-results").Length() > 0
	}

	if e.markers.Name == "" {
		return d
	}
	idx := strings.Index(markup, e.markers.Name)
	if idx < 0 {
		return d
	}
	if open := strings.LastIndex(markup[:idx], "<"); open >= 0 {
		idx = open
	}

	end := idx + excerptRunes*4
	if end > len(markup) {
		end = len(markup)
	}
	d.Excerpt = truncateRunes(StripTags(markup[idx:end]), excerptRunes)
	return d
}

// StripTags returns the text content of an HTML fragment with whitespace collapsed
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
