package fields

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"github.com/joseph-ayodele/docintake/constants"
)

const (
	sourceDateParser = "date/parser"
	sourceDateRegex  = "date/regex"

	// keywords further back than this, or on another line, do not anchor a date
	keywordWindow = 40
)

// DateLayer proposes birth, expiry and issue dates.
type DateLayer struct{}

func (DateLayer) Name() string { return "date" }

type dateKind int

const (
	kindISO dateKind = iota
	kindDMY
	kindTextDMY
	kindTextMDY
)

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	// textual forms first so "12 Mar 1990" is not split by the numeric patterns
	datePatterns = []struct {
		kind dateKind
		re   *regexp.Regexp
	}{
		{kindTextDMY, regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[ \t]+` + monthPattern + `\.?,?[ \t]+(\d{4})\b`)},
		{kindTextMDY, regexp.MustCompile(`(?i)\b` + monthPattern + `\.?[ \t]+(\d{1,2})(?:st|nd|rd|th)?,?[ \t]+(\d{4})\b`)},
		{kindISO, regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)},
		{kindDMY, regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4}|\d{2})\b`)},
	}

	roleKeywords = []struct {
		field constants.Field
		re    *regexp.Regexp
	}{
		{constants.FieldDateOfBirth, regexp.MustCompile(`(?i)\b(d\.?o\.?b|date[ \t]+of[ \t]+birth|born|birth)\b`)},
		{constants.FieldExpiryDate, regexp.MustCompile(`(?i)\b(expiry|expires|expiration|exp|valid[ \t]+until|valid[ \t]+thru)\b`)},
		{constants.FieldIssueDate, regexp.MustCompile(`(?i)\b(issued|date[ \t]+of[ \t]+issue|issue[ \t]+date)\b`)},
	}

	monthNames = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
)

type dateMatch struct {
	start, end int
	kind       dateKind
	groups     []string
}

func (l DateLayer) Extract(_ context.Context, text string, env Env) LayerOutcome {
	lo := LayerOutcome{Layer: l.Name(), Status: constants.StatusOK}
	matches := findDates(text)

	var c collector
	if env.has(constants.CapDateParser) {
		for _, m := range matches {
			t, err := parseWithDateparse(m)
			if err != nil {
				continue
			}
			field, anchored := dateRole(text, m.start, t.Year(), env.cutoff())
			conf := constants.ConfidenceMedium
			if anchored {
				conf = constants.ConfidenceHigh
			}
			c.add(field, t.Format(time.DateOnly), sourceDateParser, conf)
		}
	} else {
		lo.Status = constants.StatusDegraded
		lo.Diagnostic = "date_parser unavailable; regex only"
	}

	for _, m := range matches {
		if m.kind != kindISO && m.kind != kindDMY {
			continue
		}
		t, ok := numericDate(m)
		if !ok {
			continue
		}
		field, _ := dateRole(text, m.start, t.Year(), env.cutoff())
		c.add(field, t.Format(time.DateOnly), sourceDateRegex, constants.ConfidenceLow)
	}
	lo.Candidates = c.out
	return lo
}

// findDates returns non-overlapping date substrings in text order.
func findDates(text string) []dateMatch {
	var out []dateMatch
	taken := func(s, e int) bool {
		for _, m := range out {
			if s < m.end && m.start < e {
				return true
			}
		}
		return false
	}
	for _, p := range datePatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if taken(loc[0], loc[1]) {
				continue
			}
			groups := make([]string, 0, 3)
			for g := 1; g < len(loc)/2; g++ {
				groups = append(groups, text[loc[2*g]:loc[2*g+1]])
			}
			out = append(out, dateMatch{start: loc[0], end: loc[1], kind: p.kind, groups: groups})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// parseWithDateparse hands dateparse an unambiguous rendering so numeric
// forms stay day-first.
func parseWithDateparse(m dateMatch) (time.Time, error) {
	var s string
	switch m.kind {
	case kindISO:
		s = fmt.Sprintf("%s-%s-%s", m.groups[0], pad2(m.groups[1]), pad2(m.groups[2]))
	case kindDMY:
		s = fmt.Sprintf("%04d-%s-%s", expandYear(m.groups[2]), pad2(m.groups[1]), pad2(m.groups[0]))
	case kindTextDMY:
		s = fmt.Sprintf("%s %s %s", m.groups[0], monthName(m.groups[1]), m.groups[2])
	case kindTextMDY:
		s = fmt.Sprintf("%s %s, %s", monthName(m.groups[0]), m.groups[1], m.groups[2])
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, err
	}
	if !plausibleYear(t.Year()) {
		return time.Time{}, fmt.Errorf("year %d out of range", t.Year())
	}
	return t, nil
}

// numericDate validates a numeric match without any parser library.
func numericDate(m dateMatch) (time.Time, bool) {
	var y, mo, d int
	switch m.kind {
	case kindISO:
		y, _ = strconv.Atoi(m.groups[0])
		mo, _ = strconv.Atoi(m.groups[1])
		d, _ = strconv.Atoi(m.groups[2])
	case kindDMY:
		d, _ = strconv.Atoi(m.groups[0])
		mo, _ = strconv.Atoi(m.groups[1])
		y = expandYear(m.groups[2])
	default:
		return time.Time{}, false
	}
	if mo < 1 || mo > 12 || d < 1 || !plausibleYear(y) {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// dateRole picks the field from the nearest keyword before pos on the same
// line. Without one, years up to cutoff read as birth dates.
func dateRole(text string, pos, year, cutoff int) (constants.Field, bool) {
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	from := max(lineStart, pos-keywordWindow)
	for from < pos && !utf8.RuneStart(text[from]) {
		from++
	}
	window := text[from:pos]

	best, bestEnd := constants.Field(""), -1
	for _, rk := range roleKeywords {
		for _, loc := range rk.re.FindAllStringIndex(window, -1) {
			if loc[1] > bestEnd {
				best, bestEnd = rk.field, loc[1]
			}
		}
	}
	if bestEnd >= 0 {
		return best, true
	}
	if year <= cutoff {
		return constants.FieldDateOfBirth, false
	}
	return constants.FieldExpiryDate, false
}

// expandYear maps two-digit years below 50 to 20xx, the rest to 19xx.
func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		if y < 50 {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func plausibleYear(y int) bool { return y >= 1900 && y <= 2100 }

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func monthName(s string) string {
	m, ok := monthNames[strings.ToLower(s[:3])]
	if !ok {
		return s
	}
	return m.String()
}
