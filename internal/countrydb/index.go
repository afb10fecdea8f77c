package countrydb

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match is one country reference found in text. Start and End are byte
// offsets into the lower-cased text, which only matter for ordering.
type Match struct {
	Country Country
	Term    string
	Via     string // "name", "alias" or "alpha3"
	Start   int
	End     int
}

type term struct {
	text    string // lower-cased
	country int
	via     string
}

// Index matches country names and aliases on word boundaries. It is
// immutable after construction and safe for concurrent use.
type Index struct {
	countries []Country
	terms     []term // longest first
	byAlpha3  map[string]int
}

var alpha3Label = regexp.MustCompile(`(?i:nationality|country(?:\s+code)?|code)\s*[:\-]?\s*([A-Z]{3})\b`)

// NewIndex builds an index over countries.
func NewIndex(countries []Country) *Index {
	idx := &Index{
		countries: append([]Country(nil), countries...),
		byAlpha3:  make(map[string]int, len(countries)),
	}
	seen := map[string]bool{}
	for i, c := range idx.countries {
		if c.Alpha3 != "" {
			idx.byAlpha3[strings.ToUpper(c.Alpha3)] = i
		}
		add := func(s, via string) {
			s = strings.ToLower(strings.TrimSpace(s))
			if len(s) < 2 || seen[s] {
				return
			}
			seen[s] = true
			idx.terms = append(idx.terms, term{text: s, country: i, via: via})
		}
		add(c.Name, "name")
		for _, a := range c.Aliases {
			add(a, "alias")
		}
	}
	sort.SliceStable(idx.terms, func(a, b int) bool {
		return len(idx.terms[a].text) > len(idx.terms[b].text)
	})
	return idx
}

// Len reports the number of countries.
func (x *Index) Len() int { return len(x.countries) }

// ByAlpha3 looks up a country by its three-letter code.
func (x *Index) ByAlpha3(code string) (Country, bool) {
	i, ok := x.byAlpha3[strings.ToUpper(code)]
	if !ok {
		return Country{}, false
	}
	return x.countries[i], true
}

// Match returns non-overlapping references in text order. On overlap the
// longest term wins. Alpha-3 codes only count after a label.
func (x *Index) Match(text string) []Match {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var out []Match
	for _, t := range x.terms {
		from := 0
		for {
			i := strings.Index(lower[from:], t.text)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(t.text)
			from = start + 1
			if !boundaryBefore(lower, start) || !boundaryAfter(lower, end) || overlaps(out, start, end) {
				continue
			}
			original := t.text
			if len(lower) == len(text) {
				original = text[start:end]
			}
			out = append(out, Match{Country: x.countries[t.country], Term: original, Via: t.via, Start: start, End: end})
		}
	}
	// offsets into text are only comparable when lowering kept byte lengths
	if len(lower) == len(text) {
		for _, loc := range alpha3Label.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			c, ok := x.ByAlpha3(text[start:end])
			if !ok || overlaps(out, start, end) {
				continue
			}
			out = append(out, Match{Country: c, Term: text[start:end], Via: "alpha3", Start: start, End: end})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Start < out[b].Start })
	return out
}

func overlaps(ms []Match, start, end int) bool {
	for _, m := range ms {
		if start < m.End && m.Start < end {
			return true
		}
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
