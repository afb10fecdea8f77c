package fields

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/llm"
)

const (
	sourceNameNER       = "name/ner"
	sourceNameHeuristic = "name/heuristic"
)

// NameLayer proposes full names from NER (high) and label heuristics (low).
type NameLayer struct{}

func (NameLayer) Name() string { return "name" }

var (
	nameLabel = regexp.MustCompile(`(?i:\b(full[ \t]+name|given[ \t]+names?|surname|holder|name))[ \t]*[:\-]?[ \t]*((?:\p{Lu}[\p{L}'\-]*\.?)(?:[ \t]+\p{Lu}[\p{L}'\-]*\.?){0,5})`)

	// words that end a captured name because they start another label
	nameStopWords = map[string]bool{
		"name": true, "names": true, "given": true, "surname": true, "holder": true, "full": true,
		"dob": true, "date": true, "born": true, "birth": true, "sex": true, "gender": true,
		"nationality": true, "country": true, "expiry": true, "expires": true, "exp": true,
		"issued": true, "issue": true, "valid": true, "place": true, "no": true, "number": true,
		"id": true, "passport": true, "document": true, "signature": true, "height": true,
	}
)

func (l NameLayer) Extract(ctx context.Context, text string, env Env) LayerOutcome {
	var c collector
	lo := LayerOutcome{Layer: l.Name(), Status: constants.StatusOK}

	switch {
	case !env.has(constants.CapNER) || env.NER == nil:
		lo.Status = constants.StatusDegraded
		lo.Diagnostic = "ner unavailable; heuristic only"
	default:
		persons, err := env.NER.RecognizePersons(ctx, llm.RecognizeRequest{Text: text, FilenameHint: env.FilenameHint})
		if err != nil {
			lo.Status = constants.StatusDegraded
			lo.Diagnostic = "ner failed: " + err.Error()
			lo.Err = err
			break
		}
		// holders first, reading order otherwise
		sort.SliceStable(persons, func(i, j int) bool {
			return persons[i].Role == "holder" && persons[j].Role != "holder"
		})
		for _, p := range persons {
			c.add(constants.FieldFullName, strings.Join(strings.Fields(p.Name), " "), sourceNameNER, constants.ConfidenceHigh)
		}
	}

	for _, v := range heuristicNames(text) {
		c.add(constants.FieldFullName, v, sourceNameHeuristic, constants.ConfidenceLow)
	}
	lo.Candidates = c.out
	return lo
}

type labeledName struct {
	label string
	value string
}

// heuristicNames reads capitalized word runs after name labels, in text order.
// A surname and given-names pair becomes one "Given Surname" value.
func heuristicNames(text string) []string {
	var found []labeledName
	for _, m := range nameLabel.FindAllStringSubmatch(text, -1) {
		label := strings.Join(strings.Fields(strings.ToLower(m[1])), " ")
		if label == "given name" {
			label = "given names"
		}
		if v := trimAtStopWord(m[2]); v != "" {
			found = append(found, labeledName{label: label, value: v})
		}
	}

	var surname, given string
	for _, f := range found {
		switch f.label {
		case "surname":
			if surname == "" {
				surname = f.value
			}
		case "given names":
			if given == "" {
				given = f.value
			}
		}
	}

	var out []string
	combined := false
	for _, f := range found {
		isPart := f.label == "surname" || f.label == "given names"
		if isPart && surname != "" && given != "" {
			if !combined {
				out = append(out, given+" "+surname)
				combined = true
			}
			continue
		}
		if len([]rune(f.value)) >= 2 {
			out = append(out, f.value)
		}
	}
	return out
}

func trimAtStopWord(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if nameStopWords[strings.ToLower(strings.Trim(w, ".'-"))] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}
