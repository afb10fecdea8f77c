// Package merge folds extractor and layer outcomes into one structured result.
package merge

import (
	"errors"
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/fields"
)

const previewRunes = 500

// FieldResult is the winning value of one field plus every candidate seen.
type FieldResult struct {
	Value      *string              `json:"value"`
	Confidence constants.Confidence `json:"confidence,omitempty"`
	Source     string               `json:"source,omitempty"`
	Candidates []fields.Candidate   `json:"candidates"`
}

// Result is the structured, explainable output for one document. It holds
// no IDs or timestamps so identical input yields identical output.
type Result struct {
	Filename     string                          `json:"filename"`
	Format       constants.Format                `json:"format"`
	Status       constants.ResultStatus          `json:"status"`
	Fields       map[constants.Field]FieldResult `json:"fields"`
	Capabilities capability.Set                  `json:"capabilities_used"`
	Extraction   []extract.Outcome               `json:"extraction"`
	Layers       []fields.LayerOutcome           `json:"layers"`
	Language     string                          `json:"language,omitempty"`
	TextLength   int                             `json:"text_length"`
	TextPreview  string                          `json:"text_preview,omitempty"`
	Diagnostics  []string                        `json:"diagnostics,omitempty"`
	Text         string                          `json:"-"`
}

// Value returns the winning value of f, or "".
func (r *Result) Value(f constants.Field) string {
	if fr, ok := r.Fields[f]; ok && fr.Value != nil {
		return *fr.Value
	}
	return ""
}

// Merge picks a winner per field: the highest tier, ties going to the
// earliest candidate in layer order then emission order.
func Merge(filename string, ex extract.Extraction, layers []fields.LayerOutcome, caps capability.Set) *Result {
	res := &Result{
		Filename:     filename,
		Format:       ex.Classification.Format,
		Fields:       make(map[constants.Field]FieldResult, len(constants.AllFields())),
		Capabilities: caps,
		Extraction:   ex.Outcomes,
		Layers:       layers,
		Text:         ex.Text,
		TextLength:   len([]rune(ex.Text)),
		TextPreview:  preview(ex.Text),
	}

	byField := make(map[constants.Field][]fields.Candidate)
	for _, lo := range layers {
		for _, c := range lo.Candidates {
			byField[c.Field] = append(byField[c.Field], c)
		}
	}
	for _, f := range constants.AllFields() {
		cands := byField[f]
		fr := FieldResult{Candidates: cands}
		if fr.Candidates == nil {
			fr.Candidates = []fields.Candidate{}
		}
		if w, ok := winner(cands); ok {
			v := w.Value
			fr.Value = &v
			fr.Confidence = w.Confidence
			fr.Source = w.Source
		}
		res.Fields[f] = fr
	}

	res.Status = status(ex, layers)
	res.Diagnostics = diagnostics(ex, layers)
	return res
}

// diagnostics lists every stage that returned an error, extractors first then
// layers. A capability that was simply absent is not an error here.
func diagnostics(ex extract.Extraction, layers []fields.LayerOutcome) []string {
	var out []string
	for _, o := range ex.Outcomes {
		if o.Err != nil && !errors.Is(o.Err, common.ErrUnavailableCapability) {
			out = append(out, o.Extractor+": "+o.Err.Error())
		}
	}
	for _, lo := range layers {
		if lo.Err != nil && !errors.Is(lo.Err, common.ErrUnavailableCapability) {
			out = append(out, lo.Layer+": "+lo.Err.Error())
		}
	}
	return out
}

func winner(cands []fields.Candidate) (fields.Candidate, bool) {
	best := -1
	for i, c := range cands {
		// strictly greater keeps the earliest on ties
		if best < 0 || c.Confidence.Rank() > cands[best].Confidence.Rank() {
			best = i
		}
	}
	if best < 0 {
		return fields.Candidate{}, false
	}
	return cands[best], true
}

func status(ex extract.Extraction, layers []fields.LayerOutcome) constants.ResultStatus {
	if strings.TrimSpace(ex.Text) == "" {
		return constants.ResultEmpty
	}
	for _, o := range ex.Outcomes {
		if !o.Status.Usable() {
			return constants.ResultPartial
		}
	}
	for _, lo := range layers {
		if !lo.Status.Usable() {
			return constants.ResultPartial
		}
	}
	return constants.ResultComplete
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "…"
}
