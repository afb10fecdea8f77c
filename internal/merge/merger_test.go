package merge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/fields"
)

func cand(f constants.Field, v, src string, c constants.Confidence) fields.Candidate {
	return fields.Candidate{Field: f, Value: v, Source: src, Confidence: c}
}

func textExtraction(text string, statuses ...constants.OutcomeStatus) extract.Extraction {
	ex := extract.Extraction{Classification: extract.Classification{Format: constants.TXT}, Text: text}
	for _, st := range statuses {
		ex.Outcomes = append(ex.Outcomes, extract.Outcome{Extractor: "x", Status: st})
	}
	return ex
}

func TestMerge_HighestTierThenEarliest(t *testing.T) {
	layers := []fields.LayerOutcome{
		{Layer: "name", Status: constants.StatusOK, Candidates: []fields.Candidate{
			cand(constants.FieldFullName, "Jane Roe", "name/heuristic", constants.ConfidenceLow),
			cand(constants.FieldFullName, "John Smith", "name/ner", constants.ConfidenceHigh),
			cand(constants.FieldFullName, "Robert Smith", "name/ner", constants.ConfidenceHigh),
		}},
		{Layer: "date", Status: constants.StatusDegraded, Candidates: []fields.Candidate{
			cand(constants.FieldDateOfBirth, "1990-01-01", "date/regex", constants.ConfidenceLow),
			cand(constants.FieldDateOfBirth, "1991-02-02", "date/regex", constants.ConfidenceLow),
		}},
	}
	res := Merge("id.txt", textExtraction("some text", constants.StatusOK), layers, capability.NewSet(constants.CapNER))

	assert.Equal(t, "John Smith", res.Value(constants.FieldFullName))
	assert.Equal(t, constants.ConfidenceHigh, res.Fields[constants.FieldFullName].Confidence)
	assert.Equal(t, "name/ner", res.Fields[constants.FieldFullName].Source)
	assert.Len(t, res.Fields[constants.FieldFullName].Candidates, 3)

	assert.Equal(t, "1990-01-01", res.Value(constants.FieldDateOfBirth))
	assert.Nil(t, res.Fields[constants.FieldCountry].Value)
	assert.NotNil(t, res.Fields[constants.FieldCountry].Candidates)
	assert.Len(t, res.Fields, len(constants.AllFields()))
	assert.Equal(t, constants.ResultComplete, res.Status)
	assert.Equal(t, 9, res.TextLength)
}

func TestMerge_Status(t *testing.T) {
	okLayers := []fields.LayerOutcome{{Layer: "name", Status: constants.StatusDegraded}}

	assert.Equal(t, constants.ResultEmpty,
		Merge("a", textExtraction(" \n", constants.StatusFailed), okLayers, capability.NewSet()).Status)
	assert.Equal(t, constants.ResultPartial,
		Merge("a", textExtraction("x", constants.StatusOK, constants.StatusUnavailable), okLayers, capability.NewSet()).Status)
	assert.Equal(t, constants.ResultPartial,
		Merge("a", textExtraction("x", constants.StatusOK), []fields.LayerOutcome{{Status: constants.StatusFailed}}, capability.NewSet()).Status)
	assert.Equal(t, constants.ResultComplete,
		Merge("a", textExtraction("x", constants.StatusDegraded), okLayers, capability.NewSet()).Status)
}

func TestMerge_DeterministicJSON(t *testing.T) {
	layers := []fields.LayerOutcome{{Layer: "country", Status: constants.StatusOK, Candidates: []fields.Candidate{
		cand(constants.FieldCountry, "France", "country/db", constants.ConfidenceMedium),
		cand(constants.FieldCountryCode, "FR", "country/db", constants.ConfidenceMedium),
	}}}
	a, err := json.Marshal(Merge("a", textExtraction("France", constants.StatusOK), layers, capability.NewSet()))
	require.NoError(t, err)
	b, err := json.Marshal(Merge("a", textExtraction("France", constants.StatusOK), layers, capability.NewSet()))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(a, &decoded))
	assert.Contains(t, decoded, "capabilities_used")
	assert.NotContains(t, decoded, "Text")
	f := decoded["fields"].(map[string]any)["country"].(map[string]any)
	assert.Equal(t, "France", f["value"])
	assert.Nil(t, decoded["fields"].(map[string]any)["full_name"].(map[string]any)["value"])
}

func TestMerge_DiagnosticsListStageErrors(t *testing.T) {
	ex := textExtraction("Name: Ann Lee", constants.StatusOK)
	ex.Outcomes = append(ex.Outcomes,
		extract.Outcome{Extractor: "pdf-ocr", Status: constants.StatusUnavailable, Err: common.Unavailable("ocr")},
		extract.Outcome{Extractor: "pdf-text", Status: constants.StatusFailed, Err: errors.New("xref broken")},
	)
	layers := []fields.LayerOutcome{
		{Layer: "name", Status: constants.StatusDegraded, Err: errors.New("provider returned 503: down")},
		{Layer: "date", Status: constants.StatusOK},
	}
	res := Merge("a.pdf", ex, layers, capability.NewSet(constants.CapNER))
	assert.Equal(t, []string{"pdf-text: xref broken", "name: provider returned 503: down"}, res.Diagnostics)

	clean := Merge("a.txt", textExtraction("x", constants.StatusOK), layers[1:], capability.NewSet())
	assert.Nil(t, clean.Diagnostics)
	b, err := json.Marshal(clean)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "diagnostics")
}
