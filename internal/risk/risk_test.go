package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/merge"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func result(values map[constants.Field]string) *merge.Result {
	r := &merge.Result{Fields: map[constants.Field]merge.FieldResult{}}
	for f, v := range values {
		r.Fields[f] = merge.FieldResult{Value: &v}
	}
	return r
}

func fullDoc(name string) *merge.Result {
	r := result(map[constants.Field]string{
		constants.FieldFullName:    name,
		constants.FieldDateOfBirth: "1990-01-01",
		constants.FieldCountry:     "France",
		constants.FieldCountryCode: "FR",
		constants.FieldExpiryDate:  "2030-01-01",
	})
	r.TextLength = 240
	return r
}

func TestAssessDocument(t *testing.T) {
	r := AssessDocument(fullDoc("John Smith"), now)
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, LevelMinimal, r.Level)
	assert.False(t, r.Flagged)
	assert.Equal(t, []string{"No significant risk factors"}, r.Details)

	r = AssessDocument(result(nil), now)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, LevelCritical, r.Level)
	assert.True(t, r.Flagged)

	r = AssessDocument(result(map[constants.Field]string{
		constants.FieldFullName:    "Jo",
		constants.FieldDateOfBirth: "2010-05-05",
		constants.FieldCountryCode: "FR",
		constants.FieldExpiryDate:  "2024-01-01",
	}), now)
	assert.Equal(t, 10+15+30, r.Score)
	assert.Equal(t, LevelHigh, r.Level)
	assert.Equal(t, []string{"Name appears incomplete", "Age below 18 years", "Card/document has expired"}, r.Details)

	r = AssessDocument(result(map[constants.Field]string{
		constants.FieldFullName:    "John Smith",
		constants.FieldDateOfBirth: "1900-01-01",
		constants.FieldCountryCode: "FR",
		constants.FieldExpiryDate:  "2025-06-15",
	}), now)
	assert.Equal(t, 30, r.Score)
	assert.Equal(t, LevelMedium, r.Level)
}

func TestAssessQuality(t *testing.T) {
	q := AssessQuality(fullDoc("John Smith"))
	assert.Equal(t, 100, q.Score)
	assert.Equal(t, QualityExcellent, q.Level)
	assert.Equal(t, 100.0, q.CompletenessRatio)

	r := result(map[constants.Field]string{constants.FieldFullName: "John Smith"})
	r.TextLength = 20
	r.Extraction = []extract.Outcome{
		{Extractor: "pdf-text", Status: constants.StatusFailed},
		{Extractor: "pdf-ocr", Status: constants.StatusFailed},
	}
	q = AssessQuality(r)
	assert.Equal(t, 0, q.Score)
	assert.Equal(t, QualityVeryPoor, q.Level)
	assert.Equal(t, 20.0, q.CompletenessRatio)
	assert.Equal(t, 1, q.FieldsExtracted)
	assert.Contains(t, q.Issues, "OCR processing failed")
}

func TestAssessBatch(t *testing.T) {
	empty := AssessBatch(nil, now)
	assert.Equal(t, CategoryNoDocuments, empty.Category)
	assert.Equal(t, 100.0, empty.Score)

	allNil := AssessBatch([]*merge.Result{nil}, now)
	assert.Equal(t, CategoryProcessingErr, allNil.Category)

	consistent := AssessBatch([]*merge.Result{fullDoc("John Smith"), fullDoc("John Smith"), fullDoc("John Smith")}, now)
	assert.Equal(t, 0.0, consistent.Score)
	assert.Equal(t, CategoryLow, consistent.Category)
	assert.Equal(t, StatusVerified, consistent.Status)
	assert.Equal(t, -10.0, consistent.RiskAdjustments)
	assert.Contains(t, consistent.Factors, "Consistent name across multiple documents")

	mixed := AssessBatch([]*merge.Result{fullDoc("John Smith"), fullDoc("Jane Roe")}, now)
	assert.Equal(t, 15.0, mixed.Score)
	assert.Equal(t, []string{"Jane Roe", "John Smith"}, mixed.Analysis.NamesFound)
	assert.Contains(t, mixed.Recommendations, "Verify name variations with additional ID documents")

	single := AssessBatch([]*merge.Result{result(nil)}, now)
	// 100 average + 25 incomplete + 15 single + 30 no names, capped
	assert.Equal(t, 100.0, single.Score)
	assert.Equal(t, CategoryHigh, single.Category)
	assert.Equal(t, StatusRejected, single.Status)
}
