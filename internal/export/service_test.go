package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/merge"
	"github.com/joseph-ayodele/docintake/internal/risk"
)

func result(filename string, vals map[constants.Field]string) *merge.Result {
	r := &merge.Result{
		Filename:    filename,
		Format:      constants.TXT,
		Status:      constants.ResultComplete,
		Fields:      map[constants.Field]merge.FieldResult{},
		TextPreview: "Name: John Smith\nDOB: 1990-01-01",
		TextLength:  120,
	}
	for f, v := range vals {
		v := v
		r.Fields[f] = merge.FieldResult{Value: &v, Confidence: constants.ConfidenceLow}
	}
	return r
}

func newTestService() *Service {
	s := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestResultsXLSX(t *testing.T) {
	results := []*merge.Result{
		result("a.txt", map[constants.Field]string{
			constants.FieldFullName:    "John Smith",
			constants.FieldDateOfBirth: "1990-01-01",
			constants.FieldCountry:     "France",
		}),
		nil,
		result("bundle.zip/b.txt", nil),
	}
	batch := risk.AssessBatch(results, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	b, err := newTestService().ResultsXLSX(results, &batch)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetDocuments, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, documentHeaders, rows[0])
	assert.Equal(t, []string{"a.txt", "txt", "complete", "John Smith", "1990-01-01"}, rows[1][:5])
	assert.Equal(t, "France", rows[1][7])
	assert.Equal(t, "Name: John Smith DOB: 1990-01-01", rows[1][13])
	assert.Equal(t, "bundle.zip/b.txt", rows[2][0])

	cat, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, string(batch.Category), cat)
}

func TestResultsXLSX_NoSummary(t *testing.T) {
	b, err := newTestService().ResultsXLSX(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{SheetDocuments}, f.GetSheetList())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "é", truncate("éé", 1))
}
