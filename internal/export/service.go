// Package export renders processed documents as an XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/merge"
	"github.com/joseph-ayodele/docintake/internal/risk"
)

const (
	SheetDocuments = "Documents"
	SheetSummary   = "Summary"
)

var documentHeaders = []string{
	"Filename",
	"Format",
	"Status",
	"Full Name",
	"Date of Birth",
	"Expiry Date",
	"Issue Date",
	"Country",
	"Country Code",
	"Language",
	"Risk Score",
	"Risk Level",
	"Quality Score",
	"Text Preview",
}

var exportFields = []constants.Field{
	constants.FieldFullName,
	constants.FieldDateOfBirth,
	constants.FieldExpiryDate,
	constants.FieldIssueDate,
	constants.FieldCountry,
	constants.FieldCountryCode,
}

// Service produces XLSX bytes for batches of results.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// ResultsXLSX returns a workbook with one row per document and, when batch is
// non-nil, a summary sheet with the cross-document assessment.
func (s *Service) ResultsXLSX(results []*merge.Result, batch *risk.BatchRisk) ([]byte, error) {
	start := time.Now()
	now := s.now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	// reuse the default sheet so the workbook has no empty tab
	if err := f.SetSheetName("Sheet1", SheetDocuments); err != nil {
		return nil, err
	}
	for i, h := range documentHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetDocuments, cell, h); err != nil {
			return nil, err
		}
	}

	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(documentHeaders), 1)
		_ = f.SetCellStyle(SheetDocuments, "A1", last, bold)
	}

	row := 2
	for _, r := range results {
		if r == nil {
			continue
		}
		dr := risk.AssessDocument(r, now)
		q := risk.AssessQuality(r)

		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			return f.SetCellValue(SheetDocuments, cell, v)
		}
		values := []any{r.Filename, string(r.Format), string(r.Status)}
		for _, fld := range exportFields {
			values = append(values, r.Value(fld))
		}
		values = append(values, r.Language, dr.Score, string(dr.Level), q.Score, truncate(oneLine(r.TextPreview), 140))
		for i, v := range values {
			if err := write(i+1, v); err != nil {
				return nil, err
			}
		}
		row++
	}

	_ = f.SetColWidth(SheetDocuments, "A", "A", 40) // filename
	_ = f.SetColWidth(SheetDocuments, "B", "C", 10)
	_ = f.SetColWidth(SheetDocuments, "D", "D", 28) // name
	_ = f.SetColWidth(SheetDocuments, "E", "G", 14) // dates
	_ = f.SetColWidth(SheetDocuments, "H", "H", 22)
	_ = f.SetColWidth(SheetDocuments, "N", "N", 60) // preview

	if batch != nil {
		if err := writeSummary(f, batch); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"summary", batch != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, b *risk.BatchRisk) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	rows := [][]any{
		{"Overall Risk Score", b.Score},
		{"Overall Status", string(b.Status)},
		{"Risk Category", string(b.Category)},
		{"Confidence Level", b.ConfidenceLevel},
		{"Risk Factors", strings.Join(b.Factors, "; ")},
		{"Recommendations", strings.Join(b.Recommendations, "; ")},
	}
	if a := b.Analysis; a != nil {
		rows = append(rows,
			[]any{"Total Documents", a.TotalDocuments},
			[]any{"Complete Documents", a.CompleteDocuments},
			[]any{"Names Found", strings.Join(a.NamesFound, "; ")},
			[]any{"Countries Found", strings.Join(a.CountriesFound, "; ")},
		)
	}
	for i, r := range rows {
		if err := f.SetSheetRow(SheetSummary, fmt.Sprintf("A%d", i+1), &r); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 22)
	_ = f.SetColWidth(SheetSummary, "B", "B", 80)
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
