package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
)

// XLSX flattens every sheet to lines of " | " separated cells.
type XLSX struct{}

func (XLSX) Name() string { return "xlsx" }

func (x XLSX) Extract(_ context.Context, doc SourceDocument, _ Classification, caps capability.Set) Outcome {
	if !caps.Has(constants.CapXLSX) {
		return unavailableOutcome(x.Name(), common.Unavailable(string(constants.CapXLSX)))
	}
	txt, sheets, err := xlsxText(doc.Content)
	if err != nil {
		return failedOutcome(x.Name(), common.ExtractionFailure("xlsx", err))
	}
	out := okOutcome(x.Name(), "spreadsheet", txt)
	out.Pages = sheets
	return out
}

func xlsxText(content []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", 0, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "--- Sheet: %s ---", sheet)
		for _, row := range rows {
			var cells []string
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			b.WriteByte('\n')
			b.WriteString(strings.Join(cells, " | "))
		}
	}
	return b.String(), len(sheets), nil
}
