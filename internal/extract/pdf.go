package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/ocr"
)

// PDFQuality captures how trustworthy an embedded text layer is.
type PDFQuality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
}

// NeedsOCR reports whether the text layer is too thin or garbled to rely on.
func (q *PDFQuality) NeedsOCR() bool {
	if q == nil {
		return true
	}
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// PDFTextReader returns the text of each page plus quality metrics.
type PDFTextReader func(content []byte) ([]string, *PDFQuality, error)

// PDFText reads the embedded text layer.
type PDFText struct {
	read PDFTextReader
}

// NewPDFText uses pdfcpu unless read is given.
func NewPDFText(read PDFTextReader) *PDFText {
	if read == nil {
		read = readPDFText
	}
	return &PDFText{read: read}
}

func (p *PDFText) Name() string { return "pdf-text" }

func (p *PDFText) Extract(_ context.Context, doc SourceDocument, _ Classification, caps capability.Set) Outcome {
	if !caps.Has(constants.CapPDFText) {
		return unavailableOutcome(p.Name(), common.Unavailable(string(constants.CapPDFText)))
	}
	pages, q, err := p.read(doc.Content)
	if err != nil {
		return failedOutcome(p.Name(), common.ExtractionFailure("pdf-text", err))
	}
	var nonEmpty []string
	for _, pg := range pages {
		if pg = strings.TrimSpace(pg); pg != "" {
			nonEmpty = append(nonEmpty, pg)
		}
	}
	out := okOutcome(p.Name(), "pdf-text", strings.Join(nonEmpty, ocr.PageBreak))
	out.Pages = len(pages)
	out.Quality = q
	if out.Text != "" && q.NeedsOCR() {
		out.Warnings = append(out.Warnings, "text layer looks incomplete")
	}
	return out
}

func readPDFText(content []byte) ([]string, *PDFQuality, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return nil, nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make([]string, 0, ctx.PageCount)
	totalChars := 0
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		txt := extractPageText(ctx, pageNr)
		totalChars += len([]rune(txt))
		pages = append(pages, txt)
	}

	q := &PDFQuality{
		PageCount:       ctx.PageCount,
		PrintableRatio:  printableRatio(strings.Join(pages, "\n")),
		HasImageStreams: detectImageStreams(ctx),
	}
	if ctx.PageCount > 0 {
		q.CharsPerPage = float64(totalChars) / float64(ctx.PageCount)
	}
	return pages, q, nil
}

func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

var (
	pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	tdOperandRe = regexp.MustCompile(`(-?[\d.]+)\s+(-?[\d.]+)\s+T[dD]$`)
)

// textFromContentStream pulls string operands of the text-showing operators.
// Vertical moves (Td/TD with non-zero ty, T*, ') start a new line.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	newline := func() {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			newline()
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if m := tdOperandRe.FindSubmatch(line); m != nil {
				if ty, err := strconv.ParseFloat(string(m[2]), 64); err == nil && ty != 0 {
					newline()
					continue
				}
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			newline()
		}
	}
	return cleanPDFText(sb.String())
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			// octal escape, up to three digits (\040 is a space)
			val := int(raw[i] - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// cleanPDFText collapses runs of spaces and drops non-printable runes, keeping line breaks.
func cleanPDFText(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, ln := range lines {
		var sb strings.Builder
		prevSpace := false
		for _, r := range ln {
			switch {
			case unicode.IsSpace(r):
				if !prevSpace && sb.Len() > 0 {
					sb.WriteByte(' ')
					prevSpace = true
				}
			case unicode.IsPrint(r):
				sb.WriteRune(r)
				prevSpace = false
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

// printableRatio excludes the private use area, U+FFFD and control characters.
func printableRatio(text string) float64 {
	total, printable := 0, 0
	for _, r := range text {
		total++
		switch {
		case r >= 0xE000 && r <= 0xF8FF, r == 0xFFFD:
		case r == '\n' || r == '\r' || r == '\t' || r == '\f':
			printable++
		case r < 0x20:
		case unicode.IsPrint(r):
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}
