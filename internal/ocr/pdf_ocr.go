package ocr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PageBreak separates OCR'd pages in the concatenated text.
const PageBreak = "\n\f\n"

// ExtractPDF rasterizes every page with pdftoppm and OCRs each one.
func (e *Extractor) ExtractPDF(ctx context.Context, content []byte) (Result, error) {
	start := time.Now()
	in, dir, cleanup, err := e.spill(content, "input.pdf")
	if err != nil {
		return Result{Method: "pdf-ocr"}, err
	}
	defer cleanup()

	res, err := e.pdfToOCR(ctx, in, dir)
	res.Duration = time.Since(start)
	return res, err
}

func (e *Extractor) pdfToOCR(ctx context.Context, path, dir string) (Result, error) {
	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return Result{Method: "pdf-ocr", Warnings: warnings(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// pdftoppm zero-pads page numbers by page count, so lexical order is not page order.
	matches, _ := filepath.Glob(prefix + "-*.png")
	pages := sortPages(matches, prefix)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return Result{Method: "pdf-ocr", Warnings: []string{"pdftoppm produced no images"}}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	var confSum float32
	ocred := 0
	for _, img := range pages {
		if err := ctx.Err(); err != nil {
			return Result{Method: "pdf-ocr", Warnings: warns}, err
		}
		res, err := e.ocrImage(ctx, img)
		warns = append(warns, res.Warnings...)
		if errors.Is(err, ErrProgramMissing) {
			return Result{Method: "pdf-ocr", Pages: len(pages), Warnings: warns}, err
		}
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", filepath.Base(img), err))
			continue
		}
		if b.Len() > 0 && res.Text != "" {
			b.WriteString(PageBreak)
		}
		b.WriteString(res.Text)
		confSum += res.Confidence
		ocred++
	}
	if ocred == 0 {
		return Result{Method: "pdf-ocr", Pages: len(pages), Warnings: warns}, fmt.Errorf("tesseract failed on all %d pages", len(pages))
	}
	return Result{
		Text:       b.String(),
		Pages:      len(pages),
		Method:     "pdf-ocr",
		Warnings:   warns,
		Confidence: confSum / float32(ocred),
	}, nil
}

// sortPages orders prefix-N.png files by N.
func sortPages(paths []string, prefix string) []string {
	type page struct {
		n    int
		path string
	}
	var ps []page
	for _, p := range paths {
		num := strings.TrimSuffix(strings.TrimPrefix(p, prefix+"-"), ".png")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		ps = append(ps, page{n: n, path: p})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].n < ps[j].n })
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.path
	}
	return out
}
