package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	methodImage = "image-ocr"
	ocrWeight   = 0.7 // share of tesseract's own confidence when TSV mode ran
)

// ExtractImage OCRs a single image. HEIC and HEIF are converted to PNG first.
func (e *Extractor) ExtractImage(ctx context.Context, content []byte, subtype string) (Result, error) {
	began := time.Now()
	if subtype == "" {
		subtype = "img"
	}
	in, dir, cleanup, err := e.spill(content, "input."+subtype)
	if err != nil {
		return Result{Method: methodImage}, err
	}
	defer cleanup()

	var notes []string
	if subtype == "heic" || subtype == "heif" {
		png, w, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, in, dir)
		notes = w
		if err != nil {
			e.logger.Error("ocr.heic.failed", "converter", e.cfg.HeicConverter, "error", err)
			return Result{Method: methodImage, Warnings: notes}, err
		}
		in = png
	}

	res, err := e.ocrImage(ctx, in)
	res.Duration = time.Since(began)
	res.Warnings = append(notes, res.Warnings...)
	return res, err
}

// ocrImage runs tesseract on one image file already on disk.
func (e *Extractor) ocrImage(ctx context.Context, path string) (Result, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path, false)...)
	if err != nil {
		return Result{Method: methodImage, Warnings: warnings(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	text := Normalize(reBoxNoise.ReplaceAllString(string(out), ""))
	res := Result{Text: text, Pages: 1, Method: methodImage}

	heur := heuristicConfidence(text)
	res.Confidence = heur
	if !e.cfg.EnableTSVConfidence || text == "" {
		return res, nil
	}
	tsv, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path, true)...)
	if err != nil {
		res.Warnings = append(res.Warnings, "tesseract tsv: "+err.Error())
		res.Warnings = append(res.Warnings, warnings(errb)...)
		return res, nil
	}
	if c := meanTSVConfidence(string(tsv)); c > 0 {
		res.Confidence = min(ocrWeight*c+(1-ocrWeight)*heur, 1)
	}
	return res, nil
}

// tesseractArgs builds `tesseract <path> stdout -l <lang> [opts] [tsv]`.
func (e *Extractor) tesseractArgs(path string, tsv bool) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if tsv {
		args = append(args, "tsv")
	}
	return args
}

// meanTSVConfidence averages the word conf column (index 10) into 0..1.
// Rows with conf -1 are layout rows, not words.
func meanTSVConfidence(tsv string) float32 {
	var sum float64
	words := 0
	for i, row := range strings.Split(tsv, "\n") {
		if i == 0 || row == "" {
			continue
		}
		cols := strings.Split(row, "\t")
		if len(cols) < 12 {
			continue
		}
		raw := strings.TrimSpace(cols[10])
		if raw == "" || raw == "-1" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		sum += v
		words++
	}
	if words == 0 {
		return 0
	}
	return float32(sum / float64(words) / 100)
}

func warnings(stderr []byte) []string {
	if s := strings.TrimSpace(string(stderr)); s != "" {
		return []string{clip(s, 1024)}
	}
	return nil
}
