package ocr

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config locates the helper binaries and tunes tesseract.
type Config struct {
	Tesseract     string // path or name on PATH, default "tesseract"
	TesseractLang string // -l value, default "eng"
	TessdataDir   string
	OEM           int // engine mode, 0 leaves tesseract's default
	PSM           int // page segmentation mode, 0 leaves tesseract's default

	// EnableTSVConfidence runs a second tsv pass for per-word confidence.
	EnableTSVConfidence bool

	Pdftoppm string // default "pdftoppm"
	DPI      int    // raster DPI for scanned PDFs, default 300
	MaxPages int    // 0 renders every page

	HeicConverter string // one of HEICConverters
}

// Result is the text recognized from one image or every page of a PDF.
type Result struct {
	Text       string
	Pages      int
	Method     string // image-ocr or pdf-ocr
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // 0..1
}

// Extractor OCRs in-memory payloads. Each call spills its input into a
// private temp directory that is removed before the call returns.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: commandRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; used to stub binaries in tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	if r != nil {
		e.runner = r
	}
	return e
}

func (e *Extractor) Config() Config { return e.cfg }

// spill writes content into a fresh temp dir and returns the file path plus cleanup.
func (e *Extractor) spill(content []byte, name string) (string, string, func(), error) {
	dir, err := os.MkdirTemp("", "docintake-ocr-*")
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.cleanup.failed", "dir", dir, "error", err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("write temp input: %w", err)
	}
	return path, dir, cleanup, nil
}
