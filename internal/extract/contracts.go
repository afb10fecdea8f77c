package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/ocr"
)

// SourceDocument is one uploaded payload. Callers must not mutate Content after construction.
type SourceDocument struct {
	Content  []byte
	Filename string
	Hint     string // declared format: format name, extension or MIME type
}

// Classification is the routing decision for a document.
type Classification struct {
	Format  constants.Format `json:"format"`
	Subtype string           `json:"subtype,omitempty"` // image kind, e.g. "png", "heic"
	Source  string           `json:"source"`            // magic | hint | extension | none
}

// Outcome records what one extractor did. Err and Duration are kept for
// callers and logs but never serialized, so results stay reproducible.
type Outcome struct {
	Extractor  string                  `json:"extractor"`
	Status     constants.OutcomeStatus `json:"status"`
	Method     string                  `json:"method,omitempty"`
	Text       string                  `json:"-"`
	Chars      int                     `json:"chars"`
	Pages      int                     `json:"pages,omitempty"`
	Confidence float32                 `json:"confidence,omitempty"`
	Quality    *PDFQuality             `json:"quality,omitempty"`
	Diagnostic string                  `json:"diagnostic,omitempty"`
	Warnings   []string                `json:"warnings,omitempty"`

	Err      error         `json:"-"`
	Duration time.Duration `json:"-"`
}

// TextExtractor turns a classified document into text.
type TextExtractor interface {
	Name() string
	Extract(ctx context.Context, doc SourceDocument, cls Classification, caps capability.Set) Outcome
}

// OCREngine is the subset of *ocr.Extractor the extractors need.
type OCREngine interface {
	ExtractImage(ctx context.Context, content []byte, subtype string) (ocr.Result, error)
	ExtractPDF(ctx context.Context, content []byte) (ocr.Result, error)
}

// Extraction is the router output: every outcome plus the chosen text.
type Extraction struct {
	Classification Classification `json:"classification"`
	Outcomes       []Outcome      `json:"outcomes"`
	Text           string         `json:"-"`
}

func okOutcome(name, method, text string) Outcome {
	st := constants.StatusOK
	diag := ""
	if text == "" {
		st = constants.StatusDegraded
		diag = "no text found"
	}
	return Outcome{Extractor: name, Status: st, Method: method, Text: text, Chars: len([]rune(text)), Diagnostic: diag}
}

func unavailableOutcome(name string, err error) Outcome {
	return Outcome{Extractor: name, Status: constants.StatusUnavailable, Diagnostic: err.Error(), Err: err}
}

func failedOutcome(name string, err error) Outcome {
	return Outcome{Extractor: name, Status: constants.StatusFailed, Diagnostic: err.Error(), Err: err}
}
