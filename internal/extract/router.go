package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
)

// Router dispatches a classified document to its extractors. OCR is the
// second chance for PDFs whose text layer is empty, failed or unreliable.
type Router struct {
	plain   TextExtractor
	docx    TextExtractor
	xlsx    TextExtractor
	image   TextExtractor
	pdfText TextExtractor
	pdfOCR  TextExtractor
	logger  *slog.Logger
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithPDFTextReader replaces the pdfcpu reader.
func WithPDFTextReader(read PDFTextReader) RouterOption {
	return func(r *Router) { r.pdfText = NewPDFText(read) }
}

// NewRouter wires the built-in extractors around an OCR engine (nil disables OCR).
func NewRouter(engine OCREngine, logger *slog.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		plain:   PlainText{},
		docx:    DOCX{},
		xlsx:    XLSX{},
		image:   NewImageOCR(engine),
		pdfText: NewPDFText(nil),
		pdfOCR:  NewPDFOCR(engine),
		logger:  logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Route extracts text. The only error is ErrUnsupportedFormat for ZIP bundles,
// which callers must expand first; every stage failure stays in the outcomes.
func (r *Router) Route(ctx context.Context, doc SourceDocument, cls Classification, caps capability.Set) (Extraction, error) {
	ex := Extraction{Classification: cls}
	switch cls.Format {
	case constants.ZIP:
		return ex, fmt.Errorf("%s: archive must be expanded: %w", doc.Filename, common.ErrUnsupportedFormat)
	case constants.PDF:
		r.routePDF(ctx, doc, cls, caps, &ex)
	case constants.IMAGE:
		ex.add(r.run(ctx, r.image, doc, cls, caps))
	case constants.DOCX:
		ex.add(r.run(ctx, r.docx, doc, cls, caps))
	case constants.XLSX:
		ex.add(r.run(ctx, r.xlsx, doc, cls, caps))
	default:
		// txt and unknown; never OCR
		ex.add(r.run(ctx, r.plain, doc, cls, caps))
	}
	return ex, nil
}

func (r *Router) routePDF(ctx context.Context, doc SourceDocument, cls Classification, caps capability.Set, ex *Extraction) {
	layer := r.run(ctx, r.pdfText, doc, cls, caps)
	ex.Outcomes = append(ex.Outcomes, layer)

	needOCR := layer.Text == "" || !layer.Status.Usable() || layer.Quality.NeedsOCR()
	if !needOCR {
		ex.Text = layer.Text
		return
	}
	scan := r.run(ctx, r.pdfOCR, doc, cls, caps)
	ex.Outcomes = append(ex.Outcomes, scan)
	ex.Text = layer.Text
	if scan.Text != "" {
		ex.Text = scan.Text
	}
}

func (ex *Extraction) add(o Outcome) {
	ex.Outcomes = append(ex.Outcomes, o)
	if ex.Text == "" {
		ex.Text = o.Text
	}
}

// run calls one extractor and turns a panic into a failed outcome.
func (r *Router) run(ctx context.Context, x TextExtractor, doc SourceDocument, cls Classification, caps capability.Set) (out Outcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			out = failedOutcome(x.Name(), common.ExtractionFailure(x.Name(), fmt.Errorf("panic: %v", rec)))
			r.logger.Error("extract.panic", "extractor", x.Name(), "filename", doc.Filename, "panic", rec)
		}
		if out.Duration == 0 {
			out.Duration = time.Since(start)
		}
		r.logger.Debug("extract.outcome",
			"extractor", out.Extractor,
			"status", out.Status,
			"chars", out.Chars,
			"duration_ms", out.Duration.Milliseconds(),
		)
	}()
	if err := ctx.Err(); err != nil {
		return failedOutcome(x.Name(), err)
	}
	return x.Extract(ctx, doc, cls, caps)
}
