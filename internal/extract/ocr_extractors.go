package extract

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/ocr"
)

// ImageOCR runs tesseract over a raster image; HEIC needs a converter too.
type ImageOCR struct {
	engine OCREngine
}

func NewImageOCR(engine OCREngine) *ImageOCR { return &ImageOCR{engine: engine} }

func (o *ImageOCR) Name() string { return "image-ocr" }

func (o *ImageOCR) Extract(ctx context.Context, doc SourceDocument, cls Classification, caps capability.Set) Outcome {
	if o.engine == nil || !caps.Has(constants.CapOCR) {
		return unavailableOutcome(o.Name(), common.Unavailable(string(constants.CapOCR)))
	}
	if constants.IsHEICExt(cls.Subtype) && !caps.Has(constants.CapHEICConvert) {
		return unavailableOutcome(o.Name(), common.Unavailable(string(constants.CapHEICConvert)))
	}
	res, err := o.engine.ExtractImage(ctx, doc.Content, cls.Subtype)
	return fromOCR(o.Name(), res, err)
}

// PDFOCR renders pages with pdftoppm and OCRs them.
type PDFOCR struct {
	engine OCREngine
}

func NewPDFOCR(engine OCREngine) *PDFOCR { return &PDFOCR{engine: engine} }

func (o *PDFOCR) Name() string { return "pdf-ocr" }

func (o *PDFOCR) Extract(ctx context.Context, doc SourceDocument, _ Classification, caps capability.Set) Outcome {
	if o.engine == nil || !caps.Has(constants.CapOCR) {
		return unavailableOutcome(o.Name(), common.Unavailable(string(constants.CapOCR)))
	}
	if !caps.Has(constants.CapPDFRender) {
		return unavailableOutcome(o.Name(), common.Unavailable(string(constants.CapPDFRender)))
	}
	res, err := o.engine.ExtractPDF(ctx, doc.Content)
	return fromOCR(o.Name(), res, err)
}

func fromOCR(name string, res ocr.Result, err error) Outcome {
	if errors.Is(err, ocr.ErrProgramMissing) {
		return unavailableOutcome(name, err)
	}
	if err != nil {
		out := failedOutcome(name, common.ExtractionFailure(name, err))
		out.Method = res.Method
		out.Warnings = res.Warnings
		out.Duration = res.Duration
		return out
	}
	out := okOutcome(name, res.Method, res.Text)
	if out.Status == constants.StatusDegraded {
		out.Diagnostic = "ocr recognized no characters"
	}
	out.Pages = res.Pages
	out.Confidence = res.Confidence
	out.Warnings = res.Warnings
	out.Duration = res.Duration
	return out
}
