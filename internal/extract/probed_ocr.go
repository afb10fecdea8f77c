package extract

import (
	"context"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/ocr"
)

// ProbedOCR builds the OCR engine on first use from the binary paths the
// capability registry resolved, so the program executed is the one probed.
// HEIC converters stay by name; the converter name selects its argv.
type ProbedOCR struct {
	reg   *capability.Registry
	cfg   ocr.Config
	build func(ocr.Config) OCREngine

	once sync.Once
	eng  OCREngine
}

var _ OCREngine = (*ProbedOCR)(nil)

func NewProbedOCR(reg *capability.Registry, cfg ocr.Config, logger *slog.Logger) *ProbedOCR {
	return &ProbedOCR{reg: reg, cfg: cfg, build: func(c ocr.Config) OCREngine {
		return ocr.NewExtractor(c, logger)
	}}
}

func (p *ProbedOCR) engine() OCREngine {
	p.once.Do(func() {
		if path := p.resolved(constants.CapOCR); path != "" {
			p.cfg.Tesseract = path
		}
		if path := p.resolved(constants.CapPDFRender); path != "" {
			p.cfg.Pdftoppm = path
		}
		p.eng = p.build(p.cfg)
	})
	return p.eng
}

func (p *ProbedOCR) resolved(name constants.Capability) string {
	h, ok := p.reg.Handle(name)
	if !ok {
		return ""
	}
	path, _ := h.(string)
	return path
}

func (p *ProbedOCR) ExtractImage(ctx context.Context, content []byte, subtype string) (ocr.Result, error) {
	return p.engine().ExtractImage(ctx, content, subtype)
}

func (p *ProbedOCR) ExtractPDF(ctx context.Context, content []byte) (ocr.Result, error) {
	return p.engine().ExtractPDF(ctx, content)
}
