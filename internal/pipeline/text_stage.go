package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docintake/internal/extract"
)

// TextStage is the classification and extractor outcomes for one document.
type TextStage struct {
	Filename       string                 `json:"filename"`
	Classification extract.Classification `json:"classification"`
	Outcomes       []extract.Outcome      `json:"outcomes"`
	Text           string                 `json:"text"`
}

func (s TextStage) extraction() extract.Extraction {
	return extract.Extraction{Classification: s.Classification, Outcomes: s.Outcomes, Text: s.Text}
}

// ExtractText classifies and routes a document without running field layers.
func (p *Processor) ExtractText(ctx context.Context, doc extract.SourceDocument) (TextStage, error) {
	if err := ctx.Err(); err != nil {
		return TextStage{}, err
	}
	start := time.Now()
	caps := p.Capabilities(ctx)

	cls := extract.Classify(doc.Filename, doc.Hint, doc.Content)
	p.Logger.Debug("pipeline.classify",
		"filename", doc.Filename,
		"format", cls.Format,
		"subtype", cls.Subtype,
		"source", cls.Source,
	)

	ex, err := p.Router.Route(ctx, doc, cls, caps)
	if err != nil {
		p.Logger.Warn("pipeline.route.rejected", "filename", doc.Filename, "error", err)
		return TextStage{}, err
	}
	if err := ctx.Err(); err != nil {
		return TextStage{}, err
	}
	p.Logger.Debug("pipeline.text.done",
		"filename", doc.Filename,
		"outcomes", len(ex.Outcomes),
		"chars", len([]rune(ex.Text)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return TextStage{Filename: doc.Filename, Classification: ex.Classification, Outcomes: ex.Outcomes, Text: ex.Text}, nil
}
