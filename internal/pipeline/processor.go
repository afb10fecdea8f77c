// Package pipeline runs classify, route, field layers and merge for single
// documents, ZIP bundles and batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/fields"
	"github.com/joseph-ayodele/docintake/internal/merge"
)

// Config holds pipeline tuning.
type Config struct {
	DOBCutoffYear int   // default 2005
	BatchWorkers  int   // default 4
	MaxEntryBytes int64 // per ZIP entry, 0 = default
}

// Processor coordinates text extraction then field extraction and merging.
type Processor struct {
	Logger   *slog.Logger
	Registry *capability.Registry
	Router   *extract.Router
	Layers   []fields.Layer
	Cfg      Config

	envOnce sync.Once
	env     fields.Env
}

// New builds a Processor. A nil layers slice selects the default layers.
func New(reg *capability.Registry, router *extract.Router, layers []fields.Layer, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if layers == nil {
		layers = fields.DefaultLayers()
	}
	if cfg.DOBCutoffYear <= 0 {
		cfg.DOBCutoffYear = 2005
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 4
	}
	return &Processor{Logger: logger, Registry: reg, Router: router, Layers: layers, Cfg: cfg}
}

// Capabilities loads (once) and returns the capability set.
func (p *Processor) Capabilities(ctx context.Context) capability.Set {
	return p.Registry.Load(ctx)
}

func (p *Processor) fieldEnv(ctx context.Context, filename string) fields.Env {
	p.envOnce.Do(func() {
		p.Registry.Load(ctx)
		p.env = fields.NewEnv(p.Registry, p.Cfg.DOBCutoffYear)
	})
	env := p.env
	env.FilenameHint = path.Base(filename)
	return env
}

// Process extracts fields from one document. Only a ZIP bundle
// (ErrUnsupportedFormat) or context cancellation produce an error; every
// stage failure is recorded in the result instead.
func (p *Processor) Process(ctx context.Context, doc extract.SourceDocument) (*merge.Result, error) {
	start := time.Now()
	stage, err := p.ExtractText(ctx, doc)
	if err != nil {
		return nil, err
	}
	env := p.fieldEnv(ctx, doc.Filename)

	layers := fields.Run(ctx, p.Layers, stage.Text, env, p.Logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := merge.Merge(doc.Filename, stage.extraction(), layers, env.Caps)
	res.Language = fields.DetectLanguage(stage.Text, env)

	p.Logger.Info("pipeline.process.done",
		"filename", doc.Filename,
		"format", res.Format,
		"status", res.Status,
		"text_len", res.TextLength,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ProcessBundle processes a ZIP bundle entry by entry in archive order.
// Any other document is processed on its own.
func (p *Processor) ProcessBundle(ctx context.Context, doc extract.SourceDocument) ([]*merge.Result, error) {
	if extract.Classify(doc.Filename, doc.Hint, doc.Content).Format != constants.ZIP {
		res, err := p.Process(ctx, doc)
		if err != nil {
			return nil, err
		}
		return []*merge.Result{res}, nil
	}

	entries, skipped, err := p.expand(doc)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		p.Logger.Info("pipeline.bundle.skipped", "bundle", doc.Filename, "entry", s.Name, "reason", s.Reason)
	}
	out := make([]*merge.Result, 0, len(entries))
	for _, e := range entries {
		res, err := p.Process(ctx, e)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (p *Processor) expand(doc extract.SourceDocument) ([]extract.SourceDocument, []extract.Skipped, error) {
	entries, skipped, err := extract.ExpandArchive(doc.Content, p.Cfg.MaxEntryBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", doc.Filename, err)
	}
	for i := range entries {
		entries[i].Filename = path.Join(doc.Filename, entries[i].Filename)
	}
	for i := range skipped {
		skipped[i].Name = path.Join(doc.Filename, skipped[i].Name)
	}
	return entries, skipped, nil
}

// BatchItem is the outcome for one input document or bundle entry.
type BatchItem struct {
	Filename string        `json:"filename"`
	Result   *merge.Result `json:"result,omitempty"`
	Skipped  string        `json:"skipped,omitempty"`
	Err      error         `json:"-"`
}

// ProcessBatch processes documents with bounded concurrency. ZIP inputs are
// expanded in place; output follows input order.
func (p *Processor) ProcessBatch(ctx context.Context, docs []extract.SourceDocument) []BatchItem {
	var items []BatchItem
	var work []extract.SourceDocument
	var slots []int

	for _, d := range docs {
		if extract.Classify(d.Filename, d.Hint, d.Content).Format != constants.ZIP {
			slots = append(slots, len(items))
			items = append(items, BatchItem{Filename: d.Filename})
			work = append(work, d)
			continue
		}
		entries, skipped, err := p.expand(d)
		if err != nil {
			items = append(items, BatchItem{Filename: d.Filename, Err: err})
			continue
		}
		for _, e := range entries {
			slots = append(slots, len(items))
			items = append(items, BatchItem{Filename: e.Filename})
			work = append(work, e)
		}
		for _, s := range skipped {
			items = append(items, BatchItem{Filename: s.Name, Skipped: s.Reason})
		}
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(p.Cfg.BatchWorkers)
	for i, d := range work {
		g.Go(func() error {
			res, err := p.Process(ctx, d)
			items[slots[i]].Result = res
			items[slots[i]].Err = err
			return nil
		})
	}
	_ = g.Wait()

	p.Logger.Info("pipeline.batch.done",
		"inputs", len(docs),
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items
}
