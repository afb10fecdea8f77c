// Package fields mines extracted text for identity-document fields. Each
// layer proposes tiered candidates; the merge package picks winners.
package fields

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/countrydb"
	"github.com/joseph-ayodele/docintake/internal/llm"
)

// Candidate is one proposed value for a field. Source is "<layer>/<technique>".
type Candidate struct {
	Field      constants.Field      `json:"field"`
	Value      string               `json:"value"`
	Source     string               `json:"source"`
	Confidence constants.Confidence `json:"confidence"`
}

// LayerOutcome is the result of running one layer.
type LayerOutcome struct {
	Layer      string                  `json:"layer"`
	Status     constants.OutcomeStatus `json:"status"`
	Candidates []Candidate             `json:"candidates,omitempty"`
	Diagnostic string                  `json:"diagnostic,omitempty"`
	Err        error                   `json:"-"`
}

// Env gives layers the capability snapshot and the read-only handles behind it.
type Env struct {
	Caps          capability.Set
	NER           llm.PersonRecognizer
	Countries     *countrydb.Index
	Languages     lingua.LanguageDetector
	FilenameHint  string
	DOBCutoffYear int
}

// NewEnv resolves handles from a loaded registry.
func NewEnv(reg *capability.Registry, dobCutoff int) Env {
	env := Env{Caps: reg.Set(), DOBCutoffYear: dobCutoff}
	if h, ok := reg.Handle(constants.CapNER); ok {
		env.NER, _ = h.(llm.PersonRecognizer)
	}
	if h, ok := reg.Handle(constants.CapCountryDB); ok {
		env.Countries, _ = h.(*countrydb.Index)
	}
	if h, ok := reg.Handle(constants.CapLangDetect); ok {
		env.Languages, _ = h.(lingua.LanguageDetector)
	}
	return env
}

func (e Env) has(c constants.Capability) bool { return e.Caps.Has(c) }

func (e Env) cutoff() int {
	if e.DOBCutoffYear <= 0 {
		return 2005
	}
	return e.DOBCutoffYear
}

// Layer extracts candidates from text.
type Layer interface {
	Name() string
	Extract(ctx context.Context, text string, env Env) LayerOutcome
}

// DefaultLayers returns the built-in layers in registration order.
func DefaultLayers() []Layer {
	return []Layer{NameLayer{}, DateLayer{}, CountryLayer{}}
}

// Run executes every layer concurrently and returns outcomes in layer order.
// Empty text short-circuits every layer to unavailable.
func Run(ctx context.Context, layers []Layer, text string, env Env, logger *slog.Logger) []LayerOutcome {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]LayerOutcome, len(layers))
	if strings.TrimSpace(text) == "" {
		for i, l := range layers {
			out[i] = LayerOutcome{Layer: l.Name(), Status: constants.StatusUnavailable, Diagnostic: "no text extracted"}
		}
		return out
	}

	var g errgroup.Group
	for i, l := range layers {
		g.Go(func() error {
			out[i] = runLayer(ctx, l, text, env, logger)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func runLayer(ctx context.Context, l Layer, text string, env Env, logger *slog.Logger) (lo LayerOutcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("layer %s panicked: %v", l.Name(), rec)
			lo = LayerOutcome{Layer: l.Name(), Status: constants.StatusFailed, Diagnostic: err.Error(), Err: err}
			logger.Error("fields.layer.panic", "layer", l.Name(), "panic", rec)
		}
		logger.Debug("fields.layer.done",
			"layer", lo.Layer,
			"status", lo.Status,
			"candidates", len(lo.Candidates),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()
	if err := ctx.Err(); err != nil {
		return LayerOutcome{Layer: l.Name(), Status: constants.StatusFailed, Diagnostic: err.Error(), Err: err}
	}
	lo = l.Extract(ctx, text, env)
	if lo.Layer == "" {
		lo.Layer = l.Name()
	}
	return lo
}

// collector appends candidates, dropping repeats of the same field, value and source.
type collector struct {
	out  []Candidate
	seen map[string]bool
}

func (c *collector) add(field constants.Field, value, source string, conf constants.Confidence) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	key := string(field) + "\x00" + strings.ToLower(value) + "\x00" + source
	if c.seen == nil {
		c.seen = map[string]bool{}
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, Candidate{Field: field, Value: value, Source: source, Confidence: conf})
}
