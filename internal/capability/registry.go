package capability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
)

const defaultProbeTimeout = 20 * time.Second

// Probe initializes one optional capability. A nil error marks it available and
// the returned handle (possibly nil) is kept for consumers.
type Probe struct {
	Name constants.Capability
	Init func(ctx context.Context) (any, error)
}

// Registry records, once per process, which capabilities loaded.
type Registry struct {
	logger  *slog.Logger
	probes  []Probe
	timeout time.Duration

	mu      sync.Mutex
	done    bool
	set     Set
	handles map[constants.Capability]any
	diag    map[constants.Capability]string
}

// NewRegistry builds a registry; nothing is probed until the first Load.
func NewRegistry(logger *slog.Logger, probes ...Probe) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		probes:  probes,
		timeout: defaultProbeTimeout,
	}
}

// WithProbeTimeout bounds the whole probing pass. It has no effect after Load.
func (r *Registry) WithProbeTimeout(d time.Duration) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done && d > 0 {
		r.timeout = d
	}
	return r
}

// Load probes every capability exactly once and returns the resulting set.
// Concurrent callers block until the set is complete.
func (r *Registry) Load(ctx context.Context) Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return r.set
	}

	// Cancelling the caller must not leave capabilities marked missing forever.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	start := time.Now()
	avail := make(map[constants.Capability]bool, len(r.probes))
	handles := make(map[constants.Capability]any)
	diag := make(map[constants.Capability]string)

	for _, c := range constants.AllCapabilities() {
		avail[c] = false
		diag[c] = "no probe registered"
	}

	seen := make(map[constants.Capability]bool, len(r.probes))
	for _, p := range r.probes {
		if seen[p.Name] {
			r.logger.Warn("capability.probe.duplicate", "capability", p.Name)
			continue
		}
		seen[p.Name] = true

		h, err := runProbe(pctx, p)
		if err != nil {
			avail[p.Name] = false
			diag[p.Name] = err.Error()
			r.logger.Info("capability.unavailable", "capability", p.Name, "reason", err.Error())
			continue
		}
		avail[p.Name] = true
		delete(diag, p.Name)
		if h != nil {
			handles[p.Name] = h
		}
		r.logger.Debug("capability.available", "capability", p.Name)
	}

	r.set = newSet(avail)
	r.handles = handles
	r.diag = diag
	r.done = true
	r.logger.Info("capability.probe.done",
		"available", r.set.Available(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return r.set
}

func runProbe(ctx context.Context, p Probe) (h any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h = nil
			err = fmt.Errorf("probe panicked: %v", rec)
		}
	}()
	if p.Init == nil {
		return nil, fmt.Errorf("probe has no initializer")
	}
	return p.Init(ctx)
}

// Set returns the capability set, probing first if needed.
func (r *Registry) Set() Set {
	return r.Load(context.Background())
}

// Has reports whether the capability loaded.
func (r *Registry) Has(name constants.Capability) bool {
	return r.Set().Has(name)
}

// Handle returns the read-only handle a probe produced.
func (r *Registry) Handle(name constants.Capability) (any, bool) {
	r.Load(context.Background())
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[name]
	return h, ok
}

// Diagnostics maps each unavailable capability to the reason it is missing.
func (r *Registry) Diagnostics() map[constants.Capability]string {
	r.Load(context.Background())
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[constants.Capability]string, len(r.diag))
	for k, v := range r.diag {
		out[k] = v
	}
	return out
}

// Available is a probe that always succeeds with the given handle.
func Available(name constants.Capability, handle any) Probe {
	return Probe{Name: name, Init: func(context.Context) (any, error) { return handle, nil }}
}

// Missing is a probe that always reports the capability as unavailable.
func Missing(name constants.Capability, reason string) Probe {
	return Probe{Name: name, Init: func(context.Context) (any, error) { return nil, fmt.Errorf("%s", reason) }}
}
