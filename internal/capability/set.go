package capability

import (
	"encoding/json"
	"sort"

	"github.com/joseph-ayodele/docintake/constants"
)

// Set is an immutable snapshot of capability availability.
type Set struct {
	m map[constants.Capability]bool
}

func newSet(m map[constants.Capability]bool) Set {
	cp := make(map[constants.Capability]bool, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Set{m: cp}
}

// NewSet builds a set where exactly the named capabilities are available.
func NewSet(available ...constants.Capability) Set {
	m := make(map[constants.Capability]bool)
	for _, c := range constants.AllCapabilities() {
		m[c] = false
	}
	for _, c := range available {
		m[c] = true
	}
	return Set{m: m}
}

func (s Set) Has(name constants.Capability) bool { return s.m[name] }

// Available lists the loaded capabilities in name order.
func (s Set) Available() []constants.Capability {
	var out []constants.Capability
	for k, v := range s.m {
		if v {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map returns a copy keyed by capability name.
func (s Set) Map() map[string]bool {
	out := make(map[string]bool, len(s.m))
	for k, v := range s.m {
		out[string(k)] = v
	}
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	// map keys are emitted sorted, so output is stable.
	return json.Marshal(s.Map())
}
