package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (people/entities/names -> persons)
// - Accepts bare strings as {"name": ...}
// - Drops empty or too-short names and unknown keys
// - Coerces string confidences to numbers and lowercases roles
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	for _, from := range []string{"people", "entities", "names"} {
		if v, ok := m[from]; ok {
			if _, exists := m["persons"]; !exists {
				m["persons"] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->persons")
		}
	}
	for k := range m {
		if k != "persons" {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	items, _ := m["persons"].([]any)
	persons := make([]any, 0, len(items))
	for i, it := range items {
		p, ok := sanitizePerson(it)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("persons[%d]", i))
			continue
		}
		persons = append(persons, p)
	}
	m["persons"] = persons

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.ner.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func sanitizePerson(v any) (map[string]any, bool) {
	var p map[string]any
	switch t := v.(type) {
	case string:
		p = map[string]any{"name": t}
	case map[string]any:
		p = t
	default:
		return nil, false
	}

	name, _ := p["name"].(string)
	name = strings.Join(strings.Fields(name), " ")
	if len([]rune(name)) < 2 {
		return nil, false
	}
	out := map[string]any{"name": name}

	if role, ok := p["role"].(string); ok {
		switch r := strings.ToLower(strings.TrimSpace(role)); r {
		case "holder", "other":
			out["role"] = r
		}
	}
	switch c := p["confidence"].(type) {
	case float64:
		if c >= 0 && c <= 1 {
			out["confidence"] = c
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil && f >= 0 && f <= 1 {
			out["confidence"] = f
		}
	}
	return out, true
}
