package llm

// BuildPersonsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the model as an output constraint and also use it locally to validate.
func BuildPersonsJSONSchema() map[string]any {
	person := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":       map[string]any{"type": "string", "minLength": 2},
			"role":       map[string]any{"type": "string", "enum": []string{"holder", "other"}},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"name"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"persons": map[string]any{"type": "array", "items": person},
		},
		"required": []string{"persons"},
	}
}
