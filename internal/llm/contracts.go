package llm

import "context"

// PersonEntity is one person mention recognized in document text.
type PersonEntity struct {
	Name       string  `json:"name"`
	Role       string  `json:"role,omitempty"`       // "holder" | "other"
	Confidence float32 `json:"confidence,omitempty"` // optional (0..1)
}

// RecognizeRequest carries the text to scan plus an optional filename hint.
type RecognizeRequest struct {
	Text         string
	FilenameHint string
}

// PersonRecognizer is the NER interface the name layer depends on.
type PersonRecognizer interface {
	RecognizePersons(ctx context.Context, req RecognizeRequest) ([]PersonEntity, error)
}
