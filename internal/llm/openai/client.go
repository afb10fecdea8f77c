package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintake/internal/llm"
)

// RecognizePersons implements llm.PersonRecognizer using text-only chat/completions.
func (c *Client) RecognizePersons(ctx context.Context, req llm.RecognizeRequest) ([]llm.PersonEntity, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.ner.start",
		"req_id", rid,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(c.personsSchema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.caller().PostJSON(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.ner.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.ner.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.ner.no_choices", "req_id", rid)
		return nil, errors.New("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	content, err = c.validate(rid, content)
	if err != nil {
		return nil, err
	}

	var out struct {
		Persons []llm.PersonEntity `json:"persons"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("llm.ner.unmarshal_failed", "req_id", rid, "error", err)
		return nil, fmt.Errorf("unmarshal persons: %w", err)
	}

	c.log.Info("llm.ner.ok",
		"req_id", rid,
		"persons", len(out.Persons),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Persons, nil
}

// validate checks strictly first, then optionally sanitizes and re-validates.
func (c *Client) validate(rid string, content []byte) ([]byte, error) {
	err := c.personsCheck.Validate(content)
	if err == nil {
		return content, nil
	}
	if !c.cfg.LenientOptional {
		c.log.Error("llm.ner.schema_validation_failed", "req_id", rid, "error", err)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(content, c.log)
	if sErr != nil {
		c.log.Error("llm.ner.sanitize_failed", "req_id", rid, "error", sErr)
		return nil, fmt.Errorf("sanitize failed: %w", sErr)
	}
	if vErr := c.personsCheck.Validate(cleaned); vErr != nil {
		c.log.Error("llm.ner.schema_validation_failed", "req_id", rid, "error", vErr)
		return nil, fmt.Errorf("schema validation failed: %w", vErr)
	}
	c.log.Warn("llm.ner.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
	return cleaned, nil
}

// Ping lists models; used by the capability probe when NER_PROBE is set.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return errors.New("OPENAI_API_KEY not set")
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models"
	if _, err := c.caller().Get(ctx, endpoint); err != nil {
		return fmt.Errorf("openai ping: %w", err)
	}
	return nil
}

func (c *Client) caller() llm.Caller {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return llm.Caller{HTTP: c.http, Header: h, Logger: c.log}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
