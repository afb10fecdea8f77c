package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	maxResponseBytes = 4 << 20
	maxErrorBody     = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

// Caller talks JSON to one provider. Header is applied to every request.
type Caller struct {
	HTTP   *http.Client
	Header http.Header
	Logger *slog.Logger
}

// PostJSON encodes body and POSTs it to url.
func (c Caller) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.roundTrip(ctx, http.MethodPost, url, payload)
}

// Get fetches url.
func (c Caller) Get(ctx context.Context, url string) ([]byte, error) {
	return c.roundTrip(ctx, http.MethodGet, url, nil)
}

func (c Caller) roundTrip(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	log = log.With("call_id", uuid.NewString(), "method", method)

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.Header {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	began := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm.http.send_error", "url", url, "error", err, "elapsed_ms", time.Since(began).Milliseconds())
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("llm.http.close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	log.Debug("llm.http.response",
		"url", url,
		"status", resp.StatusCode,
		"sent_bytes", len(payload),
		"recv_bytes", len(raw),
		"elapsed_ms", time.Since(began).Milliseconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := raw
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return raw, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return raw, nil
}
