package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintake/internal/llm"
)

func completion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, lenient bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, LenientOptional: lenient}, nil)
	require.NoError(t, err)
	return c
}

func TestRecognizePersons(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		_ = json.NewEncoder(w).Encode(completion(`{"persons":[{"name":"John Smith","role":"holder"}]}`))
	}, false)

	got, err := c.RecognizePersons(context.Background(), llm.RecognizeRequest{Text: "Name: John Smith"})
	require.NoError(t, err)
	assert.Equal(t, []llm.PersonEntity{{Name: "John Smith", Role: "holder"}}, got)
}

func TestRecognizePersons_LenientSanitize(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completion(`{"people":["Jane Doe"],"extra":true}`))
	}

	_, err := newTestClient(t, handler, false).RecognizePersons(context.Background(), llm.RecognizeRequest{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	got, err := newTestClient(t, handler, true).RecognizePersons(context.Background(), llm.RecognizeRequest{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []llm.PersonEntity{{Name: "Jane Doe"}}, got)
}

func TestRecognizePersons_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}, true)
	_, err := c.RecognizePersons(context.Background(), llm.RecognizeRequest{Text: "x"})
	var se *llm.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}, true)
	_, err = c.RecognizePersons(context.Background(), llm.RecognizeRequest{Text: "x"})
	assert.ErrorContains(t, err, "no choices")
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, false)
	assert.NoError(t, c.Ping(context.Background()))

	noKey, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)
	noKey.cfg.APIKey = ""
	assert.False(t, noKey.Configured())
	assert.Error(t, noKey.Ping(context.Background()))
}

func TestNewClient_Config(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	c, err := NewClient(Config{}, nil)
	require.NoError(t, err)
	assert.True(t, c.Configured())
	assert.Equal(t, defaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, defaultModel, c.cfg.Model)
	assert.Equal(t, defaultTimeout, c.http.Timeout)

	_, err = NewClient(Config{BaseURL: "api.openai.com/v1"}, nil)
	assert.Error(t, err)
	_, err = NewClient(Config{Temperature: 3}, nil)
	assert.Error(t, err)
}
