package common

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docintake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":9000"
  max_upload_mb: 8
ocr:
  dpi: 200
fields:
  languages: [en, de]
`), 0o644))
	t.Setenv("OCR_DPI", "150")
	t.Setenv("DISABLE_CAPABILITIES", "ocr, ner ,")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, int64(8<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 150, cfg.OCR.DPI)
	assert.Equal(t, []string{"en", "de"}, cfg.Fields.Languages)
	assert.Equal(t, []string{"ocr", "ner"}, cfg.Capabilities.Disabled)
	assert.Equal(t, 2*time.Minute, cfg.Server.RequestTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, CodeConfig, appErr.Code)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: ["), 0o644))
	_, err = LoadConfigFile(bad)
	assert.ErrorContains(t, err, "parse")
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"upload":  func(c *Config) { c.Server.MaxUploadMB = 0 },
		"dpi":     func(c *Config) { c.OCR.DPI = 10 },
		"heic":    func(c *Config) { c.OCR.HeicConverter = "gimp" },
		"cutoff":  func(c *Config) { c.Fields.DOBCutoffYear = 1800 },
		"logfmt":  func(c *Config) { c.Log.Format = "xml" },
		"address": func(c *Config) { c.Server.HTTPAddr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := defaultConfig()
			mutate(c)
			err := c.Validate()
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.NoError(t, defaultConfig().Validate())
}

func TestEnvParsersKeepDefaultsOnGarbage(t *testing.T) {
	t.Setenv("DOCINTAKE_TEST_INT", "many")
	t.Setenv("DOCINTAKE_TEST_DUR", "soon")
	t.Setenv("DOCINTAKE_TEST_BOOL", "maybe")
	assert.Equal(t, 7, getEnvAsInt("DOCINTAKE_TEST_INT", 7))
	assert.Equal(t, time.Second, getEnvAsDuration("DOCINTAKE_TEST_DUR", time.Second))
	assert.True(t, getEnvAsBool("DOCINTAKE_TEST_BOOL", true))

	t.Setenv("DOCINTAKE_TEST_LIST", "")
	assert.Nil(t, getEnvAsList("DOCINTAKE_TEST_LIST", []string{"x"}))
	assert.Equal(t, []string{"x"}, getEnvAsList("DOCINTAKE_TEST_UNSET", []string{"x"}))
}

func TestExtractionFailure(t *testing.T) {
	cause := errors.New("xref table broken")
	err := ExtractionFailure("pdf-text", cause)
	assert.ErrorIs(t, err, ErrExtractionFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "pdf-text: extraction failed: xref table broken", err.Error())

	assert.ErrorIs(t, ExtractionFailure("docx", nil), ErrExtractionFailure)
	assert.ErrorIs(t, Unavailable("ocr"), ErrUnavailableCapability)
	assert.EqualError(t, Unavailable("ocr"), "ocr: capability unavailable")
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("file", "", Required).
		Field("name", "../etc/passwd", SafeFilename, MaxLength(5)).
		Field("size", int64(11), MaxBytes(10)).
		Field("hint", "ok", MaxLength(5))
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 4)

	err := ValidateAndReturnError(v)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "must not traverse directories")

	assert.NoError(t, ValidateAndReturnError(NewValidator().Field("name", "id.pdf", Required, SafeFilename)))
	assert.NotNil(t, SafeFilename("name", "a\x00b"))
	assert.NotNil(t, Required("body", []byte{}))
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Same(t, slog.Default(), LoggerFromContext(ctx, nil))

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, fallback, LoggerFromContext(ctx, fallback))

	scoped := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx = WithLogger(WithRequestID(ctx, "req-1"), scoped)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Same(t, scoped, LoggerFromContext(ctx, fallback))
}
