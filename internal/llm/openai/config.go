package openai

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joseph-ayodele/docintake/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// Config for the person-recognition client.
type Config struct {
	APIKey          string // OPENAI_API_KEY when empty
	BaseURL         string
	Model           string
	Temperature     float32
	Timeout         time.Duration
	LenientOptional bool // sanitize and re-check replies that fail the persons schema
}

func (c Config) withDefaults() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Temperature < 0 {
		c.Temperature = 0
	}
	return c
}

func (c Config) check() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("openai base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("openai base url %q: want http(s)://host", c.BaseURL)
	}
	if c.Temperature > 2 {
		return fmt.Errorf("openai temperature %.2f out of range 0..2", c.Temperature)
	}
	return nil
}

// Client recognizes person names via chat completions in JSON mode.
type Client struct {
	cfg           Config
	http          *http.Client
	personsSchema map[string]any
	personsCheck  *llm.SchemaValidator
	log           *slog.Logger
}

var _ llm.PersonRecognizer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema := llm.BuildPersonsJSONSchema()
	check, err := llm.NewSchemaValidator(schema)
	if err != nil {
		return nil, fmt.Errorf("compile persons schema: %w", err)
	}
	return &Client{
		cfg:           cfg,
		http:          &http.Client{Timeout: cfg.Timeout},
		personsSchema: schema,
		personsCheck:  check,
		log:           logger.With("component", "openai", "model", cfg.Model),
	}, nil
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }
