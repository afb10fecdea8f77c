package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig     `yaml:"server"`
	OCR          OCRConfig        `yaml:"ocr"`
	LLM          LLMConfig        `yaml:"llm"`
	Fields       FieldsConfig     `yaml:"fields"`
	Capabilities CapabilityConfig `yaml:"capabilities"`
	Log          LogConfig        `yaml:"log"`
}

// ServerConfig holds transport-related configuration
type ServerConfig struct {
	HTTPAddr                 string        `yaml:"http_addr"`
	GRPCAddr                 string        `yaml:"grpc_addr"`
	MaxUploadMB              int           `yaml:"max_upload_mb"`
	RequestTimeout           time.Duration `yaml:"request_timeout"`
	MaxConcurrentExtractions int           `yaml:"max_concurrent_extractions"`
	BatchWorkers             int           `yaml:"batch_workers"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseract_lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	Pdftoppm      string `yaml:"pdftoppm"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
	HeicConverter string `yaml:"heic_converter"`
}

// LLMConfig holds configuration of the LLM used for person-name recognition
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	ProbeOnLoad bool          `yaml:"probe_on_load"`
}

// FieldsConfig tunes the field extraction layers
type FieldsConfig struct {
	CountryDBPath string   `yaml:"country_db_path"`
	DOBCutoffYear int      `yaml:"dob_cutoff_year"`
	Languages     []string `yaml:"languages"`
}

// CapabilityConfig controls capability probing
type CapabilityConfig struct {
	Disabled     []string      `yaml:"disabled"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:                 ":5001",
			GRPCAddr:                 ":5002",
			MaxUploadMB:              32,
			RequestTimeout:           2 * time.Minute,
			MaxConcurrentExtractions: 4,
			BatchWorkers:             4,
		},
		OCR: OCRConfig{
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			Pdftoppm:      "pdftoppm",
			DPI:           300,
			MaxPages:      20,
			HeicConverter: "magick",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.0,
			Timeout:     30 * time.Second,
		},
		Fields: FieldsConfig{
			DOBCutoffYear: 2005,
			Languages:     []string{"en", "fr", "de", "es", "it", "pt", "nl"},
		},
		Capabilities: CapabilityConfig{
			ProbeTimeout: 20 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return applyEnv(defaultConfig())
}

// LoadConfigFile reads an optional YAML file, then lets environment variables override it.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("parse %s", path), err)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(c *Config) *Config {
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Server.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.MaxConcurrentExtractions = getEnvAsInt("MAX_CONCURRENT_EXTRACTIONS", c.Server.MaxConcurrentExtractions)
	c.Server.BatchWorkers = getEnvAsInt("BATCH_WORKERS", c.Server.BatchWorkers)

	c.OCR.Tesseract = getEnv("TESSERACT_PATH", c.OCR.Tesseract)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_PATH", c.OCR.Pdftoppm)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)

	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.ProbeOnLoad = getEnvAsBool("NER_PROBE", c.LLM.ProbeOnLoad)

	c.Fields.CountryDBPath = getEnv("COUNTRY_DB_PATH", c.Fields.CountryDBPath)
	c.Fields.DOBCutoffYear = getEnvAsInt("DOB_CUTOFF_YEAR", c.Fields.DOBCutoffYear)
	c.Fields.Languages = getEnvAsList("LANG_DETECT_LANGUAGES", c.Fields.Languages)

	c.Capabilities.Disabled = getEnvAsList("DISABLE_CAPABILITIES", c.Capabilities.Disabled)
	c.Capabilities.ProbeTimeout = getEnvAsDuration("PROBE_TIMEOUT", c.Capabilities.ProbeTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	return c
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return invalidConfig("HTTP_ADDR is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return invalidConfig("MAX_UPLOAD_MB must be positive")
	}
	if c.Server.MaxConcurrentExtractions <= 0 {
		return invalidConfig("MAX_CONCURRENT_EXTRACTIONS must be positive")
	}
	if c.OCR.DPI < 72 || c.OCR.DPI > 1200 {
		return invalidConfig("OCR_DPI must be within 72..1200")
	}
	switch c.OCR.HeicConverter {
	case "", "heif-convert", "magick", "sips":
	default:
		return invalidConfig("HEIC_CONVERTER must be one of heif-convert | magick | sips")
	}
	if c.Fields.DOBCutoffYear < 1900 || c.Fields.DOBCutoffYear > 2100 {
		return invalidConfig("DOB_CUTOFF_YEAR must be within 1900..2100")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalidConfig("LOG_FORMAT must be text or json")
	}
	return nil
}
