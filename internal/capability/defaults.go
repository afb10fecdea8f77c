package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/countrydb"
	"github.com/joseph-ayodele/docintake/internal/llm/openai"
	"github.com/joseph-ayodele/docintake/internal/ocr"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// DefaultProbes builds the production probe list from configuration.
// Capabilities named in cfg.Capabilities.Disabled are reported missing.
func DefaultProbes(cfg *common.Config, logger *slog.Logger) []Probe {
	if logger == nil {
		logger = slog.Default()
	}
	probes := []Probe{
		binaryProbe(constants.CapOCR, cfg.OCR.Tesseract),
		binaryProbe(constants.CapPDFRender, cfg.OCR.Pdftoppm),
		heicProbe(cfg.OCR.HeicConverter),
		Available(constants.CapPDFText, nil),
		Available(constants.CapDOCX, nil),
		Available(constants.CapXLSX, nil),
		Available(constants.CapDateParser, nil),
		nerProbe(cfg.LLM, logger),
		countryDBProbe(cfg.Fields.CountryDBPath),
		langProbe(cfg.Fields.Languages),
	}

	disabled := constants.ParseCapabilities(strings.Join(cfg.Capabilities.Disabled, ","))
	for i, p := range probes {
		if slices.Contains(disabled, p.Name) {
			probes[i] = Missing(p.Name, "disabled by configuration")
		}
	}
	return probes
}

func binaryProbe(name constants.Capability, bin string) Probe {
	return Probe{Name: name, Init: func(context.Context) (any, error) {
		if strings.TrimSpace(bin) == "" {
			return nil, errors.New("binary not configured")
		}
		path, err := lookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("%s not found: %w", bin, err)
		}
		return path, nil
	}}
}

func heicProbe(converter string) Probe {
	return Probe{Name: constants.CapHEICConvert, Init: func(ctx context.Context) (any, error) {
		if !slices.Contains(ocr.HEICConverters, converter) {
			return nil, fmt.Errorf("unsupported HEIC converter %q", converter)
		}
		return binaryProbe(constants.CapHEICConvert, converter).Init(ctx)
	}}
}

func nerProbe(cfg common.LLMConfig, logger *slog.Logger) Probe {
	return Probe{Name: constants.CapNER, Init: func(ctx context.Context) (any, error) {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		client, err := openai.NewClient(openai.Config{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			LenientOptional: true,
		}, logger)
		if err != nil {
			return nil, err
		}
		if cfg.ProbeOnLoad {
			if err := client.Ping(ctx); err != nil {
				return nil, err
			}
		}
		return client, nil
	}}
}

func countryDBProbe(path string) Probe {
	return Probe{Name: constants.CapCountryDB, Init: func(ctx context.Context) (any, error) {
		return countrydb.Load(ctx, path)
	}}
}

func langProbe(codes []string) Probe {
	return Probe{Name: constants.CapLangDetect, Init: func(context.Context) (any, error) {
		langs, err := linguaLanguages(codes)
		if err != nil {
			return nil, err
		}
		return lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(), nil
	}}
}

// linguaLanguages maps ISO 639-1 codes to lingua languages; the detector
// needs at least two to choose from.
func linguaLanguages(codes []string) ([]lingua.Language, error) {
	var out []lingua.Language
	for _, code := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(strings.TrimSpace(code)))
		lang := lingua.GetLanguageFromIsoCode639_1(iso)
		if lang == lingua.Unknown {
			return nil, fmt.Errorf("unknown language code %q", code)
		}
		if !slices.Contains(out, lang) {
			out = append(out, lang)
		}
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("language detection needs at least two languages, got %d", len(out))
	}
	return out, nil
}
