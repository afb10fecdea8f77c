package constants

import (
	"sort"
	"strings"
)

// Capability names an optional runtime tool, model or database.
type Capability string

const (
	CapOCR         Capability = "ocr"          // tesseract binary
	CapPDFRender   Capability = "pdf_render"   // pdftoppm binary
	CapPDFText     Capability = "pdf_text"     // embedded PDF text layer (pdfcpu)
	CapHEICConvert Capability = "heic_convert" // heif-convert | magick | sips
	CapDOCX        Capability = "docx"
	CapXLSX        Capability = "xlsx"
	CapNER         Capability = "ner" // LLM-backed person recognition
	CapCountryDB   Capability = "country_db"
	CapDateParser  Capability = "date_parser"
	CapLangDetect  Capability = "lang_detect"
)

var allCapabilities = []Capability{
	CapOCR,
	CapPDFRender,
	CapPDFText,
	CapHEICConvert,
	CapDOCX,
	CapXLSX,
	CapNER,
	CapCountryDB,
	CapDateParser,
	CapLangDetect,
}

// AllCapabilities returns every known capability in a stable order.
func AllCapabilities() []Capability {
	out := make([]Capability, len(allCapabilities))
	copy(out, allCapabilities)
	return out
}

// ParseCapabilities parses a comma separated list, ignoring unknown names.
func ParseCapabilities(list string) []Capability {
	known := make(map[string]Capability, len(allCapabilities))
	for _, c := range allCapabilities {
		known[string(c)] = c
	}
	var out []Capability
	for _, part := range strings.Split(list, ",") {
		if c, ok := known[strings.ToLower(strings.TrimSpace(part))]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
