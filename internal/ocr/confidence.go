package ocr

import (
	"regexp"
	"strings"
)

// signals that OCR decoded an identity document rather than noise
var idSignals = []struct {
	re     *regexp.Regexp
	weight float32
}{
	{regexp.MustCompile(`\b\d{1,4}[./-]\d{1,2}[./-]\d{2,4}\b`), 0.2},
	{regexp.MustCompile(`(?i)\b(passport|nationality|surname|given names?|date of birth|identity|expiry|driving licen[cs]e)\b`), 0.2},
	{regexp.MustCompile(`[A-Z0-9<]{25,}`), 0.2}, // MRZ line
}

const (
	baseConfidence = 0.2
	longTextBonus  = 0.1
	longTextChars  = 120
)

// heuristicConfidence scores text when tesseract gives no TSV confidence.
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	score := float32(baseConfidence)
	for _, s := range idSignals {
		if s.re.MatchString(txt) {
			score += s.weight
		}
	}
	if len(txt) > longTextChars {
		score += longTextBonus
	}
	return min(score, 1)
}
