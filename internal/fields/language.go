package fields

import (
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
)

// minLanguageChars keeps detection away from label-only snippets.
const minLanguageChars = 20

// DetectLanguage returns the ISO 639-1 code of text, or "" when detection is
// unavailable or inconclusive.
func DetectLanguage(text string, env Env) string {
	if !env.has(constants.CapLangDetect) || env.Languages == nil {
		return ""
	}
	if len([]rune(strings.TrimSpace(text))) < minLanguageChars {
		return ""
	}
	lang, ok := env.Languages.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
