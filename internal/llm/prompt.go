package llm

import (
	"strings"
)

const maxPromptText = 3000

// BuildSystemPrompt states the extraction task and formatting rules.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a named-entity recognizer for identity documents (passports, ID cards, driving licences, visas).",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"List every person name that appears in the text, in reading order, exactly as written apart from whitespace.",
		"Mark the document holder with role 'holder'; parents, officials or signatories get role 'other'.",
		"Join surname and given names into one natural-order name when they are printed in separate fields.",
		"Do not invent names. Do not return labels, places, nationalities or organizations.",
		"Never output null. If no person appears, return an empty 'persons' array.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and the (truncated) document text.
func BuildUserPrompt(req RecognizeRequest) string {
	var b strings.Builder
	if filename := strings.TrimSpace(req.FilenameHint); filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	b.WriteString("\nDocument text (first ~3k chars):\n")
	if r := []rune(text); len(r) > maxPromptText {
		b.WriteString(string(r[:maxPromptText]))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
