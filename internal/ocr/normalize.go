package ocr

import (
	"regexp"
	"strings"
)

var (
	// letter O read inside a digit run
	reDigitO = regexp.MustCompile(`(\d)[Oo](\d)`)
	// ruler lines tesseract produces from table borders
	reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// Normalize tidies tesseract output. Line structure survives, runs of
// horizontal whitespace become one space and at most one blank line is kept
// between paragraphs.
func Normalize(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)

	var b strings.Builder
	pendingBlank := false
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln == "" {
			pendingBlank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
			if pendingBlank {
				b.WriteByte('\n')
			}
		}
		pendingBlank = false
		b.WriteString(ln)
	}

	out := b.String()
	// matches cannot overlap, so "1O1O1" needs a second pass
	for i := 0; i < 2; i++ {
		out = reDigitO.ReplaceAllString(out, "${1}0${2}")
	}
	return out
}
