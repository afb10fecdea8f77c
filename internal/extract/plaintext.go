package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}
)

// PlainText reads UTF-8 (BOM optional) and BOM-marked UTF-16. It needs no capability.
type PlainText struct{}

func (PlainText) Name() string { return "plaintext" }

func (p PlainText) Extract(_ context.Context, doc SourceDocument, _ Classification, _ capability.Set) Outcome {
	txt, err := DecodeText(doc.Content)
	if err != nil {
		return failedOutcome(p.Name(), err)
	}
	return okOutcome(p.Name(), "direct-read", txt)
}

// maxControlShare is the share of control runes above which text is treated as binary.
const maxControlShare = 0.05

// DecodeText decodes b as UTF-8 or UTF-16 (with BOM) and normalizes line endings.
// Other encodings, malformed UTF-16 and binary payloads fail with ErrEncoding.
func DecodeText(b []byte) (string, error) {
	var s string
	switch {
	case bytes.HasPrefix(b, bomUTF16LE), bytes.HasPrefix(b, bomUTF16BE):
		if err := checkUTF16(b); err != nil {
			return "", err
		}
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("utf-16: %w: %v", common.ErrEncoding, err)
		}
		s = string(out)
	default:
		b = bytes.TrimPrefix(b, bomUTF8)
		if !utf8.Valid(b) {
			return "", fmt.Errorf("not utf-8: %w", common.ErrEncoding)
		}
		s = string(b)
	}
	if err := checkTextual(s); err != nil {
		return "", err
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s), nil
}

// checkUTF16 rejects odd lengths and unpaired surrogates. b starts with a BOM.
func checkUTF16(b []byte) error {
	if len(b)%2 != 0 {
		return fmt.Errorf("utf-16: odd byte count: %w", common.ErrEncoding)
	}
	unit := func(i int) uint16 { return uint16(b[i]) | uint16(b[i+1])<<8 }
	if bytes.HasPrefix(b, bomUTF16BE) {
		unit = func(i int) uint16 { return uint16(b[i])<<8 | uint16(b[i+1]) }
	}
	for i := 2; i < len(b); i += 2 {
		switch u := unit(i); {
		case u >= 0xd800 && u <= 0xdbff:
			if i+2 >= len(b) {
				return fmt.Errorf("utf-16: truncated surrogate pair: %w", common.ErrEncoding)
			}
			if next := unit(i + 2); next < 0xdc00 || next > 0xdfff {
				return fmt.Errorf("utf-16: unpaired high surrogate at byte %d: %w", i, common.ErrEncoding)
			}
			i += 2
		case u >= 0xdc00 && u <= 0xdfff:
			return fmt.Errorf("utf-16: unpaired low surrogate at byte %d: %w", i, common.ErrEncoding)
		}
	}
	return nil
}

// checkTextual rejects NUL bytes and a high share of C0/C1 control runes.
// Line breaks, tabs and form feeds count as text.
func checkTextual(s string) error {
	var runes, controls int
	for _, r := range s {
		runes++
		switch {
		case r == 0:
			return fmt.Errorf("binary content: NUL byte: %w", common.ErrEncoding)
		case r == '\n' || r == '\r' || r == '\t' || r == '\f' || r == '\v':
		case r < 0x20 || (r >= 0x7f && r < 0xa0):
			controls++
		}
	}
	if runes > 0 && float64(controls)/float64(runes) > maxControlShare {
		return fmt.Errorf("binary content: %d of %d runes are control characters: %w", controls, runes, common.ErrEncoding)
	}
	return nil
}
