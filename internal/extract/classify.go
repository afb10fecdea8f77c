package extract

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
)

const (
	SourceMagic     = "magic"
	SourceHint      = "hint"
	SourceExtension = "extension"
	SourceNone      = "none"
)

var heicBrands = map[string]string{
	"heic": "heic", "heix": "heic", "hevc": "heic", "hevx": "heic",
	"heim": "heic", "heis": "heic", "mif1": "heif", "msf1": "heif", "heif": "heif",
}

// Classify decides the routing family of a document: magic bytes first, then
// the declared hint, then the filename extension. Text has no magic, so plain
// text resolves by hint or extension; anything else is "unknown".
func Classify(filename, hint string, content []byte) Classification {
	if cls, ok := sniff(content, filename, hint); ok {
		return cls
	}
	if f := constants.MapHintToFormat(hint); f != "" {
		return Classification{Format: f, Subtype: imageSubtype(f, hint, filename), Source: SourceHint}
	}
	ext := filepath.Ext(filename)
	if f := constants.MapExtToFormat(ext); f != "" {
		return Classification{Format: f, Subtype: imageSubtype(f, "", filename), Source: SourceExtension}
	}
	return Classification{Format: constants.UNKNOWN, Source: SourceNone}
}

func sniff(b []byte, filename, hint string) (Classification, bool) {
	img := func(sub string) (Classification, bool) {
		return Classification{Format: constants.IMAGE, Subtype: sub, Source: SourceMagic}, true
	}
	switch {
	case bytes.HasPrefix(b, []byte("%PDF-")):
		return Classification{Format: constants.PDF, Source: SourceMagic}, true
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return img("png")
	case bytes.HasPrefix(b, []byte{0xff, 0xd8, 0xff}):
		return img("jpeg")
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return img("gif")
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return img("tiff")
	case len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP":
		return img("webp")
	case isBMP(b):
		return img("bmp")
	case len(b) >= 12 && string(b[4:8]) == "ftyp":
		if sub, ok := heicBrands[string(b[8:12])]; ok {
			return img(sub)
		}
	case bytes.HasPrefix(b, []byte("PK\x03\x04")):
		return Classification{Format: zipFamily(b, filename, hint), Source: SourceMagic}, true
	}
	return Classification{}, false
}

// BMP: "BM", 4 byte size, 4 reserved zero bytes.
func isBMP(b []byte) bool {
	return len(b) >= 26 && b[0] == 'B' && b[1] == 'M' &&
		b[6] == 0 && b[7] == 0 && b[8] == 0 && b[9] == 0
}

// zipFamily inspects the archive directory to tell OOXML documents from bundles.
// An unreadable directory defers to the declared type so a corrupt DOCX still
// reaches the DOCX extractor and fails there.
func zipFamily(b []byte, filename, hint string) constants.Format {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		for _, f := range []constants.Format{constants.MapHintToFormat(hint), constants.MapExtToFormat(filepath.Ext(filename))} {
			if f == constants.DOCX || f == constants.XLSX {
				return f
			}
		}
		return constants.ZIP
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return constants.DOCX
		case "xl/workbook.xml":
			return constants.XLSX
		}
	}
	return constants.ZIP
}

func imageSubtype(f constants.Format, hint, filename string) string {
	if f != constants.IMAGE {
		return ""
	}
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.TrimPrefix(h, "image/")
	if constants.MapExtToFormat(h) == constants.IMAGE {
		return canonicalImageExt(h)
	}
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if constants.MapExtToFormat(ext) == constants.IMAGE {
		return canonicalImageExt(ext)
	}
	return ""
}

func canonicalImageExt(ext string) string {
	switch ext {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return ext
}
