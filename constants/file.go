package constants

import "strings"

// Format is the routing family a document is classified into.
type Format string

const (
	TXT     Format = "txt"
	PDF     Format = "pdf"
	IMAGE   Format = "image"
	DOCX    Format = "docx"
	XLSX    Format = "xlsx"
	ZIP     Format = "zip"
	UNKNOWN Format = "unknown"
)

// SupportedFormats lists the formats the pipeline can route, in display order.
var SupportedFormats = []Format{TXT, PDF, IMAGE, DOCX, XLSX, ZIP}

// imageExts holds raster extensions handed to OCR.
var imageExts = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"webp": {},
	"heic": {},
	"heif": {},
}

// MaxEntrySizeDefault bounds a single ZIP entry (bytes).
const MaxEntrySizeDefault = 32 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsHEICExt reports whether ext names a HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// MapExtToFormat maps a file extension to a Format; "" when the extension is not known.
func MapExtToFormat(ext string) Format {
	e := NormalizeExt(ext)
	if _, ok := imageExts[e]; ok {
		return IMAGE
	}
	switch e {
	case "txt", "text", "csv", "md", "log":
		return TXT
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "xlsx":
		return XLSX
	case "zip":
		return ZIP
	}
	return ""
}

// MapHintToFormat resolves a declared hint, which may be a format name, an
// extension or a MIME type.
func MapHintToFormat(hint string) Format {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return ""
	}
	if i := strings.IndexByte(h, ';'); i >= 0 {
		h = strings.TrimSpace(h[:i])
	}
	switch h {
	case "text/plain", "text/csv", "text/markdown":
		return TXT
	case "application/pdf":
		return PDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return DOCX
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return XLSX
	case "application/zip", "application/x-zip-compressed":
		return ZIP
	case "image":
		return IMAGE
	}
	if strings.HasPrefix(h, "image/") {
		return IMAGE
	}
	return MapExtToFormat(h)
}
