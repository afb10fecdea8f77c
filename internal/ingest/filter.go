package ingest

import (
	"path/filepath"

	"github.com/joseph-ayodele/docintake/constants"
)

// Routable reports whether the file extension maps to a known format.
func Routable(path string) bool {
	return constants.MapExtToFormat(filepath.Ext(path)) != ""
}

// Hidden reports whether the last path element is a dotfile or dot-directory.
func Hidden(path string) bool {
	switch base := filepath.Base(path); base {
	case ".", "..":
		return false
	default:
		return base[0] == '.'
	}
}
