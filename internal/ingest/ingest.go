package ingest

import (
	"context"

	"github.com/joseph-ayodele/docintake/internal/extract"
)

// FileResult is the per-file load outcome.
type FileResult struct {
	Path    string `json:"path"`
	HashHex string `json:"sha256,omitempty"`
	Bytes   int    `json:"bytes"`
	Err     string `json:"error,omitempty"`
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned uint32 `json:"scanned"`
	Matched uint32 `json:"matched"`
	Loaded  uint32 `json:"loaded"`
	Failed  uint32 `json:"failed"`
}

// Loader reads local files into source documents.
type Loader interface {
	// LoadPath reads a single file.
	LoadPath(ctx context.Context, path string) (extract.SourceDocument, FileResult, error)
	// LoadDirectory reads all matching files under root.
	LoadDirectory(ctx context.Context, root string, skipHidden bool) ([]extract.SourceDocument, []FileResult, DirStats, error)
}
