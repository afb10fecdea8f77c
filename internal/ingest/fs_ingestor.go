package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/extract"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	MaxBytes int64 // per file; 0 -> 32 MiB
	Hint     string
	Logger   *slog.Logger
}

var _ Loader = (*FSIngestor)(nil)

func NewFSIngestor(maxBytes int64, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = constants.MaxEntrySizeDefault
	}
	return &FSIngestor{MaxBytes: maxBytes, Logger: logger}
}

func (i *FSIngestor) LoadPath(ctx context.Context, path string) (extract.SourceDocument, FileResult, error) {
	out := FileResult{Path: path}
	if err := ctx.Err(); err != nil {
		return extract.SourceDocument{}, out, err
	}

	f, err := os.Open(path)
	if err != nil {
		i.Logger.Warn("ingest.open.failed", "path", path, "error", err)
		return extract.SourceDocument{}, out, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.Logger.Warn("ingest.close.failed", "path", path, "error", err)
		}
	}(f)

	b, err := io.ReadAll(io.LimitReader(f, i.MaxBytes+1))
	if err != nil {
		return extract.SourceDocument{}, out, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(b)) > i.MaxBytes {
		return extract.SourceDocument{}, out, fmt.Errorf("%s: larger than %d bytes", path, i.MaxBytes)
	}

	sum := sha256.Sum256(b)
	out.HashHex = hex.EncodeToString(sum[:])
	out.Bytes = len(b)
	return extract.SourceDocument{Content: b, Filename: filepath.Base(path), Hint: i.Hint}, out, nil
}

// LoadDirectory walks root, skips hidden entries if requested and loads
// every file with a routable extension. Per-file failures do not stop the walk.
func (i *FSIngestor) LoadDirectory(ctx context.Context, root string, skipHidden bool) ([]extract.SourceDocument, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var docs []extract.SourceDocument
	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && Hidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Routable(path) {
			return nil
		}
		stats.Matched++

		doc, r, err := i.LoadPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		// filenames are relative to root
		if rel, err := filepath.Rel(root, path); err == nil {
			doc.Filename = filepath.ToSlash(rel)
		}
		docs = append(docs, doc)
		results = append(results, r)
		stats.Loaded++
		return nil
	})
	if err != nil {
		return docs, results, stats, fmt.Errorf("walk: %w", err)
	}
	return docs, results, stats, nil
}
