package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/common"
)

// Skipped records an archive entry that was not expanded.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ExpandArchive returns the processable entries of a ZIP bundle in archive order.
// Directories, hidden files and nested archives are skipped, as are entries
// larger than maxEntry bytes (0 selects the default limit).
func ExpandArchive(content []byte, maxEntry int64) ([]SourceDocument, []Skipped, error) {
	if maxEntry <= 0 {
		maxEntry = constants.MaxEntrySizeDefault
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, nil, common.ExtractionFailure("zip", err)
	}

	var docs []SourceDocument
	var skipped []Skipped
	for _, f := range zr.File {
		name := f.Name
		base := path.Base(name)
		switch {
		case f.FileInfo().IsDir():
			continue
		case strings.HasPrefix(base, ".") || strings.HasPrefix(name, "__MACOSX/"):
			skipped = append(skipped, Skipped{Name: name, Reason: "hidden file"})
			continue
		case f.UncompressedSize64 > uint64(maxEntry):
			skipped = append(skipped, Skipped{Name: name, Reason: fmt.Sprintf("larger than %d bytes", maxEntry)})
			continue
		}

		b, err := readEntry(f, maxEntry)
		if err != nil {
			skipped = append(skipped, Skipped{Name: name, Reason: err.Error()})
			continue
		}
		if Classify(name, "", b).Format == constants.ZIP {
			skipped = append(skipped, Skipped{Name: name, Reason: "nested archive"})
			continue
		}
		docs = append(docs, SourceDocument{Content: b, Filename: name})
	}
	return docs, skipped, nil
}

// readEntry reads at most limit bytes; headers can understate the real size.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("larger than %d bytes", limit)
	}
	return b, nil
}
