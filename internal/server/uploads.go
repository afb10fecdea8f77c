package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
)

// readUploads reads every multipart file under field. Filenames are reduced
// to their base name.
func (s *Service) readUploads(r *http.Request, field string) ([]extract.SourceDocument, error) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, common.InvalidInputErrorf("parse form: %v", err)
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, common.InvalidInputError("No file provided")
	}
	hint := strings.TrimSpace(r.FormValue("format_hint"))

	docs := make([]extract.SourceDocument, 0, len(headers))
	for _, fh := range headers {
		name := path.Base(filepath.ToSlash(strings.TrimSpace(fh.Filename)))
		if name == "." || name == "/" {
			name = ""
		}
		v := common.NewValidator().
			Field("filename", name, common.Required, common.SafeFilename, common.MaxLength(255)).
			Field("size", fh.Size, common.MaxBytes(s.opts.MaxUploadBytes)).
			Field("format_hint", hint, common.MaxLength(100))
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", name, err)
		}
		b, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", name, err)
		}
		docs = append(docs, extract.SourceDocument{Content: b, Filename: name, Hint: hint})
	}
	return docs, nil
}
