package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/merge"
	"github.com/joseph-ayodele/docintake/internal/risk"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type healthReport struct {
	Status           string                          `json:"status"`
	Service          string                          `json:"service"`
	Timestamp        string                          `json:"timestamp"`
	Capabilities     capability.Set                  `json:"capabilities"`
	Diagnostics      map[constants.Capability]string `json:"diagnostics,omitempty"`
	SupportedFormats []constants.Format              `json:"supported_formats"`
}

// documentReport is a result with its per-document assessments.
type documentReport struct {
	*merge.Result
	Risk    risk.DocumentRisk `json:"risk_assessment"`
	Quality risk.Quality      `json:"quality_assessment"`
}

type fileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type batchSummary struct {
	TotalFiles           int    `json:"total_files"`
	SuccessfulProcessing int    `json:"successful_processing"`
	FailedProcessing     int    `json:"failed_processing"`
	ProcessedAt          string `json:"processed_at"`
}

type batchReport struct {
	Results []documentReport `json:"results"`
	Errors  []fileError      `json:"errors"`
	Overall risk.BatchRisk   `json:"overall_risk_assessment"`
	Summary batchSummary     `json:"summary"`
}

type textReport struct {
	Filename       string                 `json:"filename"`
	Classification extract.Classification `json:"classification"`
	Outcomes       []extract.Outcome      `json:"outcomes"`
	Text           string                 `json:"text"`
	TextLength     int                    `json:"text_length"`
}

func (s *Service) report(res *merge.Result, now time.Time) documentReport {
	return documentReport{Result: res, Risk: risk.AssessDocument(res, now), Quality: risk.AssessQuality(res)}
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	caps := s.proc.Capabilities(r.Context())
	s.ok(w, r, "", healthReport{
		Status:           "healthy",
		Service:          serviceName,
		Timestamp:        s.now().UTC().Format(time.RFC3339),
		Capabilities:     caps,
		Diagnostics:      s.proc.Registry.Diagnostics(),
		SupportedFormats: constants.SupportedFormats,
	})
}

func (s *Service) acquire(r *http.Request) (func(), error) {
	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		return nil, err
	}
	return func() { s.sem.Release(1) }, nil
}

// handleProcessSingle answers with one report, or a list for a ZIP bundle.
func (s *Service) handleProcessSingle(w http.ResponseWriter, r *http.Request) {
	docs, err := s.readUploads(r, "file")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	release, err := s.acquire(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer release()

	doc := docs[0]
	now := s.now()
	if extract.Classify(doc.Filename, doc.Hint, doc.Content).Format == constants.ZIP {
		results, err := s.proc.ProcessBundle(r.Context(), doc)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out := make([]documentReport, 0, len(results))
		for _, res := range results {
			out = append(out, s.report(res, now))
		}
		s.ok(w, r, fmt.Sprintf("Processed %d documents from %s", len(out), doc.Filename), out)
		return
	}

	res, err := s.proc.Process(r.Context(), doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "File processed successfully", s.report(res, now))
}

// handleProcessFiles processes every upload (bundles expanded) and adds the
// cross-document assessment. ?format=xlsx returns a workbook instead of JSON.
func (s *Service) handleProcessFiles(w http.ResponseWriter, r *http.Request) {
	docs, err := s.readUploads(r, "files")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	release, err := s.acquire(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer release()

	now := s.now()
	items := s.proc.ProcessBatch(r.Context(), docs)
	if err := r.Context().Err(); err != nil {
		s.fail(w, r, err)
		return
	}

	rep := batchReport{Results: []documentReport{}, Errors: []fileError{}}
	var results []*merge.Result
	for _, it := range items {
		switch {
		case it.Err != nil:
			rep.Errors = append(rep.Errors, fileError{Filename: it.Filename, Error: it.Err.Error()})
		case it.Skipped != "":
			rep.Errors = append(rep.Errors, fileError{Filename: it.Filename, Error: "skipped: " + it.Skipped})
		case it.Result != nil:
			results = append(results, it.Result)
			rep.Results = append(rep.Results, s.report(it.Result, now))
		}
	}
	rep.Overall = risk.AssessBatch(results, now)
	rep.Summary = batchSummary{
		TotalFiles:           len(docs),
		SuccessfulProcessing: len(rep.Results),
		FailedProcessing:     len(rep.Errors),
		ProcessedAt:          now.UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("format") == "xlsx" {
		b, err := s.exporter.ResultsXLSX(results, &rep.Overall)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="docintake-results.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
		return
	}
	s.ok(w, r, fmt.Sprintf("Processed %d files", len(docs)), rep)
}

func (s *Service) handleExtractText(w http.ResponseWriter, r *http.Request) {
	docs, err := s.readUploads(r, "file")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	release, err := s.acquire(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer release()

	st, err := s.proc.ExtractText(r.Context(), docs[0])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, r, "Text extracted successfully", textReport{
		Filename:       st.Filename,
		Classification: st.Classification,
		Outcomes:       st.Outcomes,
		Text:           st.Text,
		TextLength:     len([]rune(st.Text)),
	})
}
