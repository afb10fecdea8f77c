package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/internal/export"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/ingest"
	"github.com/joseph-ayodele/docintake/internal/merge"
	"github.com/joseph-ayodele/docintake/internal/risk"
)

var (
	extractHint       string
	extractXLSX       string
	extractWorkers    int
	extractTextOnly   bool
	extractSkipHidden bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Process files or directories and print the results as JSON",
	Long: `Process files or directories and print one JSON document with every result.
ZIP bundles are expanded. --text-only stops after text extraction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractHint, "hint", "", "declared format for every input (txt, pdf, image/png, ...)")
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", "also write an XLSX export to this path")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "concurrent documents (default BATCH_WORKERS)")
	extractCmd.Flags().BoolVar(&extractTextOnly, "text-only", false, "print extracted text and outcomes only")
	extractCmd.Flags().BoolVar(&extractSkipHidden, "skip-hidden", true, "skip dot-files when walking directories")
	rootCmd.AddCommand(extractCmd)
}

type extractReport struct {
	Results []extractItem       `json:"results"`
	Load    []ingest.FileResult `json:"load_errors,omitempty"`
	Overall *risk.BatchRisk     `json:"overall_risk_assessment,omitempty"`
}

type extractItem struct {
	Filename string             `json:"filename"`
	Result   *merge.Result      `json:"result,omitempty"`
	Risk     *risk.DocumentRisk `json:"risk_assessment,omitempty"`
	Skipped  string             `json:"skipped,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	loader := ingest.NewFSIngestor(cfg.MaxUploadBytes(), logger)
	loader.Hint = extractHint
	docs, loadErrs, err := loadInputs(cmd, loader, args)
	if err != nil {
		return err
	}

	proc := newProcessor(cfg, logger, extractWorkers)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if extractTextOnly {
		var stages []any
		for _, d := range docs {
			st, err := proc.ExtractText(ctx, d)
			if err != nil {
				stages = append(stages, extractItem{Filename: d.Filename, Error: err.Error()})
				continue
			}
			stages = append(stages, st)
		}
		return enc.Encode(stages)
	}

	now := time.Now()
	rep := extractReport{Load: loadErrs}
	var results []*merge.Result
	for _, it := range proc.ProcessBatch(ctx, docs) {
		item := extractItem{Filename: it.Filename, Result: it.Result, Skipped: it.Skipped}
		if it.Err != nil {
			item.Error = it.Err.Error()
		}
		if it.Result != nil {
			dr := risk.AssessDocument(it.Result, now)
			item.Risk = &dr
			results = append(results, it.Result)
		}
		rep.Results = append(rep.Results, item)
	}
	overall := risk.AssessBatch(results, now)
	rep.Overall = &overall

	if extractXLSX != "" {
		b, err := export.NewService(logger).ResultsXLSX(results, &overall)
		if err != nil {
			return err
		}
		if err := os.WriteFile(extractXLSX, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", extractXLSX, err)
		}
	}
	return enc.Encode(rep)
}

// loadInputs reads files and walks directories. Unreadable inputs are
// reported, not fatal.
func loadInputs(cmd *cobra.Command, loader *ingest.FSIngestor, args []string) ([]extract.SourceDocument, []ingest.FileResult, error) {
	ctx := cmd.Context()
	var docs []extract.SourceDocument
	var failed []ingest.FileResult
	for _, p := range args {
		fi, err := os.Stat(p)
		if err != nil {
			failed = append(failed, ingest.FileResult{Path: p, Err: err.Error()})
			continue
		}
		if fi.IsDir() {
			ds, results, _, err := loader.LoadDirectory(ctx, p, extractSkipHidden)
			if err != nil {
				return nil, nil, err
			}
			docs = append(docs, ds...)
			for _, r := range results {
				if r.Err != "" {
					failed = append(failed, r)
				}
			}
			continue
		}
		d, r, err := loader.LoadPath(ctx, p)
		if err != nil {
			r.Err = err.Error()
			failed = append(failed, r)
			continue
		}
		docs = append(docs, d)
	}
	return docs, failed, nil
}
