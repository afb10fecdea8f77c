package main

import (
	"log/slog"

	"github.com/joseph-ayodele/docintake/internal/capability"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/extract"
	"github.com/joseph-ayodele/docintake/internal/ocr"
	"github.com/joseph-ayodele/docintake/internal/pipeline"
)

func newProcessor(cfg *common.Config, logger *slog.Logger, workers int) *pipeline.Processor {
	reg := capability.NewRegistry(logger, capability.DefaultProbes(cfg, logger)...).
		WithProbeTimeout(cfg.Capabilities.ProbeTimeout)
	engine := extract.NewProbedOCR(reg, ocr.Config{
		Pdftoppm:            cfg.OCR.Pdftoppm,
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.TesseractLang,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		TessdataDir:         cfg.OCR.TessdataDir,
		HeicConverter:       cfg.OCR.HeicConverter,
		EnableTSVConfidence: true,
		PSM:                 6,
	}, logger)
	router := extract.NewRouter(engine, logger)

	if workers <= 0 {
		workers = cfg.Server.BatchWorkers
	}
	return pipeline.New(reg, router, nil, pipeline.Config{
		DOBCutoffYear: cfg.Fields.DOBCutoffYear,
		BatchWorkers:  workers,
		MaxEntryBytes: cfg.MaxUploadBytes(),
	}, logger)
}
