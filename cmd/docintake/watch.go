package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/internal/async"
	"github.com/joseph-ayodele/docintake/internal/ingest"
	"github.com/joseph-ayodele/docintake/internal/merge"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Process files as they appear under a directory",
	Long:  `Watch a directory tree and print one JSON line per processed document. Content already seen (by SHA-256) is skipped.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", true, "process files already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle")
	rootCmd.AddCommand(watchCmd)
}

type watchLine struct {
	Path    string        `json:"path"`
	SHA256  string        `json:"sha256"`
	TraceID string        `json:"trace_id"`
	Result  *merge.Result `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := newProcessor(cfg, logger, 0)
	proc.Capabilities(ctx)
	loader := ingest.NewFSIngestor(cfg.MaxUploadBytes(), logger)

	var outMu sync.Mutex
	enc := json.NewEncoder(cmd.OutOrStdout())
	emit := func(l watchLine) {
		outMu.Lock()
		defer outMu.Unlock()
		if err := enc.Encode(l); err != nil {
			logger.Warn("watch.emit.failed", "error", err)
		}
	}

	var seen sync.Map // sha256 -> path
	handle := func(ctx context.Context, job async.Job) error {
		doc, fr, err := loader.LoadPath(ctx, job.Path)
		if err != nil {
			emit(watchLine{Path: job.Path, TraceID: job.TraceID, Error: err.Error()})
			return err
		}
		if prev, dup := seen.LoadOrStore(fr.HashHex, job.Path); dup && !job.Force {
			logger.Info("watch.duplicate", "path", job.Path, "first_seen", prev, "sha256", fr.HashHex)
			return nil
		}
		results, err := proc.ProcessBundle(ctx, doc)
		if err != nil {
			emit(watchLine{Path: job.Path, SHA256: fr.HashHex, TraceID: job.TraceID, Error: err.Error()})
			return err
		}
		for _, r := range results {
			emit(watchLine{Path: job.Path, SHA256: fr.HashHex, TraceID: job.TraceID, Result: r})
		}
		return nil
	}

	queue := async.NewWorkerQueue(handle, logger,
		async.WithWorkers(cfg.Server.BatchWorkers),
		async.WithProcessTimeout(cfg.Server.RequestTimeout),
	)
	defer queue.Shutdown(context.Background())

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{args[0]},
		InitialScan: watchInitial,
		SkipHidden:  true,
		Debounce:    watchDebounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info("watch.started", "root", args[0])

	for {
		select {
		case p, ok := <-events:
			if !ok {
				return nil
			}
			job := async.NewJob(p)
			if err := queue.Enqueue(ctx, job); err != nil {
				logger.Warn("watch.enqueue.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.error", "error", err)
		case <-ctx.Done():
			logger.Info("watch.stopping")
			return nil
		}
	}
}
