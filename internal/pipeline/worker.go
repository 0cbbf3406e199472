package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/grimoire/internal/batch"
	"github.com/dgallion1/grimoire/internal/spell"
	"github.com/dgallion1/grimoire/internal/store"
)

// Worker extracts the documents of a job and stores the results.
type Worker struct {
	store *store.Store
	stats *ExtractStats
	log   *slog.Logger
	opts  []spell.Option
}

func NewWorker(st *store.Store, stats *ExtractStats, log *slog.Logger, opts ...spell.Option) *Worker {
	return &Worker{
		store: st,
		stats: stats,
		log:   log,
		opts:  opts,
	}
}

// Extract parses and extracts one document, recording its latency. Every
// call walks with its own dispatcher.
func (w *Worker) Extract(name string, data []byte) (*spell.Spell, error) {
	opts := append([]spell.Option{spell.WithLogger(w.log.With("file", name))}, w.opts...)
	start := time.Now()
	sp, err := batch.Extract(bytes.NewReader(data), name, opts...)
	w.stats.Record(time.Since(start), err != nil)
	return sp, err
}

// Process runs parse, extract and store for every file of the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	job.SetStatus(StatusExtracting, "extracting")
	defer job.releaseFiles()

	hadErrors := false
	for _, f := range job.Files() {
		if err := ctx.Err(); err != nil {
			log.Warn("job cancelled", "error", err)
			job.AddError(fmt.Sprintf("cancelled: %s", err))
			hadErrors = true
			break
		}
		if err := w.processFile(ctx, job, f, log); err != nil {
			hadErrors = true
		}
	}

	snap := job.Snapshot()
	log.Info("job complete",
		"extracted", snap.Progress.Extracted,
		"skipped", snap.Progress.Skipped,
		"duplicates", snap.Progress.Duplicates,
	)

	switch {
	case hadErrors && snap.Progress.Extracted+snap.Progress.Duplicates > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "extracting")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) processFile(ctx context.Context, job *Job, f File, log *slog.Logger) error {
	log = log.With("file", f.Name)
	hash := ContentHashHex(f.Data)

	if !job.Force {
		rec, err := w.store.FindByHash(ctx, hash)
		switch {
		case err == nil:
			log.Info("duplicate document, skipping", "spell_id", rec.ID)
			job.AddDuplicate(rec.ID)
			return nil
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	sp, err := w.Extract(f.Name, f.Data)
	if err != nil {
		if spell.IsExtractionError(err) {
			log.Debug("skipping document", "kind", spell.ErrorKind(err), "error", err)
		} else {
			log.Warn("skipping unparseable document", "error", err)
		}
		job.AddSkipped(fmt.Sprintf("%s: %s", f.Name, err))
		return err
	}

	if err := w.store.Put(ctx, sp, hash); err != nil {
		log.Error("store failed", "spell_id", sp.ID, "error", err)
		job.AddSkipped(fmt.Sprintf("%s: store: %s", f.Name, err))
		return err
	}
	job.AddExtracted(sp.ID)
	return nil
}
