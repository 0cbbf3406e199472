package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/grimoire/internal/config"
	"github.com/dgallion1/grimoire/internal/spell"
	"github.com/dgallion1/grimoire/internal/store"
)

// Orchestrator manages the batch extraction pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	store *store.Store
	stats *ExtractStats
	log   *slog.Logger
	cfg   config.Config

	// worker serves synchronous extractions outside the queue.
	worker *Worker

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, st *store.Store, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		store: st,
		stats: NewExtractStats(time.Hour),
		log:   log,
		cfg:   cfg,
	}
	o.worker = o.newWorker()
	return o
}

func (o *Orchestrator) newWorker() *Worker {
	var opts []spell.Option
	if o.cfg.EmitTables {
		opts = append(opts, spell.WithTables())
	}
	return NewWorker(o.store, o.stats, o.log, opts...)
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Extract runs a single document synchronously. When save is set the
// record is also written to the store.
func (o *Orchestrator) Extract(ctx context.Context, name string, data []byte, save bool) (*spell.Spell, error) {
	sp, err := o.worker.Extract(name, data)
	if err != nil {
		return nil, err
	}
	if save {
		if err := o.store.Put(ctx, sp, ContentHashHex(data)); err != nil {
			return sp, fmt.Errorf("store: %w", err)
		}
	}
	return sp, nil
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the extraction latency tracker.
func (o *Orchestrator) Stats() *ExtractStats {
	return o.stats
}

// Store returns the spell store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}
