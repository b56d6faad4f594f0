package worker

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/reelagent/reelagent/internal/pipeline"
	"github.com/reelagent/reelagent/internal/queue"
)

// Worker pulls submissions off the queue and runs them through the
// pipeline. Concurrency bounds the number of jobs in flight at once; each
// in-flight job still shares the global image semaphore inside the fan-out.
type Worker struct {
	queue *queue.Queue
	orch  *pipeline.Orchestrator
}

func New(q *queue.Queue, orch *pipeline.Orchestrator) *Worker {
	return &Worker{
		queue: q,
		orch:  orch,
	}
}

// Start runs `concurrency` processing loops and blocks until ctx is done.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error dequeuing: %v", err)
				continue
			}
			if msg == nil {
				continue // No job available, retry
			}

			log.Printf("Processing job %s (queued %s ago)", msg.JobID, time.Since(msg.EnqueuedAt).Round(time.Second))
			w.orch.Run(ctx, msg.JobID)
		}
	}
}

// RunCleanup sweeps the generated directory on a ticker, removing job
// directories older than retention. The first sweep runs immediately; the
// loop exits when ctx is cancelled.
func RunCleanup(ctx context.Context, dir string, interval, retention time.Duration) {
	sweep := func() {
		cutoff := time.Now().Add(-retention)

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Printf("[Cleanup] cannot read %s: %v", dir, err)
			return
		}

		removed := 0
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				log.Printf("[Cleanup] failed to remove %s: %v", path, err)
				continue
			}
			removed++
		}
		if removed > 0 {
			log.Printf("[Cleanup] removed %d expired job directories", removed)
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
