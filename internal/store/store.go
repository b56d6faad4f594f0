package store

import (
	"context"
	"errors"

	"github.com/reelagent/reelagent/internal/models"
)

// ErrNotFound is returned by Get for an unknown job id.
var ErrNotFound = errors.New("job not found")

// JobStore is the single owner of canonical job state. Exactly one
// orchestrator goroutine drives a given job, so implementations only need
// to make individual record updates atomic with respect to concurrent
// readers; cross-job locking is not required.
//
// Update and AddLog are silent no-ops for unknown ids: background work may
// race with external deletion, and a stale id must never abort a pipeline.
type JobStore interface {
	Create(ctx context.Context, req models.CreateJobRequest) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context) ([]models.Job, error)

	// Update merges the given fields into the stored job. Once a job is in
	// a terminal state, field merges are dropped; only log appends remain.
	Update(ctx context.Context, id string, upd models.JobUpdate) error

	// AddLog appends a timestamped line to the job's log.
	AddLog(ctx context.Context, id, message string) error
}
