package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reelagent/reelagent/internal/models"
)

// MemoryStore keeps all jobs in process memory. Jobs survive for the life
// of the process; on-disk artifacts are cleaned up separately by the
// housekeeping sweeper.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

var _ JobStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryStore) Create(ctx context.Context, req models.CreateJobRequest) (*models.Job, error) {
	job := &models.Job{
		ID:           uuid.New().String(),
		Topic:        req.Topic,
		Status:       models.StatusPending,
		SceneCount:   req.SceneCount,
		ImageStyle:   req.ImageStyle,
		Tone:         req.Tone,
		DurationMode: req.DurationMode,
		RenderMode:   req.RenderMode,
		TemplateID:   req.TemplateID,
		Logs:         []string{"Job created."},
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return snapshot(job), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(job), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Job, error) {
	s.mu.RLock()
	jobs := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *snapshot(job))
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd models.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil // stale id, no-op
	}
	if job.Status.Terminal() {
		return nil // frozen apart from log appends
	}

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Script != nil {
		job.Script = cloneScenes(upd.Script)
	}
	if upd.VideoPath != nil {
		job.VideoPath = *upd.VideoPath
	}
	if upd.ErrorMsg != nil {
		job.ErrorMsg = *upd.ErrorMsg
	}
	return nil
}

func (s *MemoryStore) AddLog(ctx context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil // stale id, no-op
	}
	job.Logs = append(job.Logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message))
	return nil
}

// snapshot returns a copy whose slices are detached from the stored record,
// so readers never observe a partially merged job.
func snapshot(job *models.Job) *models.Job {
	out := *job
	out.Logs = append([]string(nil), job.Logs...)
	out.Script = cloneScenes(job.Script)
	return &out
}

func cloneScenes(scenes []models.Scene) []models.Scene {
	if scenes == nil {
		return nil
	}
	return append([]models.Scene(nil), scenes...)
}
