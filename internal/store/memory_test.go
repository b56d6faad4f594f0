package store

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/reelagent/reelagent/internal/models"
)

func newTestJob(t *testing.T, s *MemoryStore) *models.Job {
	t.Helper()
	req := models.CreateJobRequest{Topic: "black holes"}
	req.ApplyDefaults()
	job, err := s.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return job
}

func TestCreateSeedsJob(t *testing.T) {
	s := NewMemoryStore()
	job := newTestJob(t, s)

	if job.ID == "" {
		t.Fatal("expected non-empty id")
	}
	if job.Status != models.StatusPending {
		t.Errorf("expected PENDING, got %s", job.Status)
	}
	if len(job.Logs) != 1 {
		t.Errorf("expected one seed log entry, got %d", len(job.Logs))
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := NewMemoryStore()
	job := newTestJob(t, s)
	ctx := context.Background()

	scenes := []models.Scene{{Narration: "hello", VisualPrompt: "a star"}}
	err := s.Update(ctx, job.ID, models.JobUpdate{
		Status: models.StatusPtr(models.StatusScripting),
		Script: scenes,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := s.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != models.StatusScripting {
		t.Errorf("expected SCRIPTING, got %s", got.Status)
	}
	if len(got.Script) != 1 || got.Script[0].Narration != "hello" {
		t.Errorf("script not merged: %+v", got.Script)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Update(ctx, "missing", models.JobUpdate{Status: models.StatusPtr(models.StatusFailed)}); err != nil {
		t.Errorf("update on unknown id should be silent: %v", err)
	}
	if err := s.AddLog(ctx, "missing", "hello"); err != nil {
		t.Errorf("addlog on unknown id should be silent: %v", err)
	}
}

func TestTerminalJobIsFrozen(t *testing.T) {
	s := NewMemoryStore()
	job := newTestJob(t, s)
	ctx := context.Background()

	s.Update(ctx, job.ID, models.JobUpdate{
		Status:   models.StatusPtr(models.StatusFailed),
		ErrorMsg: models.StrPtr("script empty"),
	})

	// Field merges after a terminal transition are dropped.
	s.Update(ctx, job.ID, models.JobUpdate{
		Status:    models.StatusPtr(models.StatusFinished),
		VideoPath: models.StrPtr("/tmp/out.mp4"),
	})

	got, _ := s.Get(ctx, job.ID)
	if got.Status != models.StatusFailed {
		t.Errorf("terminal status mutated to %s", got.Status)
	}
	if got.VideoPath != "" {
		t.Errorf("terminal field mutated: %q", got.VideoPath)
	}

	// Log appends stay allowed.
	s.AddLog(ctx, job.ID, "post-mortem line")
	got, _ = s.Get(ctx, job.ID)
	if len(got.Logs) != 2 {
		t.Errorf("expected trailing log append, got %d lines", len(got.Logs))
	}
}

func TestAddLogTimestamps(t *testing.T) {
	s := NewMemoryStore()
	job := newTestJob(t, s)
	ctx := context.Background()

	s.AddLog(ctx, job.ID, "Generated 3 scenes")
	got, _ := s.Get(ctx, job.ID)

	last := got.Logs[len(got.Logs)-1]
	if !strings.HasPrefix(last, "[") || !strings.Contains(last, "Generated 3 scenes") {
		t.Errorf("unexpected log line: %q", last)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewMemoryStore()
	job := newTestJob(t, s)
	ctx := context.Background()

	got, _ := s.Get(ctx, job.ID)
	got.Logs[0] = "tampered"
	got.Topic = "tampered"

	fresh, _ := s.Get(ctx, job.ID)
	if fresh.Logs[0] == "tampered" || fresh.Topic == "tampered" {
		t.Error("reader mutation leaked into the store")
	}
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	s := NewMemoryStore()
	job := newTestJob(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.AddLog(ctx, job.ID, "line")
			s.Update(ctx, job.ID, models.JobUpdate{Status: models.StatusPtr(models.StatusVisualizing)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := s.Get(ctx, job.ID); err != nil {
				t.Errorf("get failed mid-write: %v", err)
				return
			}
			s.List(ctx)
		}
	}()

	wg.Wait()
}
