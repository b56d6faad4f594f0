package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunCleanupRemovesExpiredDirs(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old_job_20260101_000000")
	fresh := filepath.Join(dir, "fresh_job_20260830_120000")
	for _, d := range []string{old, fresh} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	// Everything except loose files at the top level is fair game.
	loose := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(loose, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // one immediate sweep, then exit
	RunCleanup(ctx, dir, time.Hour, 24*time.Hour)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired directory not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh directory should survive")
	}
	if _, err := os.Stat(loose); err != nil {
		t.Error("loose files should survive")
	}
}
