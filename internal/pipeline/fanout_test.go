package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelagent/reelagent/internal/models"
	"github.com/reelagent/reelagent/internal/services"
)

// countingImageProvider tracks the number of in-flight calls so tests can
// verify the shared semaphore bound.
type countingImageProvider struct {
	fakeImageProvider
	inFlight    int32
	maxInFlight int32
}

func (c *countingImageProvider) ProduceImage(ctx context.Context, prompt, outputPath string) error {
	cur := atomic.AddInt32(&c.inFlight, 1)
	for {
		max := atomic.LoadInt32(&c.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&c.maxInFlight, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&c.inFlight, -1)
	return c.fakeImageProvider.ProduceImage(ctx, prompt, outputPath)
}

func TestFanOutPreservesSceneOrder(t *testing.T) {
	img := &fakeImageProvider{name: "img", delay: 5 * time.Millisecond}
	audio := &fakeAudioProvider{name: "audio", seconds: 4}

	fanout := NewFanOut(
		&ImageChain{Providers: []services.ImageProvider{img}},
		&AudioChain{Providers: []services.AudioProvider{audio}},
		4,
	)

	scenes := []models.Scene{
		{Narration: "first scene narration", VisualPrompt: "sunrise"},
		{Narration: "second scene narration", VisualPrompt: "noon"},
		{Narration: "third scene narration", VisualPrompt: "sunset"},
	}

	got := fanout.ProcessScenes(context.Background(), t.TempDir(), scenes, "Cinematic", DiscardLogf)

	if len(got) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(got))
	}
	for i, s := range got {
		if s.Narration != scenes[i].Narration {
			t.Errorf("scene %d narration reordered: %q", i, s.Narration)
		}
		if s.ImagePath == "" {
			t.Errorf("scene %d missing image path", i)
		}
		if s.AudioPath == "" {
			t.Errorf("scene %d missing audio path", i)
		}
		if s.EstimatedDuration != 4 {
			t.Errorf("scene %d estimated duration = %v", i, s.EstimatedDuration)
		}
	}
}

func TestFanOutThrottlesImages(t *testing.T) {
	img := &countingImageProvider{fakeImageProvider: fakeImageProvider{name: "img", delay: 20 * time.Millisecond}}
	audio := &fakeAudioProvider{name: "audio", seconds: 3}

	fanout := NewFanOut(
		&ImageChain{Providers: []services.ImageProvider{img}},
		&AudioChain{Providers: []services.AudioProvider{audio}},
		1,
	)

	scenes := []models.Scene{
		{Narration: "a", VisualPrompt: "a"},
		{Narration: "b", VisualPrompt: "b"},
		{Narration: "c", VisualPrompt: "c"},
		{Narration: "d", VisualPrompt: "d"},
	}

	fanout.ProcessScenes(context.Background(), t.TempDir(), scenes, "Cinematic", DiscardLogf)

	if max := atomic.LoadInt32(&img.maxInFlight); max > 1 {
		t.Errorf("image concurrency exceeded semaphore: max in-flight %d", max)
	}
}

func TestFanOutFailedAssetsLeaveEmptyPaths(t *testing.T) {
	fanout := NewFanOut(
		&ImageChain{Providers: []services.ImageProvider{&fakeImageProvider{name: "img", fail: true}}},
		&AudioChain{Providers: []services.AudioProvider{&fakeAudioProvider{name: "audio", seconds: 3}}},
		2,
	)

	scenes := []models.Scene{{Narration: "only scene", VisualPrompt: "void"}}
	got := fanout.ProcessScenes(context.Background(), t.TempDir(), scenes, "Cinematic", DiscardLogf)

	if got[0].ImagePath != "" {
		t.Errorf("expected empty image path, got %q", got[0].ImagePath)
	}
	if got[0].AudioPath == "" {
		t.Error("audio should still succeed independently")
	}
}
