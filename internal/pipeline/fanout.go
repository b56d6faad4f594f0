package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/reelagent/reelagent/internal/models"
	"github.com/reelagent/reelagent/internal/services"
)

// FanOut runs image and audio generation for every scene of a job
// concurrently. Image generation is throttled by a semaphore shared across
// ALL jobs so the free image endpoints are never hammered in parallel;
// audio runs unconstrained.
type FanOut struct {
	images   *ImageChain
	audio    *AudioChain
	imageSem chan struct{}
}

func NewFanOut(images *ImageChain, audio *AudioChain, imageConcurrency int) *FanOut {
	if imageConcurrency < 1 {
		imageConcurrency = 1
	}
	return &FanOut{
		images:   images,
		audio:    audio,
		imageSem: make(chan struct{}, imageConcurrency),
	}
}

// ProcessScenes fills in ImagePath and AudioPath for each scene, writing
// assets under jobDir. The returned slice preserves scene order regardless
// of completion order. Individual asset failures leave the path empty; the
// caller decides whether the job can still proceed.
func (f *FanOut) ProcessScenes(ctx context.Context, jobDir string, scenes []models.Scene, style string, logf services.Logf) []models.Scene {
	out := make([]models.Scene, len(scenes))
	copy(out, scenes)

	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		i := i
		g.Go(func() error {
			select {
			case f.imageSem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-f.imageSem }()

			prompt := fmt.Sprintf("%s, %s, high quality", out[i].VisualPrompt, style)
			path := filepath.Join(jobDir, fmt.Sprintf("scene_%d.png", i))
			out[i].ImagePath = f.images.Produce(gctx, prompt, path, logf)
			return nil
		})
		g.Go(func() error {
			path := filepath.Join(jobDir, fmt.Sprintf("scene_%d.mp3", i))
			audioPath, seconds := f.audio.Produce(gctx, out[i].Narration, path, logf)
			out[i].AudioPath = audioPath
			if seconds > 0 {
				out[i].EstimatedDuration = seconds
			}
			return nil
		})
	}

	// Tasks only return errors for context cancellation; asset failures are
	// recorded as empty paths.
	_ = g.Wait()

	return out
}
