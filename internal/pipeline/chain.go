package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/reelagent/reelagent/internal/services"
)

// ---------------------------------------------------------------------------
// Provider fallback chains
// Each chain walks its providers in order until one succeeds, then falls
// back to a local provider that cannot fail for external reasons. A chain
// never returns an error for provider exhaustion; the worst case is the
// fallback's output (or an empty path for images if even that fails).
// ---------------------------------------------------------------------------

type ImageChain struct {
	Providers []services.ImageProvider
	Fallback  services.ImageProvider
}

// Produce tries each provider for the prompt and returns the path of the
// first image written. An empty string means even the fallback failed.
func (c *ImageChain) Produce(ctx context.Context, prompt, outputPath string, logf services.Logf) string {
	for _, p := range c.Providers {
		if ctx.Err() != nil {
			return ""
		}
		if err := p.ProduceImage(ctx, prompt, outputPath); err != nil {
			logf("Image provider %s failed: %v", p.Name(), err)
			continue
		}
		logf("Image generated by %s", p.Name())
		return outputPath
	}

	if c.Fallback == nil {
		return ""
	}
	if err := c.Fallback.ProduceImage(ctx, prompt, outputPath); err != nil {
		logf("Image fallback %s failed: %v", c.Fallback.Name(), err)
		return ""
	}
	logf("Image generated by %s (fallback)", c.Fallback.Name())
	return outputPath
}

type AudioChain struct {
	Providers []services.AudioProvider
	Fallback  services.AudioProvider
}

// Produce tries each voice for the text. The returned seconds are the
// winning provider's estimate; callers reconcile against the real file
// where it matters. A timing sidecar is written next to the audio so the
// frontend can show per-line captions.
func (c *AudioChain) Produce(ctx context.Context, text, outputPath string, logf services.Logf) (string, float64) {
	for _, p := range c.Providers {
		if ctx.Err() != nil {
			return "", 0
		}
		seconds, err := p.ProduceAudio(ctx, text, outputPath)
		if err != nil {
			logf("Audio provider %s failed: %v", p.Name(), err)
			continue
		}
		logf("Audio generated by %s (%.1fs)", p.Name(), seconds)
		writeTimingSidecar(outputPath, text, seconds)
		return outputPath, seconds
	}

	if c.Fallback == nil {
		return "", 0
	}
	seconds, err := c.Fallback.ProduceAudio(ctx, text, outputPath)
	if err != nil {
		logf("Audio fallback %s failed: %v", c.Fallback.Name(), err)
		return "", 0
	}
	logf("Audio generated by %s (fallback, %.1fs)", c.Fallback.Name(), seconds)
	writeTimingSidecar(outputPath, text, seconds)
	return outputPath, seconds
}

type timingEntry struct {
	Text     string `json:"text"`
	Start    int    `json:"start"`
	Duration int    `json:"duration"`
}

// writeTimingSidecar records the narration timing next to the audio file as
// <audio>.json. Failures are logged and ignored; the sidecar is advisory.
func writeTimingSidecar(audioPath, text string, seconds float64) {
	entries := []timingEntry{{
		Text:     text,
		Start:    0,
		Duration: int(seconds * 1000),
	}}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	sidecar := audioPath + ".json"
	if err := os.WriteFile(sidecar, data, 0644); err != nil {
		log.Printf("[Audio] failed to write timing sidecar %s: %v", sidecar, err)
	}
}

// DiscardLogf is used where no job context is available.
func DiscardLogf(string, ...any) {}
