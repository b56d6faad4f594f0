package services

import "context"

// ---------------------------------------------------------------------------
// Provider contracts — every asset-generation backend implements one of
// these. Strategies are interchangeable inside a fallback chain: a provider
// either writes the artifact to outputPath or returns an error, and the
// chain decides what to try next.
// ---------------------------------------------------------------------------

// ImageProvider produces a still image for a prompt.
type ImageProvider interface {
	Name() string
	ProduceImage(ctx context.Context, prompt, outputPath string) error
}

// AudioProvider synthesizes narration audio and reports its length in
// seconds. The value is measured when the backend exposes it and estimated
// from the text otherwise; callers that need an authoritative duration
// probe the written file themselves.
type AudioProvider interface {
	Name() string
	ProduceAudio(ctx context.Context, text, outputPath string) (float64, error)
}

// Output dimensions for every generated image (vertical 9:16).
const (
	imageWidth  = 1080
	imageHeight = 1920
)
