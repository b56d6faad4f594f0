package services

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
)

// ---------------------------------------------------------------------------
// Placeholder image provider — the terminal fallback of the image chain.
// Renders a dark gradient card locally so assembly never blocks on total
// upstream outage. An error here means the environment itself is broken
// (e.g. disk full).
// ---------------------------------------------------------------------------

type PlaceholderProvider struct{}

var _ ImageProvider = (*PlaceholderProvider)(nil)

func NewPlaceholderProvider() *PlaceholderProvider { return &PlaceholderProvider{} }

func (p *PlaceholderProvider) Name() string { return "placeholder" }

func (p *PlaceholderProvider) ProduceImage(ctx context.Context, prompt, outputPath string) error {
	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))

	for y := 0; y < imageHeight; y++ {
		t := float64(y) / imageHeight
		c := color.RGBA{
			R: uint8(20 + t*60),
			G: uint8(20 + t*40),
			B: uint8(40 + t*80),
			A: 255,
		}
		for x := 0; x < imageWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create placeholder: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode placeholder: %w", err)
	}

	log.Printf("[Placeholder] gradient card saved: %s", outputPath)
	return nil
}
