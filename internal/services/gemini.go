package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// Gemini image provider
// Uses the Google Gen AI SDK to generate images. Optional: only placed in
// the chain when GEMINI_API_KEY is configured, and then first, since it
// yields the best quality of the available backends.
// ---------------------------------------------------------------------------

const geminiImageModel = "gemini-2.0-flash-preview-image-generation"

type GeminiProvider struct {
	apiKey string
	model  string
}

var _ ImageProvider = (*GeminiProvider)(nil)

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		apiKey: apiKey,
		model:  geminiImageModel,
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) ProduceImage(ctx context.Context, prompt, outputPath string) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}

	fullPrompt := fmt.Sprintf("Generate a vertical 9:16 image (%dx%d). %s", imageWidth, imageHeight, prompt)

	result, err := client.Models.GenerateContent(ctx, p.model, genai.Text(fullPrompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return fmt.Errorf("gemini generation failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return fmt.Errorf("gemini returned no candidates")
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			if err := os.WriteFile(outputPath, part.InlineData.Data, 0644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}
			log.Printf("[Gemini] image saved: %s (%d bytes)", outputPath, len(part.InlineData.Data))
			return nil
		}
	}

	return fmt.Errorf("gemini response contained no image data")
}
