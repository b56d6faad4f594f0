package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Pollinations.ai image provider
// Free, keyless endpoint. Heavily rate limited, so attempts rotate through
// models and back off between retries.
// ---------------------------------------------------------------------------

const pollinationsBaseURL = "https://image.pollinations.ai/prompt"

// pollinationsModels is the rotation pool; a different model is tried on
// each retry so a single overloaded backend doesn't burn the whole budget.
var pollinationsModels = []string{"flux", "flux-realism", "turbo"}

type PollinationsProvider struct {
	client  *http.Client
	backoff Backoff
}

var _ ImageProvider = (*PollinationsProvider)(nil)

func NewPollinationsProvider() *PollinationsProvider {
	return &PollinationsProvider{
		client:  &http.Client{Timeout: 45 * time.Second},
		backoff: DefaultBackoff,
	}
}

func (p *PollinationsProvider) Name() string { return "pollinations" }

func (p *PollinationsProvider) ProduceImage(ctx context.Context, prompt, outputPath string) error {
	clean := strings.TrimSpace(prompt)
	if len(clean) > 800 {
		clean = clean[:800]
	}
	seed := rand.Intn(10_000_000)

	var lastErr error
	for attempt := 0; attempt < p.backoff.Attempts; attempt++ {
		if err := p.backoff.Wait(ctx, attempt); err != nil {
			return err
		}

		model := pollinationsModels[attempt%len(pollinationsModels)]
		imageURL := fmt.Sprintf("%s/%s?width=%d&height=%d&nologo=true&seed=%d&enhance=true&model=%s",
			pollinationsBaseURL, url.PathEscape(clean), imageWidth, imageHeight, seed, model)

		err := p.fetch(ctx, imageURL, outputPath)
		if err == nil {
			log.Printf("[Pollinations] image saved: %s (model=%s)", outputPath, model)
			return nil
		}
		lastErr = err
		log.Printf("[Pollinations] attempt %d (%s) failed: %v", attempt+1, model, err)
	}

	return fmt.Errorf("pollinations failed after %d attempts: %w", p.backoff.Attempts, lastErr)
}

func (p *PollinationsProvider) fetch(ctx context.Context, imageURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ReelAgent/1.0)")
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "image") {
		return fmt.Errorf("non-image response (%s)", resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// Tiny payloads are error pages, not images.
	if len(data) < 1000 {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}

	return os.WriteFile(outputPath, data, 0644)
}
