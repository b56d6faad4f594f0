package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// DezGo image provider
// Free text-to-image endpoint, no API key required. Slower than
// Pollinations but tolerates higher prompt volume.
// ---------------------------------------------------------------------------

const (
	dezgoURL   = "https://api.dezgo.com/text2image"
	dezgoModel = "dreamshaper_8"
)

type DezgoProvider struct {
	client *http.Client
}

var _ ImageProvider = (*DezgoProvider)(nil)

func NewDezgoProvider() *DezgoProvider {
	return &DezgoProvider{
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *DezgoProvider) Name() string { return "dezgo" }

func (p *DezgoProvider) ProduceImage(ctx context.Context, prompt, outputPath string) error {
	form := url.Values{
		"prompt":   {prompt},
		"model":    {dezgoModel},
		"width":    {strconv.Itoa(imageWidth)},
		"height":   {strconv.Itoa(imageHeight)},
		"guidance": {"7.5"},
		"steps":    {"25"},
		"sampler":  {"k_euler"},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", dezgoURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("dezgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("dezgo status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read dezgo response: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("dezgo returned empty body")
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	log.Printf("[DezGo] image saved: %s (%d bytes)", outputPath, len(data))
	return nil
}
