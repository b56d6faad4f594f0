package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Google Translate TTS provider
// Keyless endpoint behind the Translate web client. The endpoint caps input
// length, so long narration is split into chunks at sentence boundaries and
// the MP3 segments are concatenated (valid for MPEG audio streams).
// Duration is a rough word-count estimate.
// ---------------------------------------------------------------------------

const (
	gTranslateURL      = "https://translate.google.com/translate_tts"
	gTranslateMaxChunk = 180
)

type GoogleTranslateProvider struct {
	client *http.Client
	lang   string
}

var _ AudioProvider = (*GoogleTranslateProvider)(nil)

func NewGoogleTranslateProvider() *GoogleTranslateProvider {
	return &GoogleTranslateProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		lang:   "en",
	}
}

func (p *GoogleTranslateProvider) Name() string { return "gtranslate" }

func (p *GoogleTranslateProvider) ProduceAudio(ctx context.Context, text, outputPath string) (float64, error) {
	chunks := splitChunks(text, gTranslateMaxChunk)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("empty narration text")
	}

	var audio []byte
	for i, chunk := range chunks {
		data, err := p.fetchChunk(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("chunk %d/%d failed: %w", i+1, len(chunks), err)
		}
		audio = append(audio, data...)
	}

	if err := os.WriteFile(outputPath, audio, 0644); err != nil {
		return 0, fmt.Errorf("failed to write audio: %w", err)
	}

	// Rough estimate: ~2.5 words per second, never below 5s.
	words := len(strings.Fields(text))
	seconds := float64(words) / 2.5
	if seconds < 5 {
		seconds = 5
	}

	log.Printf("[GTranslate] speech saved: %s (%d chunks, ~%.1fs)", outputPath, len(chunks), seconds)
	return seconds, nil
}

func (p *GoogleTranslateProvider) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	q := url.Values{
		"ie":     {"UTF-8"},
		"client": {"tw-ob"},
		"tl":     {p.lang},
		"q":      {chunk},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", gTranslateURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ReelAgent/1.0)")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio chunk")
	}
	return data, nil
}

// splitChunks splits text into pieces no longer than max, preferring
// sentence boundaries and falling back to word boundaries.
func splitChunks(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := current
		if candidate != "" {
			candidate += " "
		}
		candidate += word

		if len(candidate) > max && current != "" {
			chunks = append(chunks, current)
			current = word
			continue
		}
		current = candidate

		// Prefer breaking right after sentence-ending punctuation.
		if len(current) > max/2 && strings.HasSuffix(current, ".") {
			chunks = append(chunks, current)
			current = ""
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
