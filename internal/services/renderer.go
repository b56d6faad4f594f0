package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelagent/reelagent/internal/models"
)

// RenderRequest carries everything a template renderer needs for one job.
type RenderRequest struct {
	TemplateID       string
	OutputPath       string
	AudioPath        string
	Text             string
	DurationInFrames int
	Scenes           []models.Scene
}

// Renderer renders a template-driven video and returns the output path.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

// ---------------------------------------------------------------------------
// RemotionRenderer
// Shells out to the Remotion CLI in the frontend project. The renderer
// fetches audio over HTTP from this process's static file server, so the
// audio file must live under the generated directory.
// ---------------------------------------------------------------------------

const (
	defaultRenderTimeout = 10 * time.Minute
	maxRenderErrorOutput = 1000
)

type RemotionRenderer struct {
	frontendDir  string
	generatedDir string
	port         int
	timeout      time.Duration
}

var _ Renderer = (*RemotionRenderer)(nil)

func NewRemotionRenderer(frontendDir, generatedDir string, port int, timeout time.Duration) *RemotionRenderer {
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	return &RemotionRenderer{
		frontendDir:  frontendDir,
		generatedDir: generatedDir,
		port:         port,
		timeout:      timeout,
	}
}

type remotionProps struct {
	Text             string         `json:"text"`
	AudioSrc         string         `json:"audioSrc"`
	Scenes           []models.Scene `json:"scenes"`
	DurationInFrames int            `json:"durationInFrames"`
}

func (r *RemotionRenderer) Render(ctx context.Context, req RenderRequest) (string, error) {
	audioURL, err := r.audioURL(req.AudioPath)
	if err != nil {
		return "", err
	}

	props := remotionProps{
		Text:             req.Text,
		AudioSrc:         audioURL,
		Scenes:           req.Scenes,
		DurationInFrames: req.DurationInFrames,
	}
	propsPath := filepath.Join(filepath.Dir(req.OutputPath), "remotion_props.json")
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal props: %w", err)
	}
	if err := os.WriteFile(propsPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write props file: %w", err)
	}

	entry := r.entryPoint()
	args := []string{
		"--yes", "remotion", "render",
		entry,
		req.TemplateID,
		req.OutputPath,
		"--props=" + propsPath,
		fmt.Sprintf("--duration-in-frames=%d", req.DurationInFrames),
		"--log=verbose",
	}

	log.Printf("[Remotion] rendering template %s (%d frames) -> %s", req.TemplateID, req.DurationInFrames, req.OutputPath)

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(renderCtx, "npx", args...)
	cmd.Dir = r.frontendDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		if renderCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("remotion render timed out after %s", r.timeout)
		}
		return "", fmt.Errorf("remotion render failed: %s", truncateString(string(output), maxRenderErrorOutput))
	}

	if _, err := os.Stat(req.OutputPath); err != nil {
		return "", fmt.Errorf("remotion reported success but output is missing: %w", err)
	}

	return req.OutputPath, nil
}

// audioURL maps an on-disk audio path to the URL the Remotion runtime will
// fetch it at. Paths outside the generated directory are rejected.
func (r *RemotionRenderer) audioURL(audioPath string) (string, error) {
	absAudio, err := filepath.Abs(audioPath)
	if err != nil {
		return "", err
	}
	absGenerated, err := filepath.Abs(r.generatedDir)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(absGenerated, absAudio)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("audio path %s is outside the generated directory", audioPath)
	}

	return fmt.Sprintf("http://127.0.0.1:%d/generated/%s", r.port, filepath.ToSlash(rel)), nil
}

// entryPoint prefers the prebuilt bundle when the frontend has one.
func (r *RemotionRenderer) entryPoint() string {
	bundle := filepath.Join(r.frontendDir, "dist-bundle")
	if info, err := os.Stat(bundle); err == nil && info.IsDir() {
		return "dist-bundle"
	}
	return "src/remotion/index.ts"
}
