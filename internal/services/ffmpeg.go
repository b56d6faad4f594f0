package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/reelagent/reelagent/internal/models"
)

// DurationProber measures the real length of an audio file. The pipeline
// trusts this over the per-provider estimates when it is available.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Assembler stitches a job's scene assets into the final video file.
type Assembler interface {
	Assemble(ctx context.Context, scenes []models.Scene, outputPath string) error
}

// ---------------------------------------------------------------------------
// FFmpegService
// ---------------------------------------------------------------------------

type FFmpegService struct{}

var (
	_ DurationProber = (*FFmpegService)(nil)
	_ Assembler      = (*FFmpegService)(nil)
)

func NewFFmpegService() *FFmpegService {
	return &FFmpegService{}
}

// ProbeDuration returns the duration of an audio file in seconds.
func (s *FFmpegService) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return seconds, nil
}

// Assemble renders one still-image clip per scene and concatenates them.
// Scenes missing either asset are skipped so one failed provider chain does
// not sink the whole job. The audio is padded by half a second per clip to
// avoid abrupt cuts between scenes.
func (s *FFmpegService) Assemble(ctx context.Context, scenes []models.Scene, outputPath string) error {
	workDir := filepath.Dir(outputPath)

	var clipPaths []string
	for i, scene := range scenes {
		if scene.ImagePath == "" || scene.AudioPath == "" {
			log.Printf("[FFmpeg] scene %d missing assets, skipping", i)
			continue
		}

		clipPath := filepath.Join(workDir, fmt.Sprintf("clip_%d.mp4", i))
		if err := s.renderClip(ctx, scene.ImagePath, scene.AudioPath, clipPath); err != nil {
			return fmt.Errorf("scene %d clip failed: %w", i, err)
		}
		clipPaths = append(clipPaths, clipPath)
	}

	if len(clipPaths) == 0 {
		return fmt.Errorf("no scenes had both image and audio")
	}

	if err := s.concatenateClips(ctx, clipPaths, outputPath); err != nil {
		return err
	}

	s.cleanup(clipPaths...)
	return nil
}

func (s *FFmpegService) renderClip(ctx context.Context, imagePath, audioPath, outputPath string) error {
	args := []string{
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-af", "apad=pad_dur=0.5",
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("scale=%d:%d", imageWidth, imageHeight),
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg render clip failed: %w", err)
	}
	return nil
}

func (s *FFmpegService) concatenateClips(ctx context.Context, clipPaths []string, outputPath string) error {
	listPath := filepath.Join(filepath.Dir(outputPath), "concat_list.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	for _, path := range clipPaths {
		fmt.Fprintf(f, "file '%s'\n", filepath.Base(path))
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concatenate failed: %w", err)
	}
	return nil
}

func (s *FFmpegService) cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}
