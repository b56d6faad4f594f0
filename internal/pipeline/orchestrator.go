package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelagent/reelagent/internal/models"
	"github.com/reelagent/reelagent/internal/services"
	"github.com/reelagent/reelagent/internal/store"
	"github.com/reelagent/reelagent/internal/timing"
)

// maxStoredErrorLen caps the error message stored on a failed job. The full
// text still goes to the job log.
const maxStoredErrorLen = 300

// Orchestrator drives a job through the whole pipeline: script generation,
// asset fan-out, duration sync, and rendering or assembly. One call to Run
// owns one job from PENDING to a terminal state.
type Orchestrator struct {
	store        store.JobStore
	script       services.ScriptGenerator
	fanout       *FanOut
	audio        *AudioChain
	assembler    services.Assembler
	renderer     services.Renderer
	probe        services.DurationProber
	generatedDir string
	fps          int
}

func NewOrchestrator(
	jobStore store.JobStore,
	script services.ScriptGenerator,
	fanout *FanOut,
	audio *AudioChain,
	assembler services.Assembler,
	renderer services.Renderer,
	probe services.DurationProber,
	generatedDir string,
) *Orchestrator {
	return &Orchestrator{
		store:        jobStore,
		script:       script,
		fanout:       fanout,
		audio:        audio,
		assembler:    assembler,
		renderer:     renderer,
		probe:        probe,
		generatedDir: generatedDir,
		fps:          timing.DefaultFPS,
	}
}

// Run executes the pipeline for one job. All failures are absorbed into the
// job record; Run itself never returns an error because there is no caller
// that could do anything useful with one.
func (o *Orchestrator) Run(ctx context.Context, jobID string) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil || job == nil {
		log.Printf("[Pipeline] job %s not found, skipping", jobID)
		return
	}

	logf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("[Pipeline] job %s: %s", jobID, msg)
		o.store.AddLog(ctx, jobID, msg)
	}

	o.setStatus(ctx, jobID, models.StatusScripting)
	logf("Generating script for topic: %s", job.Topic)

	scenes, _, err := o.script.Generate(ctx, job.Topic, job.SceneCount, job.DurationMode, logf)
	if err != nil {
		o.fail(ctx, jobID, fmt.Sprintf("script generation failed: %v", err))
		return
	}
	if len(scenes) == 0 {
		o.fail(ctx, jobID, "script generation returned no scenes")
		return
	}

	for i := range scenes {
		scenes[i].EstimatedDuration = timing.EstimateSeconds(scenes[i].Narration)
	}
	o.store.Update(ctx, jobID, models.JobUpdate{Script: scenes})
	logf("Script ready: %d scenes", len(scenes))

	jobDir := filepath.Join(o.generatedDir, jobDirName(job.Topic, time.Now()))
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		o.fail(ctx, jobID, fmt.Sprintf("failed to create job directory: %v", err))
		return
	}

	switch job.RenderMode {
	case models.RenderTemplate:
		o.runTemplate(ctx, jobID, job, scenes, jobDir, logf)
	default:
		o.runAssemble(ctx, jobID, job, scenes, jobDir, logf)
	}
}

// runTemplate narrates the whole script as one audio track, syncs scene
// frame budgets to the measured audio length, and renders through the
// template renderer.
func (o *Orchestrator) runTemplate(ctx context.Context, jobID string, job *models.Job, scenes []models.Scene, jobDir string, logf services.Logf) {
	o.setStatus(ctx, jobID, models.StatusVisualizing)

	narrations := make([]string, len(scenes))
	for i, s := range scenes {
		narrations[i] = s.Narration
	}
	fullText := strings.Join(narrations, " ")

	audioPath, estimated := o.audio.Produce(ctx, fullText, filepath.Join(jobDir, "full_audio.mp3"), logf)
	if audioPath == "" {
		o.fail(ctx, jobID, "audio generation failed for all providers")
		return
	}

	audioSeconds := estimated
	if o.probe != nil {
		measured, err := o.probe.ProbeDuration(ctx, audioPath)
		if err != nil || measured <= 0 {
			logf("Audio probe failed, using estimate %.2fs: %v", estimated, err)
		} else {
			audioSeconds = measured
		}
	}
	logf("Audio generated: %.2fs", audioSeconds)

	o.setStatus(ctx, jobID, models.StatusEditing)

	sceneFrames, totalFrames := timing.SyncToAudio(scenes, audioSeconds, o.fps)
	for i := range scenes {
		scenes[i].AudioPath = audioPath
		scenes[i].DurationFrames = sceneFrames[i]
		logf("Scene %d: %d frames", i+1, sceneFrames[i])
	}
	o.store.Update(ctx, jobID, models.JobUpdate{Script: scenes})

	outputPath := filepath.Join(jobDir, "final.mp4")
	videoPath, err := o.renderer.Render(ctx, services.RenderRequest{
		TemplateID:       job.TemplateID,
		OutputPath:       outputPath,
		AudioPath:        audioPath,
		Text:             fullText,
		DurationInFrames: totalFrames,
		Scenes:           scenes,
	})
	if err != nil {
		o.fail(ctx, jobID, fmt.Sprintf("render failed: %v", err))
		return
	}
	if videoPath == "" {
		o.fail(ctx, jobID, "renderer returned no result")
		return
	}

	o.finish(ctx, jobID, videoPath, logf)
}

// runAssemble generates one image and one audio clip per scene and stitches
// them into the final video.
func (o *Orchestrator) runAssemble(ctx context.Context, jobID string, job *models.Job, scenes []models.Scene, jobDir string, logf services.Logf) {
	o.setStatus(ctx, jobID, models.StatusVisualizing)

	scenes = o.fanout.ProcessScenes(ctx, jobDir, scenes, job.ImageStyle, logf)
	o.store.Update(ctx, jobID, models.JobUpdate{Script: scenes})

	o.setStatus(ctx, jobID, models.StatusEditing)

	outputPath := filepath.Join(jobDir, "final.mp4")
	if err := o.assembler.Assemble(ctx, scenes, outputPath); err != nil {
		o.fail(ctx, jobID, fmt.Sprintf("video assembly failed: %v", err))
		return
	}

	o.finish(ctx, jobID, outputPath, logf)
}

func (o *Orchestrator) finish(ctx context.Context, jobID, videoPath string, logf services.Logf) {
	logf("Reel created successfully: %s", videoPath)
	o.store.Update(ctx, jobID, models.JobUpdate{
		Status:    models.StatusPtr(models.StatusFinished),
		VideoPath: models.StrPtr(videoPath),
	})
}

func (o *Orchestrator) setStatus(ctx context.Context, jobID string, status models.JobStatus) {
	o.store.Update(ctx, jobID, models.JobUpdate{Status: models.StatusPtr(status)})
}

// fail logs the full error and stores a truncated copy on the record.
func (o *Orchestrator) fail(ctx context.Context, jobID, msg string) {
	log.Printf("[Pipeline] job %s FAILED: %s", jobID, msg)
	o.store.AddLog(ctx, jobID, "ERROR: "+msg)

	stored := msg
	if len(stored) > maxStoredErrorLen {
		stored = stored[:maxStoredErrorLen] + "..."
	}
	o.store.Update(ctx, jobID, models.JobUpdate{
		Status:   models.StatusPtr(models.StatusFailed),
		ErrorMsg: models.StrPtr(stored),
	})
}

// jobDirName builds a filesystem-safe directory name from the topic plus a
// creation timestamp, matching generated/<topic>_<YYYYMMDD>_<HHMMSS>.
func jobDirName(topic string, t time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(topic) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "job"
	}
	return fmt.Sprintf("%s_%s", name, t.Format("20060102_150405"))
}
