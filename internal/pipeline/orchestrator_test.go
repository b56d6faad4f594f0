package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/reelagent/reelagent/internal/models"
	"github.com/reelagent/reelagent/internal/services"
	"github.com/reelagent/reelagent/internal/store"
)

type fakeScriptGen struct {
	scenes []models.Scene
	err    error
}

func (f *fakeScriptGen) Generate(ctx context.Context, topic string, sceneCount int, mode models.DurationMode, logf services.Logf) ([]models.Scene, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.scenes, "raw", nil
}

type fakeAssembler struct {
	err error
}

func (f *fakeAssembler) Assemble(ctx context.Context, scenes []models.Scene, outputPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0644)
}

type fakeRenderer struct {
	err       error
	gotFrames int
}

func (f *fakeRenderer) Render(ctx context.Context, req services.RenderRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.gotFrames = req.DurationInFrames
	if err := os.WriteFile(req.OutputPath, []byte("mp4"), 0644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

type fakeProber struct {
	seconds float64
	err     error
}

func (f *fakeProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f.seconds, f.err
}

func newTestOrchestrator(t *testing.T, script services.ScriptGenerator, assembler services.Assembler, renderer services.Renderer, probe services.DurationProber) (*Orchestrator, store.JobStore) {
	t.Helper()
	s := store.NewMemoryStore()
	img := &fakeImageProvider{name: "img"}
	audio := &fakeAudioProvider{name: "audio", seconds: 5}
	images := &ImageChain{Providers: []services.ImageProvider{img}}
	audioChain := &AudioChain{Providers: []services.AudioProvider{audio}}
	fanout := NewFanOut(images, audioChain, 1)
	return NewOrchestrator(s, script, fanout, audioChain, assembler, renderer, probe, t.TempDir()), s
}

func createJob(t *testing.T, s store.JobStore, req models.CreateJobRequest) *models.Job {
	t.Helper()
	req.ApplyDefaults()
	job, err := s.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestRunAssembleHappyPath(t *testing.T) {
	script := &fakeScriptGen{scenes: []models.Scene{
		{Narration: "Scene one narration goes here.", VisualPrompt: "a city"},
		{Narration: "Scene two narration goes here.", VisualPrompt: "a forest"},
		{Narration: "Scene three narration goes here.", VisualPrompt: "a sea"},
	}}
	orch, s := newTestOrchestrator(t, script, &fakeAssembler{}, &fakeRenderer{}, &fakeProber{seconds: 15})

	job := createJob(t, s, models.CreateJobRequest{Topic: "quantum computing", DurationMode: models.DurationMedium})
	orch.Run(context.Background(), job.ID)

	got, err := s.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != models.StatusFinished {
		t.Fatalf("status = %s, error = %q, logs = %v", got.Status, got.ErrorMsg, got.Logs)
	}
	if got.VideoPath == "" {
		t.Error("video path not set")
	}
	if len(got.Script) != 3 {
		t.Fatalf("script has %d scenes", len(got.Script))
	}
	for i, scene := range got.Script {
		if scene.ImagePath == "" {
			t.Errorf("scene %d missing image path", i)
		}
		if scene.AudioPath == "" {
			t.Errorf("scene %d missing audio path", i)
		}
	}

	// Each pipeline stage should have been visible in the log trail.
	joined := strings.Join(got.Logs, "\n")
	for _, want := range []string{"Generating script", "Script ready: 3 scenes", "Reel created successfully"} {
		if !strings.Contains(joined, want) {
			t.Errorf("logs missing %q:\n%s", want, joined)
		}
	}
}

func TestRunTemplateSyncsFramesToAudio(t *testing.T) {
	script := &fakeScriptGen{scenes: []models.Scene{
		{Narration: "First part of the story.", VisualPrompt: "intro"},
		{Narration: "Second part of the story.", VisualPrompt: "outro"},
	}}
	renderer := &fakeRenderer{}
	orch, s := newTestOrchestrator(t, script, &fakeAssembler{}, renderer, &fakeProber{seconds: 12.4})

	job := createJob(t, s, models.CreateJobRequest{Topic: "deep sea", ImageStyle: "Typographic: Neon"})
	orch.Run(context.Background(), job.ID)

	got, _ := s.Get(context.Background(), job.ID)
	if got.Status != models.StatusFinished {
		t.Fatalf("status = %s, error = %q", got.Status, got.ErrorMsg)
	}

	// 12.4s at 30fps truncates to 372 frames, and the per-scene counts must
	// sum to exactly that.
	if renderer.gotFrames != 372 {
		t.Errorf("renderer got %d frames, want 372", renderer.gotFrames)
	}
	sum := 0
	for _, scene := range got.Script {
		sum += scene.DurationFrames
	}
	if sum != 372 {
		t.Errorf("scene frames sum to %d, want 372", sum)
	}
}

func TestRunScriptFailureMarksJobFailed(t *testing.T) {
	script := &fakeScriptGen{err: fmt.Errorf("model offline")}
	orch, s := newTestOrchestrator(t, script, &fakeAssembler{}, &fakeRenderer{}, nil)

	job := createJob(t, s, models.CreateJobRequest{Topic: "anything"})
	orch.Run(context.Background(), job.ID)

	got, _ := s.Get(context.Background(), job.ID)
	if got.Status != models.StatusFailed {
		t.Fatalf("status = %s", got.Status)
	}
	if got.ErrorMsg == "" {
		t.Error("error message not stored")
	}
}

func TestRunRendererErrorTruncatedOnRecord(t *testing.T) {
	longErr := fmt.Errorf("npx output: %s", strings.Repeat("x", 1000))
	script := &fakeScriptGen{scenes: []models.Scene{{Narration: "only scene", VisualPrompt: "void"}}}
	orch, s := newTestOrchestrator(t, script, &fakeAssembler{}, &fakeRenderer{err: longErr}, &fakeProber{seconds: 8})

	job := createJob(t, s, models.CreateJobRequest{Topic: "failure modes", RenderMode: models.RenderTemplate, TemplateID: "Minimal"})
	orch.Run(context.Background(), job.ID)

	got, _ := s.Get(context.Background(), job.ID)
	if got.Status != models.StatusFailed {
		t.Fatalf("status = %s", got.Status)
	}
	if len(got.ErrorMsg) > maxStoredErrorLen+3 {
		t.Errorf("stored error not truncated: %d chars", len(got.ErrorMsg))
	}

	// The untruncated message must still be in the log.
	joined := strings.Join(got.Logs, "\n")
	if !strings.Contains(joined, strings.Repeat("x", 1000)) {
		t.Error("full error text missing from job log")
	}
}

func TestRunUnknownJobIsNoOp(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &fakeScriptGen{}, &fakeAssembler{}, &fakeRenderer{}, nil)
	orch.Run(context.Background(), "no-such-id")
}

func TestJobDirName(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC)

	got := jobDirName("Why is the Sky Blue?", ts)
	if got != "why_is_the_sky_blue__20260301_093005" {
		t.Errorf("jobDirName = %q", got)
	}

	long := strings.Repeat("a", 80)
	got = jobDirName(long, ts)
	if !strings.HasPrefix(got, strings.Repeat("a", 50)+"_") {
		t.Errorf("long topic not truncated: %q", got)
	}

	got = jobDirName("!!!", ts)
	if !strings.HasPrefix(got, "___") {
		t.Errorf("symbol topic = %q", got)
	}
}
