package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/reelagent/reelagent/internal/api"
	"github.com/reelagent/reelagent/internal/config"
	"github.com/reelagent/reelagent/internal/pipeline"
	"github.com/reelagent/reelagent/internal/queue"
	"github.com/reelagent/reelagent/internal/services"
	"github.com/reelagent/reelagent/internal/store"
	"github.com/reelagent/reelagent/internal/worker"
)

func main() {
	log.Println("Starting ReelAgent API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.GeneratedDir, 0755); err != nil {
		log.Fatalf("Failed to create generated dir: %v", err)
	}

	// Job store — Postgres when configured, otherwise in-memory
	var jobStore store.JobStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		jobStore = pg
		log.Println("Job store: Postgres")
	} else {
		jobStore = store.NewMemoryStore()
		log.Println("Job store: in-memory (jobs lost on restart)")
	}

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Create API handler
	handler := api.NewHandler(jobStore, q)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		GeneratedDir:       cfg.GeneratedDir,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		// Image providers, in fallback order. Gemini leads when a key is
		// set; the keyless endpoints and the local gradient cover the rest.
		var imageProviders []services.ImageProvider
		if cfg.GeminiKey != "" {
			imageProviders = append(imageProviders, services.NewGeminiProvider(cfg.GeminiKey))
			log.Println("Image provider: Gemini enabled")
		}
		imageProviders = append(imageProviders,
			services.NewPollinationsProvider(),
			services.NewDezgoProvider(),
		)
		imageChain := &pipeline.ImageChain{
			Providers: imageProviders,
			Fallback:  services.NewPlaceholderProvider(),
		}

		// Audio providers. Paid voices lead when keys are set, the free
		// endpoint covers development, and silence is the terminal fallback.
		var audioProviders []services.AudioProvider
		if cfg.ElevenLabsKey != "" {
			audioProviders = append(audioProviders, services.NewElevenLabsProvider(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID))
			log.Printf("Audio provider: ElevenLabs (voice: %s)", cfg.ElevenLabsVoiceID)
		}
		if cfg.CartesiaKey != "" {
			audioProviders = append(audioProviders, services.NewCartesiaProvider(cfg.CartesiaKey, cfg.CartesiaURL, cfg.CartesiaVoiceID))
			log.Printf("Audio provider: Cartesia (voice: %s)", cfg.CartesiaVoiceID)
		}
		audioProviders = append(audioProviders, services.NewGoogleTranslateProvider())
		audioChain := &pipeline.AudioChain{
			Providers: audioProviders,
			Fallback:  services.NewSilenceProvider(),
		}

		scriptSvc := services.NewGroqService(cfg.GroqKey, cfg.GroqModel)
		ffmpegSvc := services.NewFFmpegService()

		port, err := strconv.Atoi(cfg.APIPort)
		if err != nil {
			log.Fatalf("Invalid API_PORT: %v", err)
		}
		renderer := services.NewRemotionRenderer(cfg.FrontendDir, cfg.GeneratedDir, port, cfg.RenderTimeout)

		fanout := pipeline.NewFanOut(imageChain, audioChain, cfg.ImageConcurrency)
		orch := pipeline.NewOrchestrator(jobStore, scriptSvc, fanout, audioChain, ffmpegSvc, renderer, ffmpegSvc, cfg.GeneratedDir)

		w := worker.New(q, orch)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
		go worker.RunCleanup(workerCtx, cfg.GeneratedDir, cfg.CleanupInterval, time.Duration(cfg.RetentionHours)*time.Hour)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if workerCancel != nil {
		workerCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
