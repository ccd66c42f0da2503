package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/omarwdev/visiontext/internal/chat"
	"github.com/omarwdev/visiontext/internal/config"
	"github.com/omarwdev/visiontext/internal/handlers"
	"github.com/omarwdev/visiontext/internal/llm"
	"github.com/omarwdev/visiontext/internal/memory"
	"github.com/omarwdev/visiontext/internal/ocr"
	"github.com/omarwdev/visiontext/internal/session"
	"github.com/omarwdev/visiontext/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting visiontext service...")

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("🤖 Gemini Model: %s", cfg.GeminiModel)
	log.Printf("🔍 OCR Languages: %v", cfg.OCRLanguages)
	log.Printf("⏲️  Session Timeout: %s", cfg.SessionTimeout)

	// Validate required configuration
	if cfg.GeminiAPIKey == "" {
		log.Fatal("❌ AI_API_TOKEN environment variable is required")
	}

	// Make sure the upload directory exists
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	ctx := context.Background()

	// Initialize Gemini provider
	provider, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature, cfg.LLMTimeout)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini provider: %v", err)
	}
	log.Println("✅ Gemini provider initialized")

	// Initialize session registry; each session gets a fresh bounded memory
	registry := session.NewRegistry(cfg.SessionTimeout, cfg.UploadDir, func() *memory.Memory {
		return memory.New(provider, cfg.GeminiModel, cfg.MemoryTokenLimit)
	})
	log.Println("✅ Session registry initialized")

	// Start the session reaper
	cleanup := session.NewCleanupService(registry)
	cleanup.Start(ctx)
	defer cleanup.Stop()

	// Initialize OCR pipeline
	recognizer := ocr.NewTesseractRecognizer(cfg.OCRLanguages, cfg.OCRModelDir)
	pipeline := ocr.NewPipeline(recognizer, ocr.OpenVideoFile)
	log.Println("✅ OCR pipeline initialized")

	// Initialize conversation engine and request handlers
	engine := chat.NewEngine(provider)
	chatHandler := handlers.NewChatHandler(registry, engine)
	uploadHandler := handlers.NewUploadHandler(registry, pipeline, cfg.UploadDir, cfg.MaxVideoSize)

	// Start HTTP transport
	httpTransport := transport.NewHTTPTransport(cfg, chatHandler, uploadHandler)
	if err := httpTransport.Start(); err != nil {
		log.Fatalf("❌ Failed to start HTTP transport: %v", err)
	}

	log.Println("✅ visiontext service is running!")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("🛑 Received signal: %v", sig)
	log.Println("🔄 Shutting down gracefully...")

	if err := httpTransport.Close(); err != nil {
		log.Printf("⚠️ Error closing HTTP transport: %v", err)
	}
	cleanup.Stop()

	stats := registry.Stats()
	log.Printf("📊 Final session count: %d", stats["total"])
	log.Println("👋 visiontext service stopped")
}
