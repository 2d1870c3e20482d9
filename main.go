package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mindtek/leadchat/analyzer"
	"github.com/mindtek/leadchat/api"
	"github.com/mindtek/leadchat/chat"
	"github.com/mindtek/leadchat/config"
	"github.com/mindtek/leadchat/llm"
	"github.com/mindtek/leadchat/store"
	"github.com/mindtek/leadchat/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting leadchat...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("OpenAI API Key configured: %v", cfg.OpenAIAPIKey != "")

	// Initialize logging and telemetry
	if _, err := telemetry.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	tracer, meter, telemetryCleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer telemetryCleanup()

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize completion client
	llmClient := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMTimeout)

	// Initialize services
	chatSvc := chat.NewService(llmClient, db, chat.Prompt{
		Instruction: chat.DefaultInstruction,
		Model:       cfg.Model,
		MaxTokens:   cfg.ChatMaxTokens,
		Temperature: cfg.ChatTemperature,
	}, cfg.MaxHistory, tracer, meter)

	analyzerSvc := analyzer.NewService(llmClient, analyzer.Sampling{
		Model:       cfg.Model,
		MaxTokens:   cfg.AnalysisMaxTokens,
		Temperature: cfg.AnalysisTemperature,
	})

	// Initialize handler
	h := api.NewHandler(db, chatSvc, analyzerSvc, cfg)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(api.CORS())

	// Register routes
	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down leadchat...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("leadchat stopped")
}
