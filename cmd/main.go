package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/professorai/server/adapters/llm"
	"github.com/professorai/server/adapters/postgres"
	"github.com/professorai/server/adapters/stt"
	"github.com/professorai/server/adapters/tts"
	"github.com/professorai/server/adapters/whatsapp"
	"github.com/professorai/server/domain/repositories"
	"github.com/professorai/server/internal/api"
	"github.com/professorai/server/internal/audiostore"
	"github.com/professorai/server/internal/auth"
	"github.com/professorai/server/internal/config"
	"github.com/professorai/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Persistence
	db, err := postgres.NewClient(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db.DB)
	conversationRepo := postgres.NewConversationRepository(db.DB)
	audioRepo := postgres.NewAudioAssetRepository(db.DB)

	// Messaging gateway
	gateway, err := whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhatsAppToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		APIVersion:    cfg.WhatsAppAPIVersion,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize WhatsApp client", zap.Error(err))
	}

	// AI providers: DeepSeek first when configured, OpenAI as fallback.
	var providers []repositories.LargeLanguageModel
	if cfg.DeepSeekAPIKey != "" {
		deepseek, err := llm.NewChatCompletion("deepseek", llm.ChatConfig{
			APIKey:  cfg.DeepSeekAPIKey,
			BaseURL: llm.DeepSeekBaseURL,
			Model:   llm.DeepSeekChatModel,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize DeepSeek client", zap.Error(err))
		}
		providers = append(providers, deepseek)
	}
	openaiChat, err := llm.NewChatCompletion("openai", llm.ChatConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.ChatModel,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OpenAI client", zap.Error(err))
	}
	providers = append(providers, openaiChat)

	speechToText, err := stt.NewWhisperSpeechToText(stt.WhisperConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.STTModel,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech recognition", zap.Error(err))
	}

	textToSpeech, err := tts.NewOpenAISpeech(tts.SpeechConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.TTSModel,
		Voice:  cfg.TTSVoice,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech synthesis", zap.Error(err))
	}

	store, err := audiostore.NewDiskStore(cfg.AudioDir, cfg.BaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio store", zap.Error(err))
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", zap.Error(err))
	}

	// Usecase services
	generation := usecase.NewGenerationService(providers, logger)
	assessment := usecase.NewAssessmentService(generation, logger)
	tutor := usecase.NewTutorService(
		userRepo,
		conversationRepo,
		audioRepo,
		gateway,
		store,
		speechToText,
		textToSpeech,
		assessment,
		generation,
		logger,
	)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := api.NewServer(
		tutor,
		userRepo,
		conversationRepo,
		gateway,
		store,
		issuer,
		cfg.WhatsAppVerifyToken,
		cfg.AdminAPIKey,
		logger,
	)
	api.InitRoutes(e, server)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
