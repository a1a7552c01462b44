package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every environment-provided value. It is built once at
// startup and passed by reference to each component; nothing reads the
// environment after Load returns.
type Config struct {
	Port string

	// WhatsApp Cloud API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppAPIVersion    string
	WhatsAppVerifyToken   string

	// AI providers
	OpenAIAPIKey   string
	DeepSeekAPIKey string
	ChatModel      string
	STTModel       string
	TTSModel       string
	TTSVoice       string

	// Persistence
	DatabaseURL string

	// Audio serving
	AudioDir string
	BaseURL  string

	// Admin API
	AdminAPIKey string
	JWTSecret   string
}

// Load reads the environment (plus an optional .env file) into a Config.
// Missing required values are reported together so operators fix them in one
// pass.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnvDefault("PORT", "8080"),
		WhatsAppToken:         os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppAPIVersion:    getEnvDefault("WHATSAPP_API_VERSION", "v17.0"),
		WhatsAppVerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		DeepSeekAPIKey:        os.Getenv("DEEPSEEK_API_KEY"),
		ChatModel:             getEnvDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		STTModel:              getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		TTSModel:              getEnvDefault("OPENAI_TTS_MODEL", "tts-1"),
		TTSVoice:              getEnvDefault("OPENAI_TTS_VOICE", "alloy"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		AudioDir:              getEnvDefault("AUDIO_DIR", "temp_audio"),
		BaseURL:               getEnvDefault("APP_BASE_URL", "http://localhost:8080"),
		AdminAPIKey:           os.Getenv("ADMIN_API_KEY"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
	}

	var missing []string
	for _, req := range []struct{ name, value string }{
		{"WHATSAPP_TOKEN", cfg.WhatsAppToken},
		{"WHATSAPP_PHONE_NUMBER_ID", cfg.WhatsAppPhoneNumberID},
		{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
		{"DATABASE_URL", cfg.DatabaseURL},
	} {
		if req.value == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
