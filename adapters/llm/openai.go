package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/repositories"
)

const (
	defaultModel          = "gpt-3.5-turbo"
	defaultMaxTokens      = 300
	defaultTemperature    = 0.7
	defaultTimeoutSeconds = 30

	// DeepSeekBaseURL points the OpenAI-compatible client at DeepSeek.
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	// DeepSeekChatModel is DeepSeek's general chat model.
	DeepSeekChatModel = "deepseek-chat"
)

// ChatConfig holds configuration for a chat-completion provider.
// Required fields:
// - APIKey: the provider API key
// Optional fields with defaults:
// - BaseURL: alternate OpenAI-compatible endpoint (e.g. DeepSeek)
// - Model: the chat model (default "gpt-3.5-turbo")
// - MaxTokens: reply token budget (default 300)
// - Temperature: sampling temperature (default 0.7)
// - TimeoutSeconds: per-request timeout (default 30)
type ChatConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float32
	TimeoutSeconds int
}

// ValidateChatConfig validates the ChatConfig.
func ValidateChatConfig(config ChatConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("chat provider API key is required")
	}
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max tokens must be positive, got %d", config.MaxTokens)
	}
	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}
	return nil
}

// ChatCompletion implements the LargeLanguageModel interface over any
// OpenAI-compatible chat API, which covers both OpenAI and DeepSeek.
type ChatCompletion struct {
	client         *openai.Client
	name           string
	model          string
	maxTokens      int
	temperature    float32
	timeoutSeconds int
	logger         *zap.Logger
}

// Ensure ChatCompletion implements the LargeLanguageModel interface
var _ repositories.LargeLanguageModel = (*ChatCompletion)(nil)

// NewChatCompletion creates an LLM adapter for the provider named by name.
func NewChatCompletion(name string, config ChatConfig, logger *zap.Logger) (*ChatCompletion, error) {
	if err := ValidateChatConfig(config); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default chat model", zap.String("model", model))
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &ChatCompletion{
		client:         openai.NewClientWithConfig(clientConfig),
		name:           name,
		model:          model,
		maxTokens:      maxTokens,
		temperature:    temperature,
		timeoutSeconds: timeoutSeconds,
		logger:         logger,
	}, nil
}

// Name identifies the provider for logging and error reporting.
func (c *ChatCompletion) Name() string { return c.name }

// Complete sends the system prompt plus conversation to the provider and
// returns the reply text. A single attempt is made; failures surface as
// *domain.GenerationError for the caller's fallback chain.
func (c *ChatCompletion) Complete(ctx context.Context, system string, messages []repositories.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.timeoutSeconds)*time.Second)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    convertMessages(system, messages),
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		c.logger.Warn("Chat completion failed",
			zap.String("provider", c.name),
			zap.Error(err))
		return "", &domain.GenerationError{Provider: c.name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Provider: c.name, Err: fmt.Errorf("no choices in response")}
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", &domain.GenerationError{Provider: c.name, Err: fmt.Errorf("empty reply")}
	}
	return reply, nil
}

func convertMessages(system string, messages []repositories.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case repositories.AssistantRole:
			role = openai.ChatMessageRoleAssistant
		case repositories.SystemRole:
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
