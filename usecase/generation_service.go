package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
)

// GenerationService produces tutor replies. It walks an ordered list of
// chat providers and falls back to a canned level-appropriate reply when
// every provider fails, so the student always gets an answer.
type GenerationService struct {
	providers []repositories.LargeLanguageModel
	logger    *zap.Logger
}

// NewGenerationService creates a generation service. Providers are tried
// in the order given.
func NewGenerationService(providers []repositories.LargeLanguageModel, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		providers: providers,
		logger:    logger,
	}
}

const tutorSystemPrompt = `You are Professor AI, a friendly and professional English teacher.

Student Profile:
- English Level: %s
- Learning Goals: Improve English through conversation practice

Guidelines:
1. Always respond in English
2. Adjust your language complexity to match the student's level
3. Provide corrections and explanations when needed
4. Be encouraging and supportive
5. Ask follow-up questions to maintain engagement
6. Include practical examples and exercises when appropriate
7. For pronunciation topics, provide specific phonetic guidance
8. Keep responses concise but helpful (max 200 words)`

var fallbackReplies = map[entities.EnglishLevel]string{
	entities.LevelBeginner:          "Thank you for your message! I'm here to help you learn English. Can you tell me more about what you want to practice today?",
	entities.LevelElementary:        "That's interesting! I'd like to help you improve your English. What specific areas would you like to work on?",
	entities.LevelIntermediate:      "Great! I appreciate you sharing that with me. How can I help you practice English today? Would you like to focus on conversation, grammar, or vocabulary?",
	entities.LevelUpperIntermediate: "Great! I appreciate you sharing that with me. How can I help you practice English today? Would you like to focus on conversation, grammar, or vocabulary?",
	entities.LevelAdvanced:          "Excellent! I can see you have good English skills. Let's continue our conversation and work on refining your language abilities. What topics interest you most?",
}

// Reply generates a tutor reply for the student's latest message, using
// recent conversation turns as context. The second return value reports
// whether the reply came from a provider or from the canned fallback.
func (s *GenerationService) Reply(ctx context.Context, user *entities.User, history []*entities.Turn, message string) (string, bool) {
	level := "Unknown"
	if user.Level != "" {
		level = string(user.Level)
	}
	system := fmt.Sprintf(tutorSystemPrompt, level)

	messages := make([]repositories.ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		role := repositories.UserRole
		if turn.Direction == entities.DirectionOutbound {
			role = repositories.AssistantRole
		}
		messages = append(messages, repositories.ChatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, repositories.ChatMessage{Role: repositories.UserRole, Content: message})

	for _, provider := range s.providers {
		reply, err := provider.Complete(ctx, system, messages)
		if err != nil {
			s.logger.Warn("Chat provider failed, trying next",
				zap.String("provider", provider.Name()),
				zap.Error(err))
			continue
		}
		return reply, true
	}

	s.logger.Warn("All chat providers failed, using canned reply",
		zap.String("phone", user.Phone))
	return s.fallbackReply(user.Level), false
}

// Complete runs a one-off prompt through the provider chain without the
// tutor persona. Used for level classification and study plans.
func (s *GenerationService) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: prompt},
	}

	var lastErr error
	for _, provider := range s.providers {
		reply, err := provider.Complete(ctx, "", messages)
		if err != nil {
			lastErr = err
			s.logger.Warn("Chat provider failed, trying next",
				zap.String("provider", provider.Name()),
				zap.Error(err))
			continue
		}
		return reply, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no chat providers configured")
	}
	return "", lastErr
}

func (s *GenerationService) fallbackReply(level entities.EnglishLevel) string {
	if reply, ok := fallbackReplies[level]; ok {
		return reply
	}
	return fallbackReplies[entities.LevelBeginner]
}

// ParseLevelReply extracts an English level from a classifier reply,
// tolerating surrounding prose.
func ParseLevelReply(reply string) (entities.EnglishLevel, error) {
	normalized := strings.ToUpper(strings.TrimSpace(reply))
	if level, err := entities.ParseEnglishLevel(strings.ToLower(normalized)); err == nil {
		return level, nil
	}
	for _, level := range []entities.EnglishLevel{
		entities.LevelUpperIntermediate,
		entities.LevelIntermediate,
		entities.LevelElementary,
		entities.LevelAdvanced,
		entities.LevelBeginner,
	} {
		if strings.Contains(normalized, strings.ToUpper(string(level))) {
			return level, nil
		}
	}
	return "", fmt.Errorf("unrecognized level in reply %q", reply)
}
