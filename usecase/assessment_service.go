package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/professorai/server/domain/entities"
)

// minAnswersForAssessment is how many answers must be collected before the
// classifier is consulted.
const minAnswersForAssessment = 3

// assessmentQuestions holds the question banks per level. Early questions
// come from the beginner bank, later ones from the intermediate bank, so
// the difficulty ramps while answers accumulate.
var assessmentQuestions = map[entities.EnglishLevel][]string{
	entities.LevelBeginner: {
		"What's your name?",
		"How are you today?",
		"Where are you from?",
		"What do you do for work or study?",
		"Do you like learning English? Why?",
	},
	entities.LevelElementary: {
		"What do you like to do in your free time?",
		"Can you describe your daily routine?",
		"What kind of movies do you enjoy watching?",
		"Tell me about your family.",
		"What are your hobbies?",
	},
	entities.LevelIntermediate: {
		"What are your thoughts on climate change?",
		"How would you describe your ideal job?",
		"What changes would you like to see in your city?",
		"What's the most interesting place you've visited?",
		"What are your goals for learning English?",
	},
	entities.LevelAdvanced: {
		"Could you elaborate on the implications of artificial intelligence in modern society?",
		"What are the most pressing challenges facing global education today?",
		"How do you think technology will shape the future of work?",
		"Discuss the role of social media in modern society.",
		"What measures could be taken to address environmental issues?",
	},
}

// AssessmentService runs the level evaluation flow: it asks questions of
// increasing difficulty, and once enough answers are in, classifies the
// student and generates a study plan.
type AssessmentService struct {
	generation *GenerationService
	logger     *zap.Logger
}

// NewAssessmentService creates an assessment service.
func NewAssessmentService(generation *GenerationService, logger *zap.Logger) *AssessmentService {
	return &AssessmentService{
		generation: generation,
		logger:     logger,
	}
}

// AssessmentResult is the outcome of processing one answer.
type AssessmentResult struct {
	Reply    string
	Complete bool
}

// NextQuestion returns the question for the given progress, annotated with
// a progress footer, or "" when the bank is exhausted.
func (s *AssessmentService) NextQuestion(answered int) string {
	bank := entities.LevelBeginner
	if answered >= 2 {
		bank = entities.LevelIntermediate
	}
	questions := assessmentQuestions[bank]
	if answered >= len(questions) {
		return ""
	}

	question := questions[answered]
	remaining := len(questions) - answered
	if remaining > 1 {
		return fmt.Sprintf("%s\n\n(Question %d of %d)", question, answered+1, len(questions))
	}
	return question + "\n\n(Final question! After this, I'll assess your English level.)"
}

// ProcessAnswer consumes one assessment answer and mutates the user. When
// classification succeeds the user is assessed and moved into lessons; the
// returned reply is either the next question or the completion message.
func (s *AssessmentService) ProcessAnswer(ctx context.Context, user *entities.User, answer string) AssessmentResult {
	answered := user.AnswersGiven

	if answered >= minAnswersForAssessment {
		level, err := s.classify(ctx, answer)
		if err == nil {
			plan, planErr := s.generateStudyPlan(ctx, level)
			if planErr != nil {
				s.logger.Warn("Study plan generation failed", zap.Error(planErr))
			}
			user.AnswersGiven = answered + 1
			user.Assessed(level, plan)
			return AssessmentResult{
				Reply:    completionMessage(level),
				Complete: true,
			}
		}
		s.logger.Warn("Level classification failed, continuing assessment",
			zap.String("phone", user.Phone),
			zap.Error(err))
	}

	next := s.NextQuestion(answered)
	if next == "" {
		// Bank exhausted but classification keeps failing.
		return AssessmentResult{
			Reply: "I'm analyzing your responses to determine your English level...",
		}
	}
	user.AnswersGiven = answered + 1
	return AssessmentResult{Reply: next}
}

func (s *AssessmentService) classify(ctx context.Context, answer string) (entities.EnglishLevel, error) {
	prompt := fmt.Sprintf(`Analyze the following English response and determine the user's English level
(BEGINNER, ELEMENTARY, INTERMEDIATE, UPPER_INTERMEDIATE, or ADVANCED)
based on grammar, vocabulary, and complexity:

User response: %s

Provide the level only as a single word response.`, answer)

	reply, err := s.generation.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("classification request failed: %w", err)
	}
	return ParseLevelReply(reply)
}

func (s *AssessmentService) generateStudyPlan(ctx context.Context, level entities.EnglishLevel) (string, error) {
	prompt := fmt.Sprintf(`Create a personalized 30-day English study plan for a %s level student.
Include:
- Daily conversation topics
- Grammar focus points
- Vocabulary themes
- Suggested activities
- Weekly goals

Format the response as a JSON string with the following structure:
{
    "weekly_plans": [
        {
            "week": 1,
            "focus_points": ["point1", "point2"],
            "daily_topics": ["topic1", "topic2", "topic3", "topic4", "topic5"],
            "grammar": "focus area",
            "vocabulary": "theme",
            "activities": ["activity1", "activity2"]
        }
    ]
}`, level)

	return s.generation.Complete(ctx, prompt)
}

func completionMessage(level entities.EnglishLevel) string {
	return fmt.Sprintf(`🎉 Assessment completed! Your English level is: %s

I've created a personalized study plan for you. Here's what you can expect:
- Daily conversations to practice English
- Grammar and vocabulary exercises
- Progress tracking and feedback
- Regular level assessments

Let's start our first lesson! Choose a topic:

1. Daily conversations (greetings, shopping, travel)
2. Grammar exercises
3. Vocabulary building
4. Pronunciation help
5. Writing practice

Just type the number or name of what you'd like to practice!`, level)
}
