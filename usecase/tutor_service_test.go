package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/professorai/server/adapters/llm"
	"github.com/professorai/server/adapters/postgres"
	"github.com/professorai/server/adapters/stt"
	"github.com/professorai/server/adapters/tts"
	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
	"github.com/professorai/server/internal/audiostore"
)

// mockGateway records outbound deliveries and serves canned media.
type mockGateway struct {
	texts   []string
	audios  []string
	media   map[string][]byte
	sendErr error
}

func (m *mockGateway) SendText(ctx context.Context, to, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockGateway) SendAudio(ctx context.Context, to, audioURL string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.audios = append(m.audios, audioURL)
	return nil
}

func (m *mockGateway) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	data, ok := m.media[mediaID]
	if !ok {
		return nil, "", fmt.Errorf("unknown media id %s", mediaID)
	}
	return data, "audio/ogg", nil
}

type fixture struct {
	tutor         *TutorService
	users         *postgres.UserRepository
	conversations *postgres.ConversationRepository
	gateway       *mockGateway
	chat          *llm.MockChatCompletion
	speech        *stt.MockSpeechToText
	voice         *tts.MockTextToSpeech
	db            *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))

	store, err := audiostore.NewDiskStore(t.TempDir(), "http://localhost:8080", logger)
	require.NoError(t, err)

	f := &fixture{
		users:         postgres.NewUserRepository(db),
		conversations: postgres.NewConversationRepository(db),
		gateway:       &mockGateway{media: map[string][]byte{}},
		chat:          llm.NewMockChatCompletion(),
		speech:        stt.NewMockSpeechToText(logger),
		voice:         tts.NewMockTextToSpeech(logger),
		db:            db,
	}

	generation := NewGenerationService([]repositories.LargeLanguageModel{f.chat}, logger)
	assessment := NewAssessmentService(generation, logger)
	f.tutor = NewTutorService(
		f.users,
		f.conversations,
		postgres.NewAudioAssetRepository(db),
		f.gateway,
		store,
		f.speech,
		f.voice,
		assessment,
		generation,
		logger,
	)
	return f
}

func text(from, id, body string) *domain.InboundMessage {
	return &domain.InboundMessage{
		From:              from,
		ProviderMessageID: id,
		Type:              domain.MessageText,
		Text:              body,
	}
}

func (f *fixture) userByPhone(t *testing.T, phone string) *entities.User {
	t.Helper()
	user, err := f.users.GetByPhone(context.Background(), phone)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func (f *fixture) transcript(t *testing.T, userID uint) []entities.Turn {
	t.Helper()
	conv, err := f.conversations.Active(context.Background(), userID)
	require.NoError(t, err)
	history, err := f.conversations.History(context.Background(), conv.ID, 0)
	require.NoError(t, err)
	return history
}

// setUserState drives a user into the given state directly.
func (f *fixture) setUserState(t *testing.T, phone string, state entities.UserState, level entities.EnglishLevel) *entities.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.users.GetOrCreate(ctx, phone)
	require.NoError(t, err)
	user.State = state
	user.Level = level
	require.NoError(t, f.users.Update(ctx, user))
	return user
}

func TestNewUserReceivesWelcome(t *testing.T) {
	f := newFixture(t)

	err := f.tutor.HandleInbound(context.Background(), text("5511999990000", "wamid.1", "oi"))
	require.NoError(t, err)

	require.Len(t, f.gateway.texts, 1)
	assert.Contains(t, f.gateway.texts[0], "Welcome to Professor AI")

	user := f.userByPhone(t, "5511999990000")
	assert.Equal(t, entities.StateEvaluating, user.State)

	turns := f.transcript(t, user.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, entities.DirectionInbound, turns[0].Direction)
	assert.Equal(t, "wamid.1", turns[0].ProviderMessageID)
	assert.Equal(t, entities.DirectionOutbound, turns[1].Direction)
}

func TestFirstMessageRedeliveryIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg := text("5511999990000", "wamid.first", "oi")
	require.NoError(t, f.tutor.HandleInbound(ctx, msg))
	require.NoError(t, f.tutor.HandleInbound(ctx, msg))

	// The redelivered first message must not be consumed as an assessment
	// answer or trigger a second reply.
	user := f.userByPhone(t, "5511999990000")
	assert.Equal(t, entities.StateEvaluating, user.State)
	assert.Zero(t, user.AnswersGiven)

	require.Len(t, f.gateway.texts, 1)
	assert.Contains(t, f.gateway.texts[0], "Welcome to Professor AI")
}

func TestDuplicateDeliveryIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.setUserState(t, "5511999990000", entities.StateEvaluating, "")
	f.chat.Err = errors.New("provider down") // keeps assessment asking questions

	msg := text("5511999990000", "wamid.dup", "My name is Maria")
	require.NoError(t, f.tutor.HandleInbound(context.Background(), msg))
	require.NoError(t, f.tutor.HandleInbound(context.Background(), msg))

	user := f.userByPhone(t, "5511999990000")
	turns := f.transcript(t, user.ID)

	inbound := 0
	for _, turn := range turns {
		if turn.Direction == entities.DirectionInbound {
			inbound++
		}
	}
	assert.Equal(t, 1, inbound, "duplicate delivery must not create a second turn")
	assert.Len(t, f.gateway.texts, 1)
}

func TestAssessmentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateEvaluating, "")
	f.chat.Err = errors.New("not yet")

	answers := []string{"My name is Maria", "I am fine thank you", "I am from Brazil"}
	for i, answer := range answers {
		require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", fmt.Sprintf("wamid.a%d", i), answer)))
	}

	user := f.userByPhone(t, "5511999990000")
	assert.Equal(t, entities.StateEvaluating, user.State)
	assert.Equal(t, 3, user.AnswersGiven)
	assert.Contains(t, f.gateway.texts[0], "Question 1 of 5")

	// Fourth answer triggers classification.
	f.chat.Err = nil
	f.chat.Reply = "INTERMEDIATE"
	require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", "wamid.a3", "I work with computers and I study English at night")))

	user = f.userByPhone(t, "5511999990000")
	assert.Equal(t, entities.StateActiveLesson, user.State)
	assert.Equal(t, entities.LevelIntermediate, user.Level)
	assert.NotEmpty(t, user.StudyPlan)

	last := f.gateway.texts[len(f.gateway.texts)-1]
	assert.Contains(t, last, "Assessment completed")
	assert.Contains(t, last, "intermediate")

	// The completion message opens a fresh conversation holding only it.
	turns := f.transcript(t, user.ID)
	require.Len(t, turns, 1)
	assert.Contains(t, turns[0].Content, "Assessment completed")
}

func TestTopicSelectionAfterAssessment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelIntermediate)

	conv, err := f.conversations.Active(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, f.conversations.AppendTurn(ctx, entities.NewOutboundTurn(conv.ID, completionMessage(entities.LevelIntermediate))))

	require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", "wamid.t1", "2")))

	last := f.gateway.texts[len(f.gateway.texts)-1]
	assert.Contains(t, last, "grammar")

	// Grammar hands out an exercise, so the user moves to feedback.
	user = f.userByPhone(t, "5511999990000")
	assert.Equal(t, entities.StateFeedback, user.State)
}

func TestFeedbackGradesExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateFeedback, entities.LevelIntermediate)
	f.chat.Reply = "Correct! 'Went' is the past tense of 'go'. Well done."

	require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", "wamid.f1", "Yesterday, I went to the store.")))

	user := f.userByPhone(t, "5511999990000")
	assert.Equal(t, entities.StateActiveLesson, user.State)
	assert.Equal(t, 1, user.Progress.CompletedCount)
	assert.Equal(t, exerciseScore, user.Progress.Score)

	last := f.gateway.texts[len(f.gateway.texts)-1]
	assert.Contains(t, last, "Correct!")
}

func TestAudioRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelIntermediate)

	f.gateway.media["media-1"] = []byte(strings.Repeat("a", 2000))
	f.speech.Text = "I want to talk about my weekend"
	f.chat.Reply = "That sounds great! Tell me what you did on Saturday."

	msg := &domain.InboundMessage{
		From:              "5511999990000",
		ProviderMessageID: "wamid.v1",
		Type:              domain.MessageAudio,
		MediaID:           "media-1",
		MimeType:          "audio/ogg",
	}
	require.NoError(t, f.tutor.HandleInbound(ctx, msg))

	// Voice in, voice out.
	require.Len(t, f.gateway.audios, 1)
	assert.Contains(t, f.gateway.audios[0], "/api/whatsapp/audio/")
	assert.Empty(t, f.gateway.texts)

	user := f.userByPhone(t, "5511999990000")
	turns := f.transcript(t, user.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, "I want to talk about my weekend", turns[0].Content)
	require.NotNil(t, turns[0].AudioAssetID, "received voice note should be kept")
	require.NotNil(t, turns[1].AudioAssetID, "generated reply audio should be kept")
}

func TestTranscriptionFailureSendsApology(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelIntermediate)

	f.gateway.media["media-1"] = []byte("noise")
	f.speech.Err = &domain.TranscriptionError{Err: errors.New("unintelligible")}

	msg := &domain.InboundMessage{
		From:              "5511999990000",
		ProviderMessageID: "wamid.v2",
		Type:              domain.MessageAudio,
		MediaID:           "media-1",
	}
	require.NoError(t, f.tutor.HandleInbound(ctx, msg))

	require.Len(t, f.gateway.texts, 1)
	assert.Contains(t, f.gateway.texts[0], "couldn't process your audio")
}

func TestGenerationFailureFallsBackToCannedReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelAdvanced)
	f.chat.Err = errors.New("both providers down")

	require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", "wamid.g1", "Let's discuss literature")))

	require.Len(t, f.gateway.texts, 1)
	assert.Equal(t, fallbackReplies[entities.LevelAdvanced], f.gateway.texts[0])

	// The exchange is still fully persisted.
	user := f.userByPhone(t, "5511999990000")
	turns := f.transcript(t, user.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, entities.DirectionInbound, turns[0].Direction)
	assert.Equal(t, entities.DirectionOutbound, turns[1].Direction)
}

func TestSynthesisFailureDegradesToText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelIntermediate)

	f.gateway.media["media-1"] = []byte(strings.Repeat("a", 2000))
	f.speech.Text = "How do I pronounce this word"
	f.chat.Reply = "Let's break the word into syllables."
	f.voice.Err = &domain.SynthesisError{Err: errors.New("tts down")}

	msg := &domain.InboundMessage{
		From:              "5511999990000",
		ProviderMessageID: "wamid.v3",
		Type:              domain.MessageAudio,
		MediaID:           "media-1",
	}
	require.NoError(t, f.tutor.HandleInbound(ctx, msg))

	assert.Empty(t, f.gateway.audios)
	require.Len(t, f.gateway.texts, 1)
	assert.Equal(t, "Let's break the word into syllables.", f.gateway.texts[0])
}

func TestPermissionDeniedDeliveryIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelIntermediate)
	f.chat.Reply = "Nice to hear from you!"
	f.gateway.sendErr = &domain.DeliveryError{StatusCode: 400, Code: 131030, Message: "recipient not in allowed list"}

	require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", "wamid.p1", "hello")))

	// Nothing delivered, but the transcript is intact.
	user := f.userByPhone(t, "5511999990000")
	turns := f.transcript(t, user.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, "Nice to hear from you!", turns[1].Content)
}

func TestPronunciationKeywordTriggersAudioReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setUserState(t, "5511999990000", entities.StateActiveLesson, entities.LevelIntermediate)
	f.chat.Reply = "Sure, the word 'comfortable' is pronounced KUMF-ter-bul."

	require.NoError(t, f.tutor.HandleInbound(ctx, text("5511999990000", "wamid.k1", "Can you help me pronounce comfortable?")))

	require.Len(t, f.gateway.audios, 1)
	assert.Empty(t, f.gateway.texts)
}
