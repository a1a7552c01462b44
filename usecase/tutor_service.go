package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
)

const historyWindow = 10

const welcomeMessage = `👋 Welcome to Professor AI - Your Personal English Teacher! 🌟

I'm here to help you improve your English skills through personalized lessons and conversations. Before we start our journey together, I need to assess your current English level.

The assessment will consist of a few questions. Please answer them naturally in English - you can use text or voice messages!

First, could you tell me your name?`

const audioApology = "Sorry, I couldn't process your audio message. Could you try again or type your message?"

const processingApology = "I'm sorry, I'm having trouble processing your message right now. Could you please try again?"

// TutorService orchestrates the full webhook-to-reply flow: dedup,
// transcription, state dispatch, persistence, and delivery. Messages from
// the same phone number are processed strictly in order.
type TutorService struct {
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	audioAssets   repositories.AudioAssetRepository
	gateway       repositories.MessageGateway
	audioStore    repositories.AudioStore
	speechToText  repositories.SpeechToText
	textToSpeech  repositories.TextToSpeech
	assessment    *AssessmentService
	generation    *GenerationService
	perUser       *keyedMutex
	logger        *zap.Logger
}

// NewTutorService wires the tutor orchestrator.
func NewTutorService(
	users repositories.UserRepository,
	conversations repositories.ConversationRepository,
	audioAssets repositories.AudioAssetRepository,
	gateway repositories.MessageGateway,
	audioStore repositories.AudioStore,
	stt repositories.SpeechToText,
	tts repositories.TextToSpeech,
	assessment *AssessmentService,
	generation *GenerationService,
	logger *zap.Logger,
) *TutorService {
	return &TutorService{
		users:         users,
		conversations: conversations,
		audioAssets:   audioAssets,
		gateway:       gateway,
		audioStore:    audioStore,
		speechToText:  stt,
		textToSpeech:  tts,
		assessment:    assessment,
		generation:    generation,
		perUser:       newKeyedMutex(),
		logger:        logger,
	}
}

// HandleInbound processes one received message end to end. It returns an
// error only for persistence failures the caller cannot paper over;
// delivery and provider failures are absorbed so the webhook can always be
// acknowledged.
func (s *TutorService) HandleInbound(ctx context.Context, msg *domain.InboundMessage) error {
	unlock := s.perUser.Lock(msg.From)
	defer unlock()

	if msg.ProviderMessageID != "" {
		seen, err := s.conversations.SeenProviderMessage(ctx, msg.ProviderMessageID)
		if err != nil {
			return err
		}
		if seen {
			s.logger.Info("Duplicate webhook delivery, skipping",
				zap.String("providerMessageID", msg.ProviderMessageID))
			return nil
		}
	}

	user, err := s.users.GetOrCreate(ctx, msg.From)
	if err != nil {
		return err
	}

	conversation, err := s.conversations.Active(ctx, user.ID)
	if err != nil {
		return err
	}

	text, receivedAsset, err := s.resolveText(ctx, user, msg)
	if err != nil {
		var transcription *domain.TranscriptionError
		if errors.As(err, &transcription) {
			s.logger.Warn("Audio processing failed",
				zap.String("phone", user.Phone),
				zap.Error(err))
			return s.reply(ctx, conversation, user.Phone, audioApology)
		}
		return err
	}
	if text == "" {
		s.logger.Info("No message content, skipping", zap.String("phone", user.Phone))
		return nil
	}

	// Persist the inbound turn before dispatching, on the welcome path too:
	// the stored provider message id is what makes redelivery a no-op.
	inbound := entities.NewInboundTurn(conversation.ID, text, msg.ProviderMessageID)
	if receivedAsset != nil {
		inbound.AudioAssetID = &receivedAsset.ID
	}
	if err := s.conversations.AppendTurn(ctx, inbound); err != nil {
		return err
	}

	switch user.State {
	case entities.StateNew:
		return s.welcome(ctx, user, conversation)
	case entities.StateEvaluating:
		return s.handleAssessment(ctx, user, conversation, text)
	default:
		return s.handleLesson(ctx, user, conversation, msg, text)
	}
}

// resolveText extracts the textual content of the message, transcribing
// audio through the speech recognizer. The received voice note is stored
// as an asset so the admin surface can replay it.
func (s *TutorService) resolveText(ctx context.Context, user *entities.User, msg *domain.InboundMessage) (string, *entities.AudioAsset, error) {
	if msg.Type != domain.MessageAudio {
		return strings.TrimSpace(msg.Text), nil, nil
	}

	data, contentType, err := s.gateway.DownloadMedia(ctx, msg.MediaID)
	if err != nil {
		return "", nil, &domain.TranscriptionError{Err: fmt.Errorf("media download failed: %w", err)}
	}

	var asset *entities.AudioAsset
	filename, err := s.audioStore.Store(data, contentType)
	if err != nil {
		s.logger.Warn("Failed to store received audio, continuing with transcription",
			zap.Error(err))
	} else {
		asset = &entities.AudioAsset{
			Filename:    filename,
			ContentType: contentType,
			SizeBytes:   int64(len(data)),
			Kind:        entities.AudioReceived,
		}
		if err := s.audioAssets.Create(ctx, asset); err != nil {
			s.logger.Warn("Failed to record received audio asset", zap.Error(err))
			asset = nil
		}
	}

	text, err := s.speechToText.Transcribe(ctx, data, "voice-note"+extensionFromContentType(contentType))
	if err != nil {
		return "", asset, err
	}
	return strings.TrimSpace(text), asset, nil
}

func (s *TutorService) welcome(ctx context.Context, user *entities.User, conversation *entities.Conversation) error {
	s.logger.Info("New user detected", zap.String("phone", user.Phone))

	user.Advance(entities.InputMessage)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.reply(ctx, conversation, user.Phone, welcomeMessage)
}

func (s *TutorService) handleAssessment(ctx context.Context, user *entities.User, conversation *entities.Conversation, text string) error {
	result := s.assessment.ProcessAnswer(ctx, user, text)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if !result.Complete {
		return s.reply(ctx, conversation, user.Phone, result.Reply)
	}

	// Assessment done: close the assessment conversation and open a fresh
	// one for lessons, then deliver the completion message there.
	if err := s.conversations.CompleteAll(ctx, user.ID); err != nil {
		return err
	}
	lessonConversation, err := s.conversations.Active(ctx, user.ID)
	if err != nil {
		return err
	}
	s.logger.Info("Assessment completed",
		zap.String("phone", user.Phone),
		zap.String("level", string(user.Level)))
	return s.reply(ctx, lessonConversation, user.Phone, result.Reply)
}

func (s *TutorService) handleLesson(ctx context.Context, user *entities.User, conversation *entities.Conversation, msg *domain.InboundMessage, text string) error {
	history, err := s.conversations.History(ctx, conversation.ID, historyWindow)
	if err != nil {
		return err
	}
	// Drop the inbound turn just appended; it is passed separately.
	if n := len(history); n > 0 && history[n-1].Direction == entities.DirectionInbound && history[n-1].Content == text {
		history = history[:n-1]
	}

	if topic, ok := s.matchTopicSelection(history, text); ok {
		intro := TopicIntro(topic)
		if topic == TopicGrammar || topic == TopicWriting {
			user.Advance(entities.InputExerciseSent)
			if err := s.users.Update(ctx, user); err != nil {
				return err
			}
		}
		s.logger.Info("Topic selected",
			zap.String("phone", user.Phone),
			zap.String("topic", string(topic)))
		return s.reply(ctx, conversation, user.Phone, intro)
	}

	if msg.Type == domain.MessageAudio && inPronunciationPractice(history) {
		return s.reply(ctx, conversation, user.Phone, pronunciationFeedback(text))
	}

	if user.State == entities.StateFeedback {
		if err := s.users.IncrementProgress(ctx, user.ID, 1, exerciseScore); err != nil {
			return err
		}
		user.Advance(entities.InputFeedbackGiven)
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
	}

	replyText, generated := s.generation.Reply(ctx, user, turnPointers(history), text)
	if !generated {
		// Canned reply is text-only; no point synthesizing it.
		return s.reply(ctx, conversation, user.Phone, replyText)
	}

	if s.shouldReplyWithAudio(msg, history, text) {
		return s.replyWithAudio(ctx, conversation, user.Phone, replyText)
	}
	return s.reply(ctx, conversation, user.Phone, replyText)
}

// exerciseScore is the score awarded per completed graded exercise.
const exerciseScore = 10

// matchTopicSelection only treats the message as a menu pick right after
// the assessment completion message, so ordinary conversation containing
// the word "grammar" is not hijacked.
func (s *TutorService) matchTopicSelection(history []entities.Turn, text string) (Topic, bool) {
	var lastOutbound *entities.Turn
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Direction == entities.DirectionOutbound {
			lastOutbound = &history[i]
			break
		}
	}
	if lastOutbound == nil || !strings.Contains(lastOutbound.Content, "Assessment completed") {
		return "", false
	}
	return MatchTopic(text)
}

func inPronunciationPractice(history []entities.Turn) bool {
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		content := strings.ToLower(turn.Content)
		if strings.Contains(content, "pronunciation") ||
			strings.Contains(content, "think vs sink") ||
			strings.Contains(content, "three vs tree") ||
			strings.Contains(content, "ship vs sheep") {
			return true
		}
	}
	return false
}

func pronunciationFeedback(heard string) string {
	return fmt.Sprintf(`Thanks for practicing! 🎯

I heard: '%s'

Here's my feedback:
✓ Good attempt at the sounds!

Tips for improvement:
- Try placing your tongue between your teeth for 'th' sounds
- Make 'ee' longer in 'sheep' compared to 'ship'
- For 'three', make sure the 'th' and 'r' are distinct

Would you like to:
1. Try these words again
2. Practice different words
3. Move to sentence pronunciation
Just type the number of your choice!`, heard)
}

var pronunciationKeywords = []string{"pronounce", "pronunciation", "speak", "say", "sound"}

// shouldReplyWithAudio decides between a voice note and plain text: an
// audio message gets audio back, as does an audio-heavy recent exchange or
// an explicit pronunciation request.
func (s *TutorService) shouldReplyWithAudio(msg *domain.InboundMessage, history []entities.Turn, text string) bool {
	if msg.Type == domain.MessageAudio {
		return true
	}

	audioTurns := 0
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		if turn.AudioAssetID != nil {
			audioTurns++
		}
	}
	if audioTurns >= 2 {
		return true
	}

	lowered := strings.ToLower(text)
	for _, keyword := range pronunciationKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// reply persists an outbound turn and delivers it as text. Provider
// permission errors are logged and swallowed so the stored transcript
// stays the source of truth.
func (s *TutorService) reply(ctx context.Context, conversation *entities.Conversation, to, text string) error {
	outbound := entities.NewOutboundTurn(conversation.ID, text)
	if err := s.conversations.AppendTurn(ctx, outbound); err != nil {
		return err
	}
	s.deliver(ctx, to, func() error {
		return s.gateway.SendText(ctx, to, text)
	})
	return nil
}

// replyWithAudio synthesizes the reply, stores it, and sends the hosted
// audio link. Synthesis failure degrades to a plain text reply.
func (s *TutorService) replyWithAudio(ctx context.Context, conversation *entities.Conversation, to, text string) error {
	audio, contentType, err := s.textToSpeech.Synthesize(ctx, text)
	if err != nil {
		s.logger.Warn("Speech synthesis failed, sending text instead",
			zap.String("phone", to),
			zap.Error(err))
		return s.reply(ctx, conversation, to, text)
	}

	filename, err := s.audioStore.Store(audio, contentType)
	if err != nil {
		s.logger.Warn("Failed to store synthesized audio, sending text instead",
			zap.Error(err))
		return s.reply(ctx, conversation, to, text)
	}

	asset := &entities.AudioAsset{
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(audio)),
		Kind:        entities.AudioGenerated,
	}
	if err := s.audioAssets.Create(ctx, asset); err != nil {
		return err
	}

	outbound := entities.NewOutboundTurn(conversation.ID, text)
	outbound.AudioAssetID = &asset.ID
	if err := s.conversations.AppendTurn(ctx, outbound); err != nil {
		return err
	}

	audioURL := s.audioStore.URL(filename)
	s.deliver(ctx, to, func() error {
		return s.gateway.SendAudio(ctx, to, audioURL)
	})
	return nil
}

// deliver runs a send and classifies the failure. Recipient permission
// errors are routine while the WhatsApp number is in sandbox mode.
func (s *TutorService) deliver(ctx context.Context, to string, send func() error) {
	err := send()
	if err == nil {
		return
	}
	var delivery *domain.DeliveryError
	if errors.As(err, &delivery) && delivery.PermissionDenied() {
		s.logger.Warn("Recipient not allowed, message stored only",
			zap.String("phone", to))
		return
	}
	s.logger.Error("Failed to deliver message",
		zap.String("phone", to),
		zap.Error(err))
}

func turnPointers(turns []entities.Turn) []*entities.Turn {
	out := make([]*entities.Turn, len(turns))
	for i := range turns {
		out[i] = &turns[i]
	}
	return out
}

func extensionFromContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	default:
		return ".bin"
	}
}
