package whatsapp

import (
	"encoding/json"

	"github.com/professorai/server/domain"
)

// webhookPayload mirrors the Graph API webhook envelope. Only the fields the
// flow needs are declared; everything else is ignored.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	} `json:"audio"`
}

// ParseWebhook translates a Graph API webhook body into the internal message
// representation. Status-only callbacks carry no messages and return
// (nil, nil) so the caller can acknowledge without processing. Structural
// problems return a *domain.ParseError.
func ParseWebhook(body []byte) (*domain.InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.ParseError{Reason: "invalid JSON: " + err.Error()}
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, nil
	}
	messages := payload.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil, nil
	}

	msg := messages[0]
	if msg.From == "" {
		return nil, &domain.ParseError{Reason: "message has no sender id"}
	}

	inbound := &domain.InboundMessage{
		From:              msg.From,
		ProviderMessageID: msg.ID,
		Timestamp:         msg.Timestamp,
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil || msg.Text.Body == "" {
			return nil, &domain.ParseError{Reason: "text message has no body"}
		}
		inbound.Type = domain.MessageText
		inbound.Text = msg.Text.Body
	case "audio":
		if msg.Audio == nil || msg.Audio.ID == "" {
			return nil, &domain.ParseError{Reason: "audio message has no media id"}
		}
		inbound.Type = domain.MessageAudio
		inbound.MediaID = msg.Audio.ID
		inbound.MimeType = msg.Audio.MimeType
	default:
		return nil, &domain.ParseError{Reason: "unsupported message type: " + msg.Type}
	}

	return inbound, nil
}

// VerifyWebhook implements the hub.challenge verification protocol the Graph
// API uses when a webhook URL is registered. It returns the challenge to echo
// back, or false when the mode or token does not match.
func VerifyWebhook(verifyToken, mode, token, challenge string) (string, bool) {
	if verifyToken == "" {
		return "", false
	}
	if mode == "subscribe" && token == verifyToken {
		return challenge, true
	}
	return "", false
}
