package domain

// MessageType distinguishes the payload kinds the gateway understands.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageAudio MessageType = "audio"
)

// InboundMessage is the provider-agnostic representation of one received
// webhook message. The gateway adapter is the only place that knows the
// provider's wire shape.
type InboundMessage struct {
	From              string      `json:"from"`
	ProviderMessageID string      `json:"provider_message_id"`
	Type              MessageType `json:"type"`
	Text              string      `json:"text,omitempty"`
	MediaID           string      `json:"media_id,omitempty"`
	MimeType          string      `json:"mime_type,omitempty"`
	Timestamp         string      `json:"timestamp,omitempty"`
}

// OutboundMessage is a reply on its way back through the gateway, either
// plain text or a link to hosted audio.
type OutboundMessage struct {
	To       string      `json:"to"`
	Type     MessageType `json:"type"`
	Text     string      `json:"text,omitempty"`
	AudioURL string      `json:"audio_url,omitempty"`
}
