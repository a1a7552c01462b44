package whatsapp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/professorai/server/domain"
)

const textWebhookPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "contacts": [{"profile": {"name": "Maria"}, "wa_id": "5511999990000"}],
        "messages": [{
          "from": "5511999990000",
          "id": "wamid.HBgLNTUxMTk5OTk5MDAwMBUCABIYFjNFQjBEMUE0",
          "timestamp": "1724854800",
          "text": {"body": "Hello, I want to practice English"},
          "type": "text"
        }]
      },
      "field": "messages"
    }]
  }]
}`

const audioWebhookPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "value": {
        "messaging_product": "whatsapp",
        "messages": [{
          "from": "5511999990000",
          "id": "wamid.HBgLNTUxMTk5OTk5MDAwMBUCABIYFjNFQjBEMUY2",
          "timestamp": "1724854860",
          "type": "audio",
          "audio": {"mime_type": "audio/ogg; codecs=opus", "id": "1277377930072006", "voice": true}
        }]
      },
      "field": "messages"
    }]
  }]
}`

const statusWebhookPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "value": {
        "messaging_product": "whatsapp",
        "statuses": [{"id": "wamid.HBgL", "status": "delivered", "recipient_id": "5511999990000"}]
      },
      "field": "messages"
    }]
  }]
}`

func TestParseWebhookText(t *testing.T) {
	msg, err := ParseWebhook([]byte(textWebhookPayload))
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, "5511999990000", msg.From)
	assert.Equal(t, "wamid.HBgLNTUxMTk5OTk5MDAwMBUCABIYFjNFQjBEMUE0", msg.ProviderMessageID)
	assert.Equal(t, domain.MessageText, msg.Type)
	assert.Equal(t, "Hello, I want to practice English", msg.Text)
	assert.Empty(t, msg.MediaID)
}

func TestParseWebhookAudio(t *testing.T) {
	msg, err := ParseWebhook([]byte(audioWebhookPayload))
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, domain.MessageAudio, msg.Type)
	assert.Equal(t, "1277377930072006", msg.MediaID)
	assert.Equal(t, "audio/ogg; codecs=opus", msg.MimeType)
	assert.Empty(t, msg.Text)
}

func TestParseWebhookStatusOnly(t *testing.T) {
	msg, err := ParseWebhook([]byte(statusWebhookPayload))
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestParseWebhookEmptyEntry(t *testing.T) {
	msg, err := ParseWebhook([]byte(`{"object":"whatsapp_business_account","entry":[]}`))
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestParseWebhookMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"entry": [`},
		{"missing sender", `{"entry":[{"changes":[{"value":{"messages":[{"id":"wamid.X","type":"text","text":{"body":"hi"}}]}}]}]}`},
		{"text without body", `{"entry":[{"changes":[{"value":{"messages":[{"from":"551","id":"wamid.X","type":"text"}]}}]}]}`},
		{"audio without media id", `{"entry":[{"changes":[{"value":{"messages":[{"from":"551","id":"wamid.X","type":"audio","audio":{}}]}}]}]}`},
		{"unsupported type", `{"entry":[{"changes":[{"value":{"messages":[{"from":"551","id":"wamid.X","type":"image"}]}}]}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := ParseWebhook([]byte(tc.body))
			assert.Nil(t, msg)
			var parseErr *domain.ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	challenge, ok := VerifyWebhook("secret-token", "subscribe", "secret-token", "1158201444")
	require.True(t, ok)
	assert.Equal(t, "1158201444", challenge)

	_, ok = VerifyWebhook("secret-token", "subscribe", "wrong", "1158201444")
	assert.False(t, ok)

	_, ok = VerifyWebhook("secret-token", "unsubscribe", "secret-token", "1158201444")
	assert.False(t, ok)

	_, ok = VerifyWebhook("", "subscribe", "", "1158201444")
	assert.False(t, ok)
}
