package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/professorai/server/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Token:         "test-token",
		PhoneNumberID: "106540352242922",
		BaseURL:       baseURL,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{PhoneNumberID: "123"}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewClient(Config{Token: "tok"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSendText(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v17.0/106540352242922/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.OUT"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.SendText(context.Background(), "5511999990000", "Hello!")
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "5511999990000", got.To)
	assert.Equal(t, "text", got.Type)
	require.NotNil(t, got.Text)
	assert.Equal(t, "Hello!", got.Text.Body)
}

func TestSendAudio(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages":[{"id":"wamid.OUT"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.SendAudio(context.Background(), "5511999990000", "https://example.com/audio/a.mp3")
	require.NoError(t, err)

	assert.Equal(t, "audio", got.Type)
	require.NotNil(t, got.Audio)
	assert.Equal(t, "https://example.com/audio/a.mp3", got.Audio.Link)
}

func TestSendTextRecipientNotAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"(#131030) Recipient phone number not in allowed list","code":131030}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.SendText(context.Background(), "5511999990000", "Hello!")
	require.Error(t, err)

	var delivery *domain.DeliveryError
	require.True(t, errors.As(err, &delivery))
	assert.Equal(t, http.StatusBadRequest, delivery.StatusCode)
	assert.Equal(t, 131030, delivery.Code)
	assert.True(t, delivery.PermissionDenied())
}

func TestSendTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"something broke","code":1}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.SendText(context.Background(), "5511999990000", "Hello!")

	var delivery *domain.DeliveryError
	require.True(t, errors.As(err, &delivery))
	assert.False(t, delivery.PermissionDenied())
}

func TestDownloadMedia(t *testing.T) {
	audio := []byte("OggS fake voice note bytes")

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v17.0/1277377930072006", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"url":       server.URL + "/binary/1277377930072006",
			"mime_type": "audio/ogg",
		})
	})
	mux.HandleFunc("/binary/1277377930072006", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "audio/ogg")
		w.Write(audio)
	})

	client := newTestClient(t, server.URL)
	data, contentType, err := client.DownloadMedia(context.Background(), "1277377930072006")
	require.NoError(t, err)
	assert.Equal(t, audio, data)
	assert.Equal(t, "audio/ogg", contentType)
}

func TestDownloadMediaLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"unknown media","code":100}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, _, err := client.DownloadMedia(context.Background(), "nope")
	assert.Error(t, err)
}
