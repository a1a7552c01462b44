package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/repositories"
)

const defaultGraphBaseURL = "https://graph.facebook.com"

// Config holds configuration for the WhatsApp Cloud API client.
// Required fields:
// - Token: the Graph API access token
// - PhoneNumberID: the sending phone number id
// Optional fields with defaults:
// - APIVersion: the Graph API version (default "v17.0")
// - BaseURL: the Graph API host, overridable for tests
type Config struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
}

// Client sends messages and fetches media through the WhatsApp Cloud API.
type Client struct {
	token         string
	phoneNumberID string
	apiVersion    string
	baseURL       string
	httpClient    *http.Client
	logger        *zap.Logger
}

// Ensure Client implements the MessageGateway interface
var _ repositories.MessageGateway = (*Client)(nil)

// NewClient creates a new WhatsApp Cloud API client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("whatsapp token is required")
	}
	if config.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp phone number id is required")
	}

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = "v17.0"
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}

	return &Client{
		token:         config.Token,
		phoneNumberID: config.PhoneNumberID,
		apiVersion:    apiVersion,
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}, nil
}

type textPayload struct {
	Body string `json:"body"`
}

type audioPayload struct {
	Link string `json:"link"`
}

type sendRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    string        `json:"recipient_type"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textPayload  `json:"text,omitempty"`
	Audio            *audioPayload `json:"audio,omitempty"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: text},
	})
}

// SendAudio sends an audio message referencing hosted media.
func (c *Client) SendAudio(ctx context.Context, to, audioURL string) error {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "audio",
		Audio:            &audioPayload{Link: audioURL},
	})
}

func (c *Client) send(ctx context.Context, payload sendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.DeliveryError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var graphErr graphErrorResponse
	respBody, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(respBody, &graphErr)

	deliveryErr := &domain.DeliveryError{
		StatusCode: resp.StatusCode,
		Code:       graphErr.Error.Code,
		Message:    graphErr.Error.Message,
	}
	if deliveryErr.PermissionDenied() {
		c.logger.Warn("Recipient not in allowed list",
			zap.String("to", payload.To),
			zap.String("detail", graphErr.Error.Message))
	} else {
		c.logger.Error("WhatsApp API rejected send",
			zap.String("to", payload.To),
			zap.Int("status", resp.StatusCode),
			zap.Int("code", graphErr.Error.Code),
			zap.String("message", graphErr.Error.Message))
	}
	return deliveryErr
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// DownloadMedia fetches received media. The Graph API requires two steps: a
// lookup by media id that yields a short-lived URL, then an authenticated
// fetch of that URL.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	if mediaID == "" {
		return nil, "", fmt.Errorf("media id is required")
	}

	lookupURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("media lookup returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, "", fmt.Errorf("failed to decode media info: %w", err)
	}
	if info.URL == "" {
		return nil, "", fmt.Errorf("no media URL in lookup response")
	}

	mediaReq, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create media download request: %w", err)
	}
	mediaReq.Header.Set("Authorization", "Bearer "+c.token)

	mediaResp, err := c.httpClient.Do(mediaReq)
	if err != nil {
		return nil, "", fmt.Errorf("media download failed: %w", err)
	}
	defer mediaResp.Body.Close()

	if mediaResp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download returned status %d", mediaResp.StatusCode)
	}

	data, err := io.ReadAll(mediaResp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}

	contentType := mediaResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = info.MimeType
	}

	c.logger.Info("Downloaded media",
		zap.String("media_id", mediaID),
		zap.Int("size", len(data)),
		zap.String("content_type", contentType))

	return data, contentType, nil
}
