package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vidshare/internal/model"
)

// ExpoPushClient sends push notifications through Expo's Push API.
// The mobile app registers its Expo push token with POST /devices.
type ExpoPushClient struct {
	httpClient *http.Client
	endpoint   string
	logger     *zap.Logger
}

// ExpoPushMessage is the payload for Expo's Push API.
type ExpoPushMessage struct {
	To       []string               `json:"to"`
	Title    string                 `json:"title,omitempty"`
	Body     string                 `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Sound    string                 `json:"sound,omitempty"`
	Priority string                 `json:"priority,omitempty"` // "default", "normal", "high"
}

type ExpoPushResponse struct {
	Data []ExpoPushTicket `json:"data"`
}

type ExpoPushTicket struct {
	Status  string `json:"status"` // "ok" or "error"
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"` // "DeviceNotRegistered", "MessageTooBig", ...
	} `json:"details,omitempty"`
}

const expoPushURL = "https://exp.host/--/api/v2/push/send"

func NewExpoPushClient(logger *zap.Logger) *ExpoPushClient {
	return &ExpoPushClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   expoPushURL,
		logger:     logger,
	}
}

// SendToTokens sends one notification to several devices. Tokens that are
// not Expo push tokens are skipped.
func (c *ExpoPushClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) error {
	valid := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if model.IsExpoPushToken(t) {
			valid = append(valid, t)
		} else {
			c.logger.Debug("skipping non-expo push token", zap.Int("len", len(t)))
		}
	}
	if len(valid) == 0 {
		return nil
	}

	payload, err := json.Marshal(ExpoPushMessage{
		To:       valid,
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: "high",
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var pushResp ExpoPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		// Push was accepted; only the receipt is unreadable.
		c.logger.Warn("unreadable expo push response", zap.Error(err))
		return nil
	}

	failed := 0
	for i, ticket := range pushResp.Data {
		if ticket.Status != "ok" {
			failed++
			c.logger.Warn("expo push ticket failed",
				zap.Int("index", i),
				zap.String("message", ticket.Message),
				zap.String("error", ticket.Details.Error),
			)
		}
	}
	c.logger.Info("expo push sent", zap.Int("tokens", len(valid)), zap.Int("failed", failed))
	return nil
}
