package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrSendFailed covers every gateway outcome that is not a confirmed send,
// including timeouts.
var ErrSendFailed = errors.New("sms send failed")

// SMSClient talks to the external SMS gateway. One blocking call per message,
// no retries; callers bound each call with sendTimeout.
type SMSClient struct {
	baseURL     string
	sendTimeout time.Duration
	client      *http.Client
}

type smsRequest struct {
	Receiver string `json:"receiver"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
}

func NewSMSClient(baseURL string, sendTimeout time.Duration) *SMSClient {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &SMSClient{
		baseURL:     baseURL,
		sendTimeout: sendTimeout,
		client:      &http.Client{Timeout: sendTimeout},
	}
}

// Send delivers one message. A hung gateway is cut off by the per-call
// deadline and reported as ErrSendFailed.
func (c *SMSClient) Send(ctx context.Context, to, sender, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	body, err := json.Marshal(smsRequest{Receiver: to, Sender: sender, Text: text})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	url := fmt.Sprintf("%s/api/sms/send", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: gateway status %d, body: %s", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	return nil
}
