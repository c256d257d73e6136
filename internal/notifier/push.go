package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
)

var (
	ErrNoEndpoint  = errors.New("push endpoint is not configured")
	ErrNoRecipient = errors.New("push message has no recipient token")
)

type pushPayload struct {
	To           string           `json:"to"`
	Notification pushNotification `json:"notification"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PushClient posts messages to an FCM-style HTTP push gateway.
type PushClient struct {
	endpoint   string
	apiKey     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

func NewPushClient(endpoint, apiKey string) *PushClient {
	return &PushClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: constants.NotifyMaxRetries,
		retryDelay: constants.NotifyRetryDelay,
	}
}

// Send posts the message, retrying transport errors and 5xx responses.
func (p *PushClient) Send(ctx context.Context, msg Message) error {
	if p.endpoint == "" {
		return ErrNoEndpoint
	}
	if msg.To == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(pushPayload{
		To:           msg.To,
		Notification: pushNotification{Title: msg.Title, Body: msg.Body},
	})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		retry, err := p.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == p.maxRetries {
			break
		}
		logger.Debug("Push delivery failed, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.retryDelay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("push delivery failed: %w", lastErr)
}

// post makes one attempt and reports whether a failure is worth retrying.
func (p *PushClient) post(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "key="+p.apiKey)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return false, nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	err = fmt.Errorf("gateway returned status %d: %s", res.StatusCode, bytes.TrimSpace(respBody))
	return res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests, err
}
