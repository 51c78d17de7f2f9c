package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultSMSLocalURL is the SMS Local bulk endpoint.
	DefaultSMSLocalURL = "https://www.smslocal.com/dev/bulkV2"

	defaultTimeout = 15 * time.Second
)

// SMSLocalConfig configures the SMS Local client.
type SMSLocalConfig struct {
	APIKey  string
	BaseURL string
	Sender  string
	Timeout time.Duration
}

// SMSLocal sends OTP messages through the SMS Local HTTP API on the otp route.
type SMSLocal struct {
	apiKey  string
	baseURL string
	sender  string
	client  *http.Client
}

type smsLocalRequest struct {
	Route     string `json:"route"`
	Numbers   string `json:"numbers"`
	Variables string `json:"variables"`
	SenderID  string `json:"sender_id,omitempty"`
}

// NewSMSLocal returns an SMS Local client.
func NewSMSLocal(cfg SMSLocalConfig) (*SMSLocal, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSMSLocalURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &SMSLocal{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		sender:  cfg.Sender,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// SendOTP posts the code to phone. The leading "+" of an E.164 number is
// stripped because the provider expects digits only.
func (c *SMSLocal) SendOTP(ctx context.Context, phone, code string) error {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if phone == "" {
		return ErrEmptyNumber
	}

	raw, err := json.Marshal(smsLocalRequest{
		Route:     "otp",
		Numbers:   phone,
		Variables: code,
		SenderID:  c.sender,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: smslocal request: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// StatusError is returned for non-200 provider responses. The response body
// is discarded: the provider may echo the message variables.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sms: request failed status=%d", e.Code)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}
