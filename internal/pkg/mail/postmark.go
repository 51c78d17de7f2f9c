package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

// ErrPostmarkTokenRequired is returned when the server token is missing.
var ErrPostmarkTokenRequired = errors.New("mail: postmark server token is required")

// PostmarkConfig configures the Postmark sender.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	From         string
	// BaseURL overrides the API endpoint.
	BaseURL string
}

type postmarkSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Postmark sends mail through the Postmark transactional API.
type Postmark struct {
	client postmarkSender
	from   string
}

// NewPostmark constructs a Postmark sender.
func NewPostmark(cfg PostmarkConfig) (*Postmark, error) {
	if cfg.ServerToken == "" {
		return nil, ErrPostmarkTokenRequired
	}

	client := postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return &Postmark{client: client, from: cfg.From}, nil
}

func (p *Postmark) Send(ctx context.Context, msg Message) error {
	from, err := msg.sender(p.from)
	if err != nil {
		return err
	}

	res, err := p.client.SendEmail(ctx, postmark.Email{
		From:     from,
		To:       strings.Join(msg.To, ","),
		Subject:  msg.Subject,
		Tag:      msg.Tag,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		return fmt.Errorf("mail: postmark send: %w", err)
	}
	if res.ErrorCode > 0 {
		return fmt.Errorf("mail: postmark error %d: %s", res.ErrorCode, res.Message)
	}
	return nil
}

func (p *Postmark) Close() error {
	return nil
}
