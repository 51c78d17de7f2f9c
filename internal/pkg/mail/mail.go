package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipients is returned when To is empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when neither the message nor the sender config names a From address.
	ErrNoSender = errors.New("mail: no sender provided")
	// ErrEmptyBody is returned when both bodies are empty.
	ErrEmptyBody = errors.New("mail: empty body")
)

// Message is a provider-agnostic email payload.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// Tag groups messages on providers that support it.
	Tag string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

func (m Message) sender(fallback string) (string, error) {
	switch {
	case len(m.To) == 0:
		return "", ErrNoRecipients
	case m.TextBody == "" && m.HTMLBody == "":
		return "", ErrEmptyBody
	case m.From != "":
		return m.From, nil
	case fallback != "":
		return fallback, nil
	default:
		return "", ErrNoSender
	}
}
