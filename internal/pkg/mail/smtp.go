package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// ErrSMTPHostPortRequired is returned when Host or Port is missing.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// SMTP sends mail with net/smtp.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP constructs an SMTP sender. Auth is PLAIN when credentials are set.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := msg.sender(s.from)
	if err != nil {
		return err
	}

	if err := s.send(s.addr, s.auth, from, msg.To, buildMIME(from, msg)); err != nil {
		return fmt.Errorf("mail: smtp send: %w", err)
	}
	return nil
}

func (s *SMTP) Close() error {
	return nil
}

func buildMIME(from string, msg Message) []byte {
	var sb strings.Builder
	header := func(k, v string) {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v)
		sb.WriteString("\r\n")
	}

	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", msg.Subject)
	header("MIME-Version", "1.0")

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := boundary()
		header("Content-Type", "multipart/alternative; boundary="+boundary)
		sb.WriteString("\r\n")
		for _, part := range [][2]string{{"text/plain", msg.TextBody}, {"text/html", msg.HTMLBody}} {
			fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, part[0], part[1])
		}
		fmt.Fprintf(&sb, "--%s--", boundary)
	case msg.HTMLBody != "":
		header("Content-Type", "text/html; charset=UTF-8")
		sb.WriteString("\r\n")
		sb.WriteString(msg.HTMLBody)
	default:
		header("Content-Type", "text/plain; charset=UTF-8")
		sb.WriteString("\r\n")
		sb.WriteString(msg.TextBody)
	}

	return []byte(sb.String())
}

func boundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "mfacore-boundary"
	}
	return "mfacore-" + hex.EncodeToString(b[:])
}
