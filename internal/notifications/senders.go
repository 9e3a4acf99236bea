package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"bakehub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"
)

// DefaultExpoPushURL is the Expo push service endpoint.
const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// PushMessage is a mobile push notification.
type PushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
	Sound string         `json:"sound,omitempty"`
}

// Email is a plain-text message.
type Email struct {
	To      []string
	Subject string
	Body    string
}

// PushSender delivers push notifications.
type PushSender interface {
	SendPush(ctx context.Context, msg PushMessage) error
}

// Mailer delivers email.
type Mailer interface {
	SendEmail(ctx context.Context, msg Email) error
}

// ExpoPushSender posts messages to the Expo push API.
type ExpoPushSender struct {
	url     string
	timeout time.Duration
}

func NewExpoPushSender(url string, timeout time.Duration) *ExpoPushSender {
	if url == "" {
		url = DefaultExpoPushURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExpoPushSender{url: url, timeout: timeout}
}

func (s *ExpoPushSender) SendPush(_ context.Context, msg PushMessage) error {
	if msg.Sound == "" {
		msg.Sound = "default"
	}
	agent := fiber.Post(s.url)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.JSON(msg)
	agent.Timeout(s.timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("expo push to %s: %w", msg.To, multierr.Combine(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("expo push to %s: status %d: %s", msg.To, code, strings.TrimSpace(string(body)))
	}
	return nil
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) SendEmail(_ context.Context, msg Email) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email %q has no recipients", msg.Subject)
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, msg.To, m.compose(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no push or mail transport is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendPush(ctx context.Context, msg PushMessage) error {
	s.log.Info(s.log.WithFields(ctx, map[string]any{"push_to": msg.To, "title": msg.Title}), "push notification (not delivered)")
	return nil
}

func (s *LogSender) SendEmail(ctx context.Context, msg Email) error {
	s.log.Info(s.log.WithFields(ctx, map[string]any{"email_to": msg.To, "subject": msg.Subject}), "email (not delivered)")
	return nil
}
