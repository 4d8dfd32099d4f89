package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/zenon0777/payever-backend-assessment/internal/config"
	pkglog "github.com/zenon0777/payever-backend-assessment/pkg/log"
)

const (
	welcomeSubject = "Welcome!"
	welcomeBody    = "Your account has been created."
)

// Sender delivers user-facing notifications.
type Sender interface {
	SendWelcome(ctx context.Context, email string) error
}

// New returns an SMTP sender, or a LogSender when no mail host is configured.
func New(cfg config.MailConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	cfg     config.MailConfig
	timeout time.Duration
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, timeout: 10 * time.Second}
}

// SendWelcome sends the account-created message to email.
func (s *SMTPSender) SendWelcome(ctx context.Context, email string) error {
	msg, err := s.welcomeMessage(email)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	return nil
}

func (s *SMTPSender) welcomeMessage(email string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(welcomeSubject)
	msg.SetBodyString(mail.TypeTextPlain, welcomeBody)
	return msg, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.timeout),
	}
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// LogSender writes notifications to the log instead of sending them.
type LogSender struct{}

func (LogSender) SendWelcome(ctx context.Context, email string) error {
	l := pkglog.Ctx(ctx)
	l.Info().
		Str(pkglog.FieldEmail, email).
		Str("subject", welcomeSubject).
		Msg("mail host not configured, welcome email logged only")
	return nil
}
