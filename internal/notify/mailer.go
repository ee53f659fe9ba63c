// Package notify delivers transactional email through an SMTP relay.
//
// The Mailer is injected into the service layer so tests can substitute a
// fake; when the relay is not configured the constructor degrades to a
// no-op implementation and the rest of the system keeps working.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/practicehub/api/internal/config"
)

// ErrNotConfigured is returned by the disabled mailer without any network
// activity.
var ErrNotConfigured = errors.New("SMTP not configured")

// Transport-level bounds. A send can hold a request open for at most this
// long when the relay is unreachable.
const sendTimeout = 15 * time.Second

// maxConcurrentSends caps simultaneous relay connections to respect
// provider rate limits.
const maxConcurrentSends = 3

// Mailer sends a single plain-text message. Delivery failures are returned
// to the caller for logging and must never fail the triggering operation.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (messageID string, err error)
}

// New builds the process-wide Mailer from relay configuration, degrading
// to the disabled implementation when host or user is unset.
func New(cfg config.SMTP, log zerolog.Logger) Mailer {
	if !cfg.Configured() {
		log.Info().Msg("SMTP not configured, email notifications disabled")
		return Disabled{}
	}
	return &SMTPMailer{
		cfg: cfg,
		log: log,
		sem: make(chan struct{}, maxConcurrentSends),
	}
}

// Disabled is the no-op Mailer used when relay credentials are absent.
type Disabled struct{}

// Send short-circuits with ErrNotConfigured.
func (Disabled) Send(context.Context, string, string, string) (string, error) {
	return "", ErrNotConfigured
}

// SMTPMailer delivers mail through the configured relay.
type SMTPMailer struct {
	cfg config.SMTP
	log zerolog.Logger
	sem chan struct{}
}

// Send attempts one delivery, bounded by sendTimeout and the concurrency
// cap. On success it returns the generated Message-ID.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) (string, error) {
	if to == "" {
		return "", errors.New("empty recipient")
	}

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(sendTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
	}
	if m.cfg.SkipVerify {
		opts = append(opts, mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true})) //nolint:gosec
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}

	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), m.cfg.Host)
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.FromAddress()); err != nil {
		return "", fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return "", fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.SetMessageIDWithValue(messageID)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("send to %s: %w", to, err)
	}

	m.log.Info().Str("to", to).Str("message_id", messageID).Msg("email sent")
	return messageID, nil
}
