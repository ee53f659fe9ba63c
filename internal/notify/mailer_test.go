package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicehub/api/internal/config"
)

func TestNewDegradesWhenUnconfigured(t *testing.T) {
	m := New(config.SMTP{}, zerolog.Nop())
	assert.IsType(t, Disabled{}, m)

	m = New(config.SMTP{Host: "smtp.example.com"}, zerolog.Nop())
	assert.IsType(t, Disabled{}, m, "host alone is not enough")

	m = New(config.SMTP{Host: "smtp.example.com", User: "u", Port: 587}, zerolog.Nop())
	assert.IsType(t, &SMTPMailer{}, m)
}

func TestDisabledShortCircuits(t *testing.T) {
	_, err := Disabled{}.Send(context.Background(), "a@x.com", "subject", "body")
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.EqualError(t, err, "SMTP not configured")
}

func TestSMTPMailerRejectsEmptyRecipient(t *testing.T) {
	m := New(config.SMTP{Host: "smtp.example.com", User: "u", Port: 587}, zerolog.Nop())
	_, err := m.Send(context.Background(), "", "subject", "body")
	require.Error(t, err)
}

func TestSMTPMailerHonorsCancelledContext(t *testing.T) {
	// A cancelled context must fail fast while waiting on the
	// concurrency semaphore, without touching the network.
	mailer := &SMTPMailer{
		cfg: config.SMTP{Host: "smtp.example.com", User: "u", Port: 587},
		log: zerolog.Nop(),
		sem: make(chan struct{}, 1),
	}
	mailer.sem <- struct{}{} // saturate

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mailer.Send(ctx, "a@x.com", "subject", "body")
	require.ErrorIs(t, err, context.Canceled)
}
