// Package mail provides the broker's outbound mail gateway: a
// non-blocking queue in front of an SMTP provider, wrapped in retry and
// circuit-breaker policies so a flaky mail relay degrades gracefully
// instead of stalling task processing.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	domainmail "github.com/felixgeelhaar/gradewatch-queue/domain/mail"
)

// Common errors for mail delivery.
var (
	ErrProviderUnavailable = errors.New("mail provider unavailable")
	ErrDeliveryRejected    = errors.New("mail delivery rejected")
)

// Provider sends a single message synchronously.
type Provider interface {
	Send(ctx context.Context, msg domainmail.Message) error
}

// SMTPConfig configures the SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPProvider sends messages over SMTP using net/smtp.
type SMTPProvider struct {
	cfg SMTPConfig
}

// NewSMTPProvider creates an SMTP-backed provider.
func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

// Send dials the configured relay and sends msg. The context is not
// honored mid-dial: net/smtp has no context-aware API, so the caller's
// retry/circuit-breaker wrapper bounds the blast radius of a hanging
// relay instead.
func (p *SMTPProvider) Send(ctx context.Context, msg domainmail.Message) error {
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}

	body := fmt.Sprintf("Subject: %s\r\n\r\n%s", msg.Subject, msg.Body)
	err := smtp.SendMail(addr, auth, p.cfg.From, []string{msg.To}, []byte(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return nil
}

// MockProvider records sent messages without any network I/O, for
// tests and local development.
type MockProvider struct {
	Sent []domainmail.Message
	// FailNext, if set, is returned by the next Send call and cleared.
	FailNext error
}

// NewMockProvider creates a provider that records every send.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Send records msg, or returns and clears FailNext if set.
func (p *MockProvider) Send(ctx context.Context, msg domainmail.Message) error {
	if p.FailNext != nil {
		err := p.FailNext
		p.FailNext = nil
		return err
	}
	p.Sent = append(p.Sent, msg)
	return nil
}
