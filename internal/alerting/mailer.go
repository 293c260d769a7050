// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerting

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/loglens/internal/config"
)

// ErrNoRecipient is returned when neither the rule nor the configuration
// names a recipient.
var ErrNoRecipient = errors.New("no alert recipient configured")

// ErrMailDisabled is returned by a mailer without an SMTP host.
var ErrMailDisabled = errors.New("smtp host not configured")

// Sender delivers an alert notification.
type Sender interface {
	SendAlert(ctx context.Context, subject, body, to string) error
}

// LogSender records alerts in the log instead of mailing them. It is used
// when no SMTP host is configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender writing to logger.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "alert-log").Logger()}
}

// SendAlert implements Sender.
func (l *LogSender) SendAlert(_ context.Context, subject, body, to string) error {
	l.logger.Warn().
		Str("subject", subject).
		Str("recipient", to).
		Str("body", body).
		Msg("Alert fired (mail disabled)")
	return nil
}

// SMTPMailer sends plain-text mail over SMTP. Sends are rate limited so a
// burst of firing rules cannot flood the relay.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	limiter *rate.Limiter
	timeout time.Duration
}

// NewSMTPMailer creates a mailer allowing sendsPerMinute messages per
// minute with a burst of the same size.
func NewSMTPMailer(cfg config.SMTPConfig, sendsPerMinute int) *SMTPMailer {
	if sendsPerMinute <= 0 {
		sendsPerMinute = 30
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailer{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(sendsPerMinute)), sendsPerMinute),
		timeout: timeout,
	}
}

// SendAlert implements Sender.
func (m *SMTPMailer) SendAlert(ctx context.Context, subject, body, to string) error {
	if m.cfg.Host == "" {
		return ErrMailDisabled
	}
	if to == "" {
		return ErrNoRecipient
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("alert send rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	return m.sendSMTP(ctx, to, buildMessage(m.cfg.From, to, subject, body, time.Now()))
}

// buildMessage constructs a plain-text message with headers.
func buildMessage(from, to, subject, body string, now time.Time) string {
	var msg strings.Builder

	fmt.Fprintf(&msg, "From: Loglens <%s>\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", now.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return msg.String()
}

// sanitizeHeader strips line breaks so user-supplied rule names cannot
// inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// sendSMTP sends the email via SMTP.
func (m *SMTPMailer) sendSMTP(ctx context.Context, to, msg string) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // Best effort cleanup

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if m.cfg.StartTLS {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once Data is closed; a failed QUIT is ignored.
	_ = client.Quit()
	return nil
}
