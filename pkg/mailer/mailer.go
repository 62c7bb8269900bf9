package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/roomradar/roomradar-backend/pkg/config"
	"github.com/roomradar/roomradar-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// Email is one outbound message handed to the SMTP relay.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	Tags     []string
}

// Sender is the delivery surface the dispatcher depends on.
type Sender interface {
	Send(ctx context.Context, mail Email) error
}

// RetryPolicy bounds transient resend attempts: MaxAttempts total tries with
// exponential backoff starting at Base, capped at Cap.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.Base
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	b := retry.NewExponential(base)
	if p.Cap > 0 {
		b = retry.WithCappedDuration(p.Cap, b)
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers HTML email over SMTP with a per-attempt timeout and the
// shared retry policy.
type SMTPSender struct {
	host        string
	port        string
	from        string
	password    string
	sendTimeout time.Duration
	policy      RetryPolicy
	logg        *logger.Logger
	send        sendFunc
}

// NewSMTPSender builds a sender from SMTP configuration.
func NewSMTPSender(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPSender{
		host:        cfg.Host,
		port:        cfg.Port,
		from:        cfg.From,
		password:    cfg.Password,
		sendTimeout: timeout,
		policy: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Base:        cfg.BaseBackoff,
			Cap:         cfg.MaxBackoff,
		},
		logg: logg,
		send: smtp.SendMail,
	}, nil
}

// Send delivers the email, retrying transient failures per the policy. A
// timed-out attempt counts as a failed attempt.
func (s *SMTPSender) Send(ctx context.Context, mail Email) error {
	if mail.To == "" {
		return fmt.Errorf("recipient required")
	}
	err := retry.Do(ctx, s.policy.backoff(), func(ctx context.Context) error {
		if err := s.attempt(ctx, mail); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("smtp send to %s: %w", mail.To, err)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"recipient": mail.To,
			"subject":   mail.Subject,
		})
		s.logg.Info(logCtx, "email sent")
	}
	return nil
}

func (s *SMTPSender) attempt(ctx context.Context, mail Email) error {
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	message := s.compose(mail)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.from, []string{mail.To}, message)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send timed out: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

func (s *SMTPSender) compose(mail Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: RoomRadar <%s>\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", mail.To)
	// Subjects carry hotel names, so non-ASCII needs RFC 2047 encoding.
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", mail.Subject))
	if len(mail.Tags) > 0 {
		fmt.Fprintf(&b, "X-RoomRadar-Tags: %s\r\n", strings.Join(mail.Tags, ","))
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(mail.HTMLBody)
	return []byte(b.String())
}
