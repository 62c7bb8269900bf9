package mailer

import (
	"context"
	"errors"
	"mime"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/roomradar/roomradar-backend/pkg/config"
	"github.com/roomradar/roomradar-backend/pkg/logger"
)

func newTestSender(t *testing.T, send sendFunc) *SMTPSender {
	t.Helper()
	sender, err := NewSMTPSender(config.SMTPConfig{
		Host:        "smtp.example.com",
		Port:        "587",
		From:        "alerts@roomradar.jp",
		SendTimeout: time.Second,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	sender.send = send
	return sender
}

func TestSendComposesHTMLMessage(t *testing.T) {
	var captured []byte
	sender := newTestSender(t, func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		captured = msg
		return nil
	})

	err := sender.Send(context.Background(), Email{
		To:       "guest@example.com",
		Subject:  "New room match",
		HTMLBody: "<p>hello</p>",
		Tags:     []string{"digest"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	body := string(captured)
	for _, want := range []string{
		"Subject: New room match",
		"Content-Type: text/html",
		"X-RoomRadar-Tags: digest",
		"<p>hello</p>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected message to contain %q; got:\n%s", want, body)
		}
	}
}

func TestSendEncodesNonASCIISubject(t *testing.T) {
	var captured []byte
	sender := newTestSender(t, func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		captured = msg
		return nil
	})

	subject := "成約: 東京都のお部屋 on 2026-09-05"
	err := sender.Send(context.Background(), Email{
		To:       "guest@example.com",
		Subject:  subject,
		HTMLBody: "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	var header string
	for _, line := range strings.Split(string(captured), "\r\n") {
		if strings.HasPrefix(line, "Subject: ") {
			header = strings.TrimPrefix(line, "Subject: ")
		}
	}
	if header == "" {
		t.Fatalf("no Subject header in message:\n%s", captured)
	}
	if !strings.HasPrefix(header, "=?UTF-8?q?") {
		t.Fatalf("expected RFC 2047 encoded subject, got %q", header)
	}

	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if decoded != subject {
		t.Fatalf("expected subject %q, got %q", subject, decoded)
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	attempts := 0
	sender := newTestSender(t, func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		attempts++
		if attempts < 3 {
			return errors.New("451 temporary failure")
		}
		return nil
	})

	if err := sender.Send(context.Background(), Email{To: "guest@example.com"}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestSendGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	sender := newTestSender(t, func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		attempts++
		return errors.New("connection refused")
	})

	if err := sender.Send(context.Background(), Email{To: "guest@example.com"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestSendTreatsTimeoutAsFailure(t *testing.T) {
	sender := newTestSender(t, func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	sender.sendTimeout = time.Millisecond

	if err := sender.Send(context.Background(), Email{To: "guest@example.com"}); err == nil {
		t.Fatal("expected timeout to surface as an error")
	}
}
