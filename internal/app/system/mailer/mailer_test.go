package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturing(cfg Config) (*Mailer, *captured) {
	m := New(cfg, zap.NewNop())
	c := &captured{}
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.from, c.to, c.msg = addr, from, to, string(msg)
		return nil
	}
	return m, c
}

func TestSend_DisabledWithoutHost(t *testing.T) {
	m, c := newCapturing(Config{})
	if err := m.Send(context.Background(), Email{To: "a@x.com", Subject: "hi", TextBody: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if c.addr != "" {
		t.Error("expected no SMTP delivery when host is empty")
	}
}

func TestSend_EmptyRecipient(t *testing.T) {
	m, _ := newCapturing(Config{Host: "localhost", Port: 1025})
	if err := m.Send(context.Background(), Email{}); err == nil {
		t.Error("expected error for empty recipient")
	}
}

func TestSend_CanceledContext(t *testing.T) {
	m, c := newCapturing(Config{Host: "localhost", Port: 1025})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, Email{To: "a@x.com"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.addr != "" {
		t.Error("expected nothing sent")
	}
}

func TestSendActivation(t *testing.T) {
	m, c := newCapturing(Config{
		Host:       "localhost",
		Port:       1025,
		From:       "noreply@learnhub.test",
		FromName:   "LearnHub",
		CodeExpiry: 5 * time.Minute,
	})

	if err := m.SendActivation(context.Background(), "a@x.com", "Alice", "123456"); err != nil {
		t.Fatalf("SendActivation: %v", err)
	}
	if c.addr != "localhost:1025" {
		t.Errorf("addr: got %q", c.addr)
	}
	if len(c.to) != 1 || c.to[0] != "a@x.com" {
		t.Errorf("to: got %v", c.to)
	}
	for _, want := range []string{"123456", "5 minutes", "multipart/alternative", "text/html"} {
		if !strings.Contains(c.msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendPasswordReset(t *testing.T) {
	m, c := newCapturing(Config{Host: "smtp.example.com", Port: 587, From: "noreply@learnhub.test"})
	link := "https://learn.example.com/reset-password?token=abc"

	if err := m.SendPasswordReset(context.Background(), "a@x.com", "Alice", link); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	if !strings.Contains(c.msg, link) {
		t.Error("expected reset link in message")
	}
}

func TestSend_Error(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1025}, nil)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	if err := m.Send(context.Background(), Email{To: "a@x.com"}); err == nil {
		t.Error("expected send error")
	}
}

func TestBuildActivationEmail_EscapesName(t *testing.T) {
	e := BuildActivationEmail(ActivationEmailData{SiteName: "LearnHub", Name: "<script>", Code: "1"})
	if strings.Contains(e.HTMLBody, "<script>") {
		t.Error("expected name to be escaped in HTML body")
	}
}

func TestHumanDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                "5 minutes",
		time.Minute:      "1 minute",
		10 * time.Minute: "10 minutes",
		90 * time.Second: "1m30s",
	}
	for d, want := range tests {
		if got := humanDuration(d); got != want {
			t.Errorf("humanDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
