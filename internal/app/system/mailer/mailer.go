// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds SMTP settings. An empty Host disables delivery; messages
// are then written to the log instead, which is what local development wants.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	SiteName string
	// CodeExpiry and LinkExpiry are rendered into messages as human text.
	CodeExpiry time.Duration
	LinkExpiry time.Duration
}

// Email is a multipart text + HTML message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	cfg  Config
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "LearnHub"
	}
	return &Mailer{cfg: cfg, log: logger, send: smtp.SendMail}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers the message. ctx bounds the call only up to the start of
// the SMTP exchange; net/smtp offers no cancellation once connected.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.To == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	if !m.Enabled() {
		m.log.Info("mail delivery disabled, message not sent",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}

	msg, err := m.build(e)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{e.To}, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	m.log.Debug("mail sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) build(e Email) ([]byte, error) {
	var rb [12]byte
	if _, err := rand.Read(rb[:]); err != nil {
		return nil, err
	}
	boundary := "lh-" + hex.EncodeToString(rb[:])

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.cfg.FromName), m.cfg.From)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(crlf(e.TextBody))
	b.WriteString("\r\n")

	if e.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(crlf(e.HTMLBody))
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes(), nil
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

// SendActivation mails the registration code.
func (m *Mailer) SendActivation(ctx context.Context, to, name, otp string) error {
	e := BuildActivationEmail(ActivationEmailData{
		SiteName:  m.cfg.SiteName,
		Name:      name,
		Code:      otp,
		ExpiresIn: humanDuration(m.cfg.CodeExpiry),
	})
	e.To = to
	return m.Send(ctx, e)
}

// SendPasswordReset mails the reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	e := BuildResetEmail(ResetEmailData{
		SiteName:  m.cfg.SiteName,
		Name:      name,
		ResetLink: resetURL,
		ExpiresIn: humanDuration(m.cfg.LinkExpiry),
	})
	e.To = to
	return m.Send(ctx, e)
}

// humanDuration renders whole minutes ("5 minutes"), falling back to
// Duration.String for anything else.
func humanDuration(d time.Duration) string {
	if d <= 0 {
		d = 5 * time.Minute
	}
	if d%time.Minute == 0 {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	return d.String()
}
