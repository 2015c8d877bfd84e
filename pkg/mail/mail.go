// Package mail sends plain or HTML email.
//
// Usage:
//
//	m := mail.Default()
//	err := m.Send(ctx, mail.Message{
//	    To:      []string{"asha@example.com"},
//	    Subject: "Order #42 received",
//	    Body:    html,
//	    HTML:    true,
//	})
//
// Default returns an SMTP mailer when MAIL_USERNAME is configured and a
// mailer that only logs otherwise.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// ─── Message ─────────────────────────────────────────────────────────────────

// Message is one outgoing email.
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	HTML    bool
}

// Render executes tmpl with data into a string body.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Default picks a mailer from configuration.
func Default() Mailer {
	cfg := ConfigFromEnv()
	if cfg.Username == "" {
		return LogMailer{}
	}
	return NewSMTP(cfg)
}

// ─── Log driver ──────────────────────────────────────────────────────────────

// LogMailer writes the message to the application log instead of sending it.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	logger.WithCtx(ctx).Info("mail",
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"bytes", len(msg.Body),
	)
	return nil
}

// ─── SMTP driver ─────────────────────────────────────────────────────────────

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// ConfigFromEnv reads the MAIL_* keys.
func ConfigFromEnv() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", "localhost"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "orders@storefront.local"),
		FromName: config.Get("MAIL_FROM_NAME", "Storefront"),
	}
}

// SMTPMailer sends through an SMTP relay. Port 465 uses implicit TLS; other
// ports rely on STARTTLS negotiated by net/smtp.
type SMTPMailer struct {
	cfg SMTP
}

func NewSMTP(cfg SMTP) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := m.cfg
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	rcpt := append(append([]string(nil), msg.To...), msg.CC...)
	raw := buildRaw(fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From), msg)

	if cfg.Port == "465" {
		return sendTLS(ctx, addr, cfg.Host, auth, cfg.From, rcpt, raw)
	}
	return smtp.SendMail(addr, auth, cfg.From, rcpt, raw)
}

func sendTLS(ctx context.Context, addr, host string, auth smtp.Auth, from string, to []string, raw []byte) error {
	d := tls.Dialer{Config: &tls.Config{ServerName: host}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Quit() //nolint:errcheck

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func buildRaw(from string, msg Message) []byte {
	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	if len(msg.CC) > 0 {
		b.WriteString("Cc: " + strings.Join(msg.CC, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
