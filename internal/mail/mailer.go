// Package mail sends transactional email for account events.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/ramtsps/Art-Academy-Website/internal/config"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a message to its recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail over authenticated SMTP.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer builds a mailer from the configured sender credentials.
func NewSMTPMailer(cfg config.Config) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUsername,
		pass: cfg.SMTPPassword,
		from: cfg.MailFrom,
	}
}

// Send delivers the message. net/smtp has no context support, so ctx is
// accepted for interface symmetry only.
func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if m.host == "" || m.user == "" || m.pass == "" {
		return fmt.Errorf("smtp not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	body := "From: " + m.from + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		msg.HTML + "\r\n"

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
