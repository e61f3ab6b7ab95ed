package mail

import (
	"fmt"

	"dpstore/config"
	"dpstore/logger"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail over SMTP. Sending is best-effort:
// callers log failures and continue.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a mailer from config. Returns nil when no SMTP host
// is configured; a nil Mailer silently drops mail.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP not configured, outgoing mail disabled")
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
	}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// SendWelcome sends the post-registration welcome note.
func (m *Mailer) SendWelcome(to, username string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account has been created. Browse the catalog and pick a subscription package to unlock downloads.\n", username)
	return m.Send(to, "Welcome to the store", body)
}
