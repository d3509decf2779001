package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"gestops/internal/config"
	"gestops/internal/logger"
)

// SMTPMailer sends transactional mail over plain SMTP.
type SMTPMailer struct {
	cfg *config.Config
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendWelcome(to, name, initialPassword string) error {
	subject := "Your account is ready"
	body := fmt.Sprintf(
		"Hello %s,\n\nAn account has been created for you.\n\nEmail: %s\nInitial password: %s\n\nPlease change your password after your first login.\n",
		name, to, initialPassword)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) SendPasswordReset(to, name, resetToken string) error {
	subject := "Password reset"
	link := strings.TrimRight(m.cfg.FrontendURL, "/") + "/reset-password?token=" + resetToken
	body := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account. Follow the link below within one hour:\n\n%s\n\nIf you did not request this, ignore this message.\n",
		name, link)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	msg := strings.Join([]string{
		"From: " + m.cfg.MailFrom,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.MailFrom, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs mail instead of sending it. Used in development and tests
// when no SMTP host is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendWelcome(to, name, initialPassword string) error {
	logger.Get().Infow("welcome mail (not sent, no SMTP host configured)",
		"to", to,
		"name", name)
	return nil
}

func (m *LogMailer) SendPasswordReset(to, name, resetToken string) error {
	logger.Get().Infow("password reset mail (not sent, no SMTP host configured)",
		"to", to,
		"name", name)
	return nil
}
