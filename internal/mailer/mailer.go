// Package mailer delivers verification and password-reset codes over SMTP.
// When SMTP is not fully configured the code is logged instead of sent, so
// signup keeps working on local setups without a mail account.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminalearn/lumina-backend/internal/config"
)

// Mailer sends transactional account mail.
type Mailer struct {
	cfg *config.Config
	log zerolog.Logger

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config, log zerolog.Logger) *Mailer {
	return &Mailer{
		cfg:  cfg,
		log:  log.With().Str("component", "mailer").Logger(),
		send: smtp.SendMail,
	}
}

// Enabled reports whether SMTP delivery is fully configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.SMTPHost != "" && m.cfg.SMTPPort > 0 &&
		m.cfg.SMTPUser != "" && m.cfg.SMTPPass != ""
}

// SendVerificationCode mails a signup verification code.
func (m *Mailer) SendVerificationCode(to, code string) error {
	body := fmt.Sprintf(
		"Hi,\n\nUse the code %s to verify your Lumina account. This code expires in %d minutes.\n\nIf you did not request this, please ignore this email.\n",
		code, int(m.cfg.VerifyCodeTTL/time.Minute))
	return m.deliver(to, "Your Lumina verification code", body, code)
}

// SendResetCode mails a password reset code.
func (m *Mailer) SendResetCode(to, code string) error {
	body := fmt.Sprintf(
		"Hi,\n\nUse the code %s to reset your password. This code expires in %d minutes.\n\nIf you did not request this, please ignore this email.\n",
		code, int(m.cfg.ResetCodeTTL/time.Minute))
	return m.deliver(to, "Your Lumina password reset code", body, code)
}

func (m *Mailer) deliver(to, subject, body, code string) error {
	if !m.Enabled() {
		m.log.Warn().
			Str("to", to).
			Str("code", code).
			Msg("SMTP not configured; logging code instead of sending")
		return nil
	}

	from := m.cfg.SMTPFrom
	if from == "" {
		from = m.cfg.SMTPUser
	}

	msg := buildMessage(from, to, subject, body)
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)

	if err := m.send(addr, auth, from, []string{to}, msg); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("Mail delivery failed")
		return fmt.Errorf("send mail: %w", err)
	}

	m.log.Info().Str("to", to).Str("subject", subject).Msg("Mail sent")
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Lumina <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
