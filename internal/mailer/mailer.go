package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
)

// SMTPMailer delivers report emails over plain SMTP.
type SMTPMailer struct {
	cfg config.SMTPConfig

	// overridable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs a mailer. Returns nil when no SMTP host is
// configured; callers treat a nil mailer as "email delivery disabled".
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send delivers a message with an optional attachment.
func (m *SMTPMailer) Send(ctx context.Context, to, subject string, body []byte, attachmentName string, attachment []byte) error {
	if m == nil {
		return fmt.Errorf("smtp not configured")
	}
	to = sanitizeHeader(to)
	if to == "" || !strings.Contains(to, "@") {
		return fmt.Errorf("invalid recipient address")
	}
	from := sanitizeHeader(m.cfg.From)

	msg := &bytes.Buffer{}
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")

	if len(attachment) == 0 {
		msg.WriteString("\r\n")
		msg.Write(body)
	} else {
		const boundary = "report-part-boundary"
		msg.WriteString("MIME-Version: 1.0\r\n")
		msg.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")
		msg.WriteString("--" + boundary + "\r\n")
		msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		msg.Write(body)
		msg.WriteString("\r\n--" + boundary + "\r\n")
		msg.WriteString("Content-Type: text/csv\r\n")
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString("Content-Disposition: attachment; filename=\"" + sanitizeHeader(attachmentName) + "\"\r\n\r\n")
		msg.WriteString(base64.StdEncoding.EncodeToString(attachment))
		msg.WriteString("\r\n--" + boundary + "--\r\n")
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	return m.send(addr, auth, from, []string{to}, msg.Bytes())
}

// sanitizeHeader strips CRLF characters that could be used for header
// injection.
func sanitizeHeader(input string) string {
	sanitized := strings.ReplaceAll(input, "\r", "")
	sanitized = strings.ReplaceAll(sanitized, "\n", "")
	return strings.TrimSpace(sanitized)
}
