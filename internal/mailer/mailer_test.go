package mailer

import (
	"context"
	"encoding/base64"
	"net/smtp"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func newCapturingMailer(t *testing.T) (*SMTPMailer, *capturedMail) {
	t.Helper()
	m := NewSMTPMailer(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: "587",
		From: "reports@example.com",
	})
	if m == nil {
		t.Fatal("mailer unexpectedly disabled")
	}
	captured := &capturedMail{}
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = msg
		return nil
	}
	return m, captured
}

func TestNewSMTPMailer_DisabledWithoutHost(t *testing.T) {
	if m := NewSMTPMailer(config.SMTPConfig{}); m != nil {
		t.Fatal("mailer must be nil without a host")
	}
}

func TestSend_PlainBody(t *testing.T) {
	m, captured := newCapturingMailer(t)

	err := m.Send(context.Background(), "sup@example.com", "weekly report", []byte("see dashboard"), "", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if captured.addr != "smtp.example.com:587" {
		t.Fatalf("addr = %s", captured.addr)
	}
	if len(captured.to) != 1 || captured.to[0] != "sup@example.com" {
		t.Fatalf("to = %v", captured.to)
	}
	out := string(captured.msg)
	if !strings.Contains(out, "Subject: weekly report\r\n") {
		t.Fatalf("message missing subject:\n%s", out)
	}
	if strings.Contains(out, "multipart/mixed") {
		t.Fatal("plain message must not be multipart")
	}
}

func TestSend_AttachmentEncodedBase64(t *testing.T) {
	m, captured := newCapturingMailer(t)
	attachment := []byte("status,count\nRESOLVED,2\n")

	err := m.Send(context.Background(), "sup@example.com", "report", []byte("attached"), "agent-report.csv", attachment)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	out := string(captured.msg)
	if !strings.Contains(out, "Content-Type: multipart/mixed") {
		t.Fatalf("message not multipart:\n%s", out)
	}
	if !strings.Contains(out, `filename="agent-report.csv"`) {
		t.Fatalf("message missing attachment name:\n%s", out)
	}
	if !strings.Contains(out, base64.StdEncoding.EncodeToString(attachment)) {
		t.Fatal("attachment not base64 encoded in body")
	}
}

func TestSend_HeaderInjectionStripped(t *testing.T) {
	m, captured := newCapturingMailer(t)

	err := m.Send(context.Background(), "sup@example.com", "report\r\nBcc: attacker@example.com", []byte("hi"), "", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	out := string(captured.msg)
	if strings.Contains(out, "\r\nBcc:") {
		t.Fatalf("injected header survived on its own line:\n%s", out)
	}
	if !strings.Contains(out, "Subject: reportBcc: attacker@example.com\r\n") {
		t.Fatalf("subject not collapsed to a single line:\n%s", out)
	}
}

func TestSend_InvalidRecipient(t *testing.T) {
	m, _ := newCapturingMailer(t)

	if err := m.Send(context.Background(), "not-an-address", "report", []byte("hi"), "", nil); err == nil {
		t.Fatal("expected invalid recipient error")
	}
}

func TestSend_NilMailer(t *testing.T) {
	var m *SMTPMailer
	if err := m.Send(context.Background(), "sup@example.com", "report", nil, "", nil); err == nil {
		t.Fatal("nil mailer must error")
	}
}
