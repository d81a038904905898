package mailer

import (
	"strings"
	"testing"

	"github.com/certcat/certcat/internal/config"
)

func TestLedgerCapacity(t *testing.T) {
	l := NewLedger(3)
	if !l.CanSend(3) {
		t.Error("fresh ledger cannot fit its full limit")
	}
	if l.CanSend(4) {
		t.Error("ledger accepted more than its limit")
	}

	l.record()
	l.record()
	if got := l.Remaining(); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
	if !l.CanSend(1) || l.CanSend(2) {
		t.Error("capacity check wrong near the ceiling")
	}

	l.record()
	if l.CanSend(1) {
		t.Error("exhausted ledger still accepts sends")
	}
	if got := l.Remaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestLedgerResetsOnNewDay(t *testing.T) {
	l := NewLedger(2)
	l.record()
	l.record()
	if l.CanSend(1) {
		t.Fatal("ledger should be exhausted")
	}

	l.date = "2000-01-01" // simulate a stale day
	if !l.CanSend(2) {
		t.Error("ledger did not reset on day change")
	}
	if c := l.Capacity(); c.Used != 0 {
		t.Errorf("used = %d after reset, want 0", c.Used)
	}
}

func TestSendUnconfigured(t *testing.T) {
	m := New(config.SMTPConfig{DailyLimit: 10})
	if err := m.Send("x@example.com", "s", "<p>b</p>"); err != ErrNotConfigured {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSendOverLimit(t *testing.T) {
	m := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "u@example.com", DailyLimit: 1})
	m.ledger.record()
	if err := m.Send("x@example.com", "s", "<p>b</p>"); err != ErrDailyLimitExceeded {
		t.Errorf("err = %v, want ErrDailyLimitExceeded", err)
	}
}

func TestBuildCertificateEmail(t *testing.T) {
	subject, html, err := BuildCertificateEmail(CertificateEmailData{
		Name:            "Jane Doe",
		EventName:       "Go Conference 2026",
		CertificateID:   "abc-123",
		VerificationURL: "https://example.com/verify/abc-123",
		OrganizerName:   "Acme Events",
		CustomMessage:   "Great job!",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(subject, "Go Conference 2026") {
		t.Errorf("subject %q missing event name", subject)
	}
	for _, want := range []string{"Jane Doe", "abc-123", "https://example.com/verify/abc-123", "Acme Events", "Great job!"} {
		if !strings.Contains(html, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestBuildCertificateEmailEscapesMessage(t *testing.T) {
	_, html, err := BuildCertificateEmail(CertificateEmailData{
		Name:          "A",
		EventName:     "E",
		CustomMessage: `<script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("custom message was not escaped")
	}
}

func TestBuildCertificateEmailOmitsEmptyMessage(t *testing.T) {
	_, html, err := BuildCertificateEmail(CertificateEmailData{Name: "A", EventName: "E"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "💬") {
		t.Error("empty custom message still rendered its block")
	}
}
