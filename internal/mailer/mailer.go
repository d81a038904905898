// Package mailer delivers certificate notification emails over SMTP and
// enforces the provider's daily sending ceiling.
package mailer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/certcat/certcat/internal/config"
)

var (
	ErrNotConfigured      = errors.New("smtp is not configured")
	ErrDailyLimitExceeded = errors.New("daily email limit reached, resets at midnight")
)

// Ledger tracks how many emails were sent today. The counter resets when the
// calendar day changes; it lives in memory only, matching the provider's own
// per-day accounting closely enough for the soft cap we apply.
type Ledger struct {
	mu    sync.Mutex
	date  string
	count int
	limit int
}

func NewLedger(limit int) *Ledger {
	if limit <= 0 {
		limit = 500
	}
	return &Ledger{date: today(), limit: limit}
}

func today() string { return time.Now().Format("2006-01-02") }

func (l *Ledger) resetIfNewDay() {
	if d := today(); l.date != d {
		l.date = d
		l.count = 0
	}
}

// CanSend reports whether n more emails fit under today's ceiling.
func (l *Ledger) CanSend(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	return l.limit-l.count >= n
}

// record counts one delivered email. Only successful sends consume capacity.
func (l *Ledger) record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	l.count++
}

// Remaining returns today's unused capacity.
func (l *Ledger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	if r := l.limit - l.count; r > 0 {
		return r
	}
	return 0
}

// Capacity describes today's usage for the dashboard.
type Capacity struct {
	Date      string `json:"date"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

func (l *Ledger) Capacity() Capacity {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfNewDay()
	rem := l.limit - l.count
	if rem < 0 {
		rem = 0
	}
	return Capacity{Date: l.date, Used: l.count, Limit: l.limit, Remaining: rem}
}

// Mailer sends HTML mail through the configured SMTP relay.
type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	senderName string
	ledger     *Ledger
}

func New(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{
		from:       cfg.User,
		senderName: cfg.SenderName,
		ledger:     NewLedger(cfg.DailyLimit),
	}
	if cfg.Host != "" && cfg.User != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

func (m *Mailer) Configured() bool { return m.dialer != nil }

func (m *Mailer) Ledger() *Ledger { return m.ledger }

// Send delivers one HTML email. A successful delivery consumes one slot of
// today's capacity; failures do not.
func (m *Mailer) Send(to, subject, html string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if !m.ledger.CanSend(1) {
		return ErrDailyLimitExceeded
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.senderName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	m.ledger.record()
	return nil
}
