package model

import (
	"time"
)

// Certificate is one resolved instance of a Template for a single recipient.
// Text placeholders are already substituted and the QR element carries the
// per-certificate verification URL. Immutable after creation except deletion.
type Certificate struct {
	ID              string      `db:"id"               json:"certificate_id"`
	RecipientName   string      `db:"recipient_name"   json:"name"`
	RecipientEmail  string      `db:"recipient_email"  json:"email"`
	EventName       string      `db:"event_name"       json:"event_name"`
	Organizer       string      `db:"organizer"        json:"organizer"`
	OrganizerEmail  string      `db:"organizer_email"  json:"organizer_email"`
	TemplateURL     string      `db:"template_url"     json:"template_url"`
	Elements        ElementList `db:"elements"         json:"elements"`
	VerificationURL string      `db:"verification_url" json:"verification_url"`
	CustomMessage   string      `db:"custom_message"   json:"custom_message,omitempty"`
	IsTest          bool        `db:"is_test"          json:"is_test,omitempty"`
	ExpiresAt       *time.Time  `db:"expires_at"       json:"expires_at,omitempty"`
	IssuedAt        time.Time   `db:"issued_at"        json:"issued_at"`
}

// Expired reports whether a test certificate has passed its expiry.
// Regular certificates never expire.
func (c *Certificate) Expired() bool {
	return c.IsTest && c.ExpiresAt != nil && c.ExpiresAt.Before(time.Now())
}

// FileName is the download filename convention for the exported PDF.
func (c *Certificate) FileName() string {
	return c.RecipientName + "-" + c.EventName + "-Certificate.pdf"
}

// Recipient is one already-parsed CSV row. CSV parsing happens upstream;
// the core only sees name/email pairs.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GenerateRequest struct {
	TemplateID    string      `json:"template_id"`
	EventName     string      `json:"event_name"`
	OrganizerName string      `json:"organizer_name"`
	CustomMessage string      `json:"custom_message"`
	Recipients    []Recipient `json:"recipients"`
}

// GenerateResult reports partial-success counts for a bulk run. Persistence
// and email delivery succeed or fail independently.
type GenerateResult struct {
	Created           int                 `json:"created"`
	EmailsSent        int                 `json:"emails_sent"`
	EmailsFailed      int                 `json:"emails_failed"`
	Errors            []EmailError        `json:"errors,omitempty"`
	RemainingCapacity int                 `json:"remaining_capacity"`
	Certificates      []IssuedCertificate `json:"certificates"`
}

type EmailError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type IssuedCertificate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	VerificationURL string `json:"verification_url"`
}

type TestCertificateRequest struct {
	TemplateID    string `json:"template_id"`
	EventName     string `json:"event_name"`
	OrganizerName string `json:"organizer_name"`
	TestName      string `json:"test_name"`
}

// VerifyResponse is the public verification endpoint payload.
type VerifyResponse struct {
	IsValid     bool         `json:"is_valid"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Message     string       `json:"message"`
}
