package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/certcat/certcat/internal/mailer"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/render/pdfexport"
	"github.com/certcat/certcat/internal/render/preview"
	"github.com/certcat/certcat/internal/repository"
	"github.com/certcat/certcat/internal/utils"
)

var (
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrNoRecipients         = errors.New("no valid recipients")
	ErrInsufficientCapacity = errors.New("today's email capacity cannot cover this batch")
)

// emailThrottle paces bulk notification sends so the SMTP relay is never
// burst-flooded.
const emailThrottle = 200 * time.Millisecond

// testCertificateTTL bounds how long a test certificate stays verifiable.
const testCertificateTTL = time.Hour

type CertificateService interface {
	Generate(ctx context.Context, req model.GenerateRequest, organizer utils.Identity) (*model.GenerateResult, error)
	GenerateTest(ctx context.Context, req model.TestCertificateRequest, organizer utils.Identity) (*model.Certificate, error)
	Verify(ctx context.Context, id string) (*model.VerifyResponse, error)
	ListByOrganizer(ctx context.Context, organizerEmail string) ([]*model.Certificate, error)
	Delete(ctx context.Context, id, organizerEmail string) error
	DownloadPDF(ctx context.Context, id string) ([]byte, string, error)
	PreviewPNG(ctx context.Context, id string, width int) ([]byte, error)
	Capacity() mailer.Capacity
}

type certificateService struct {
	repo      repository.CertificateRepository
	templates TemplateService
	mail      *mailer.Mailer
	exporter  *pdfexport.Exporter
	previewer *preview.Renderer
	baseURL   string
}

func NewCertificateService(
	repo repository.CertificateRepository,
	templates TemplateService,
	mail *mailer.Mailer,
	exporter *pdfexport.Exporter,
	previewer *preview.Renderer,
	baseURL string,
) CertificateService {
	return &certificateService{
		repo: repo, templates: templates, mail: mail,
		exporter: exporter, previewer: previewer, baseURL: baseURL,
	}
}

// Generate issues one certificate per valid recipient and emails each a
// verification link. Persistence and delivery succeed independently: every
// certificate is stored before the first email goes out, and hitting the
// daily email ceiling mid-batch stops further sends without touching the
// records already written.
func (s *certificateService) Generate(ctx context.Context, req model.GenerateRequest, organizer utils.Identity) (*model.GenerateResult, error) {
	tpl, err := s.templates.Get(ctx, req.TemplateID, organizer.UID)
	if err != nil {
		return nil, err
	}

	recipients := filterRecipients(req.Recipients)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	result := &model.GenerateResult{RemainingCapacity: s.mail.Ledger().Remaining()}
	if s.mail.Configured() && !s.mail.Ledger().CanSend(len(recipients)) {
		return result, ErrInsufficientCapacity
	}

	issueDate := time.Now().Format("January 2, 2006")
	var certs []*model.Certificate
	for _, rcpt := range recipients {
		id, err := utils.GenerateCertificateID()
		if err != nil {
			return result, err
		}
		verificationURL := s.baseURL + "/verify/" + id

		qrDataURL, err := utils.GenerateQRDataURL(verificationURL)
		if err != nil {
			log.Printf("qr generation failed for %s: %v", id, err)
		}

		cert := &model.Certificate{
			ID:             id,
			RecipientName:  rcpt.Name,
			RecipientEmail: rcpt.Email,
			EventName:      req.EventName,
			Organizer:      req.OrganizerName,
			OrganizerEmail: organizer.Email,
			TemplateURL:    tpl.ImageURL,
			Elements: model.ResolveElements(tpl.Elements, model.PlaceholderData{
				Name:      rcpt.Name,
				Event:     req.EventName,
				Date:      issueDate,
				ID:        id,
				Organizer: req.OrganizerName,
			}, qrDataURL, verificationURL),
			VerificationURL: verificationURL,
			CustomMessage:   req.CustomMessage,
			IssuedAt:        time.Now(),
		}
		if err := s.repo.Create(ctx, cert); err != nil {
			return result, err
		}
		certs = append(certs, cert)
		result.Created++
		result.Certificates = append(result.Certificates, model.IssuedCertificate{
			ID: cert.ID, Name: cert.RecipientName, Email: cert.RecipientEmail,
			VerificationURL: cert.VerificationURL,
		})
	}

	s.sendNotifications(ctx, certs, req, result)
	result.RemainingCapacity = s.mail.Ledger().Remaining()
	return result, nil
}

func (s *certificateService) sendNotifications(ctx context.Context, certs []*model.Certificate, req model.GenerateRequest, result *model.GenerateResult) {
	for i, cert := range certs {
		if ctx.Err() != nil {
			return
		}
		subject, html, err := mailer.BuildCertificateEmail(mailer.CertificateEmailData{
			Name:            cert.RecipientName,
			EventName:       cert.EventName,
			CertificateID:   cert.ID,
			VerificationURL: cert.VerificationURL,
			OrganizerName:   req.OrganizerName,
			CustomMessage:   req.CustomMessage,
		})
		if err == nil {
			err = s.mail.Send(cert.RecipientEmail, subject, html)
		}
		if err != nil {
			result.EmailsFailed++
			result.Errors = append(result.Errors, model.EmailError{Email: cert.RecipientEmail, Error: err.Error()})
			if errors.Is(err, mailer.ErrDailyLimitExceeded) || errors.Is(err, mailer.ErrNotConfigured) {
				// remaining recipients keep their certificates, just no email
				result.EmailsFailed += len(certs) - i - 1
				for _, rest := range certs[i+1:] {
					result.Errors = append(result.Errors, model.EmailError{Email: rest.RecipientEmail, Error: err.Error()})
				}
				return
			}
			continue
		}
		result.EmailsSent++
		if i < len(certs)-1 {
			time.Sleep(emailThrottle)
		}
	}
}

// GenerateTest issues a short-lived certificate that previews the template
// without emailing anyone.
func (s *certificateService) GenerateTest(ctx context.Context, req model.TestCertificateRequest, organizer utils.Identity) (*model.Certificate, error) {
	tpl, err := s.templates.Get(ctx, req.TemplateID, organizer.UID)
	if err != nil {
		return nil, err
	}

	name := utils.SanitizeString(req.TestName)
	if name == "" {
		name = "Test User"
	}
	id := utils.GenerateTestID()
	verificationURL := s.baseURL + "/verify/" + id
	qrDataURL, err := utils.GenerateQRDataURL(verificationURL)
	if err != nil {
		log.Printf("qr generation failed for %s: %v", id, err)
	}

	expires := time.Now().Add(testCertificateTTL)
	cert := &model.Certificate{
		ID:             id,
		RecipientName:  name,
		RecipientEmail: organizer.Email,
		EventName:      req.EventName,
		Organizer:      req.OrganizerName,
		OrganizerEmail: organizer.Email,
		TemplateURL:    tpl.ImageURL,
		Elements: model.ResolveElements(tpl.Elements, model.PlaceholderData{
			Name:      name,
			Event:     req.EventName,
			Date:      time.Now().Format("January 2, 2006"),
			ID:        id,
			Organizer: req.OrganizerName,
		}, qrDataURL, verificationURL),
		VerificationURL: verificationURL,
		IsTest:          true,
		ExpiresAt:       &expires,
		IssuedAt:        time.Now(),
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// Verify resolves a certificate for the public verification page. Expired
// test certificates verify as invalid; the sweep of stale test records rides
// along opportunistically.
func (s *certificateService) Verify(ctx context.Context, id string) (*model.VerifyResponse, error) {
	if n, err := s.repo.DeleteExpiredTests(ctx); err != nil {
		log.Printf("expired test cleanup failed: %v", err)
	} else if n > 0 {
		log.Printf("removed %d expired test certificates", n)
	}

	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		// a swept test record and a bad ID look the same in storage
		if utils.IsTestID(id) {
			return &model.VerifyResponse{IsValid: false, Message: "Test certificate not found or expired"}, nil
		}
		return &model.VerifyResponse{IsValid: false, Message: "Certificate not found"}, nil
	}
	if cert.Expired() {
		return &model.VerifyResponse{IsValid: false, Message: "This test certificate has expired"}, nil
	}
	return &model.VerifyResponse{IsValid: true, Certificate: cert, Message: "Certificate is valid"}, nil
}

func (s *certificateService) ListByOrganizer(ctx context.Context, organizerEmail string) ([]*model.Certificate, error) {
	return s.repo.FindByOrganizer(ctx, organizerEmail)
}

func (s *certificateService) Delete(ctx context.Context, id, organizerEmail string) error {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if cert == nil {
		return ErrCertificateNotFound
	}
	if cert.OrganizerEmail != organizerEmail {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

// DownloadPDF exports the certificate as a vector document and returns the
// bytes with the download filename.
func (s *certificateService) DownloadPDF(ctx context.Context, id string) ([]byte, string, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if cert == nil || cert.Expired() {
		return nil, "", ErrCertificateNotFound
	}
	pdf, err := s.exporter.Export(ctx, cert.TemplateURL, cert.Elements)
	if err != nil {
		return nil, "", err
	}
	return pdf, cert.FileName(), nil
}

// PreviewPNG rasterizes the certificate for the verification page.
func (s *certificateService) PreviewPNG(ctx context.Context, id string, width int) ([]byte, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert == nil || cert.Expired() {
		return nil, ErrCertificateNotFound
	}
	return s.previewer.PNG(ctx, cert.TemplateURL, cert.Elements, width)
}

func (s *certificateService) Capacity() mailer.Capacity {
	return s.mail.Ledger().Capacity()
}

func filterRecipients(in []model.Recipient) []model.Recipient {
	out := make([]model.Recipient, 0, len(in))
	for _, r := range in {
		name := utils.SanitizeString(r.Name)
		email := utils.SanitizeString(r.Email)
		if name == "" || !utils.IsValidEmail(email) {
			continue
		}
		out = append(out, model.Recipient{Name: name, Email: email})
	}
	return out
}
