package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/certcat/certcat/internal/config"
	"github.com/certcat/certcat/internal/mailer"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/render/assets"
	"github.com/certcat/certcat/internal/render/fonts"
	"github.com/certcat/certcat/internal/render/pdfexport"
	"github.com/certcat/certcat/internal/render/preview"
	"github.com/certcat/certcat/internal/utils"
)

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*model.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]*model.Template)}
}

func (r *fakeTemplateRepo) FindByOwner(_ context.Context, ownerUID string) ([]*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Template
	for _, t := range r.templates {
		if t.OwnerUID == ownerUID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.templates[id], nil
}

func (r *fakeTemplateRepo) Create(_ context.Context, tpl *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.ID] = tpl
	return nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, tpl *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.ID] = tpl
	return nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.templates, id)
	return nil
}

type fakeCertRepo struct {
	mu    sync.Mutex
	certs map[string]*model.Certificate
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: make(map[string]*model.Certificate)}
}

func (r *fakeCertRepo) FindByID(_ context.Context, id string) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.certs[id], nil
}

func (r *fakeCertRepo) FindByOrganizer(_ context.Context, email string) ([]*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Certificate
	for _, c := range r.certs {
		if c.OrganizerEmail == email {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCertRepo) Create(_ context.Context, cert *model.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[cert.ID] = cert
	return nil
}

func (r *fakeCertRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.certs, id)
	return nil
}

func (r *fakeCertRepo) DeleteExpiredTests(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.certs {
		if c.Expired() {
			delete(r.certs, id)
			n++
		}
	}
	return n, nil
}

type fixture struct {
	certs     CertificateService
	certRepo  *fakeCertRepo
	tpl       *model.Template
	organizer utils.Identity
}

func newFixture(t *testing.T, smtp config.SMTPConfig) *fixture {
	t.Helper()
	tplRepo := newFakeTemplateRepo()
	certRepo := newFakeCertRepo()
	templates := NewTemplateService(tplRepo, nil)

	tpl := &model.Template{
		ID:       uuid.New(),
		OwnerUID: "owner-1",
		Name:     "Completion",
		Elements: model.ElementList{
			{Type: model.ElementText, X: 50, Y: 50, Value: "{name}", FontSize: 48, FontFamily: "Great Vibes"},
			{Type: model.ElementText, X: 50, Y: 65, Value: "for completing {event}", FontSize: 20},
			{Type: model.ElementQRCode, X: 85, Y: 85, Size: 80},
		},
		OutputWidth:  1684,
		OutputHeight: 1190,
		QRCodeSize:   80,
	}
	if err := tplRepo.Create(context.Background(), tpl); err != nil {
		t.Fatal(err)
	}

	fs := fonts.NewSource(50 * time.Millisecond)
	af := assets.NewFetcher(50 * time.Millisecond)
	svc := NewCertificateService(
		certRepo, templates, mailer.New(smtp),
		pdfexport.New(fs, af), preview.New(fs, af),
		"https://certcat.example.com",
	)
	return &fixture{
		certs:     svc,
		certRepo:  certRepo,
		tpl:       tpl,
		organizer: utils.Identity{UID: "owner-1", Email: "org@example.com", Name: "Acme"},
	}
}

func TestGeneratePersistsDespiteEmailFailures(t *testing.T) {
	// unconfigured mailer: every send fails, every certificate still lands
	f := newFixture(t, config.SMTPConfig{})

	res, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID:    f.tpl.ID.String(),
		EventName:     "Go Expo",
		OrganizerName: "Acme",
		Recipients: []model.Recipient{
			{Name: "Jane Doe", Email: "jane@example.com"},
			{Name: "John Roe", Email: "john@example.com"},
		},
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}

	if res.Created != 2 {
		t.Errorf("created = %d, want 2", res.Created)
	}
	if res.EmailsSent != 0 || res.EmailsFailed != 2 {
		t.Errorf("emails sent/failed = %d/%d, want 0/2", res.EmailsSent, res.EmailsFailed)
	}
	if len(f.certRepo.certs) != 2 {
		t.Errorf("%d certificates persisted, want 2", len(f.certRepo.certs))
	}
}

func TestGenerateResolvesPlaceholdersAndQR(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	res, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Go Expo",
		Recipients: []model.Recipient{{Name: "Jane Doe", Email: "jane@example.com"}},
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}

	cert := f.certRepo.certs[res.Certificates[0].ID]
	if cert == nil {
		t.Fatal("issued certificate not persisted")
	}
	if cert.Elements[0].Value != "Jane Doe" {
		t.Errorf("name element = %q, want %q", cert.Elements[0].Value, "Jane Doe")
	}
	if cert.Elements[1].Value != "for completing Go Expo" {
		t.Errorf("event element = %q", cert.Elements[1].Value)
	}
	wantURL := "https://certcat.example.com/verify/" + cert.ID
	if cert.Elements[2].QRURL != wantURL {
		t.Errorf("qr url = %q, want %q", cert.Elements[2].QRURL, wantURL)
	}
	if !strings.HasPrefix(cert.Elements[2].QRDataURL, "data:image/png;base64,") {
		t.Error("qr payload is not a png data url")
	}
	// the template itself stays untouched
	if f.tpl.Elements[0].Value != "{name}" {
		t.Error("template elements were mutated during generation")
	}
}

func TestGenerateRejectsBatchOverCapacity(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "u@example.com", DailyLimit: 1})

	_, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Go Expo",
		Recipients: []model.Recipient{
			{Name: "A", Email: "a@example.com"},
			{Name: "B", Email: "b@example.com"},
		},
	}, f.organizer)
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Errorf("err = %v, want ErrInsufficientCapacity", err)
	}
	if len(f.certRepo.certs) != 0 {
		t.Error("certificates created despite capacity rejection")
	}
}

func TestGenerateFiltersInvalidRecipients(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	res, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Go Expo",
		Recipients: []model.Recipient{
			{Name: "  Jane Doe ", Email: " jane@example.com "},
			{Name: "", Email: "noname@example.com"},
			{Name: "Bad Email", Email: "not-an-email"},
		},
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 1 {
		t.Errorf("created = %d, want 1", res.Created)
	}
	if got := res.Certificates[0].Name; got != "Jane Doe" {
		t.Errorf("recipient name = %q, want trimmed %q", got, "Jane Doe")
	}
}

func TestGenerateNoValidRecipients(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})
	_, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		Recipients: []model.Recipient{{Name: "", Email: ""}},
	}, f.organizer)
	if !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
}

func TestGenerateEnforcesTemplateOwnership(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})
	_, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		Recipients: []model.Recipient{{Name: "A", Email: "a@example.com"}},
	}, utils.Identity{UID: "intruder", Email: "x@example.com"})
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
}

func TestGenerateTestCertificate(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	cert, err := f.certs.GenerateTest(context.Background(), model.TestCertificateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Dry Run",
		TestName:   "Jane Doe",
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}
	if !utils.IsTestID(cert.ID) {
		t.Errorf("id %q lacks the TEST- prefix", cert.ID)
	}
	if !cert.IsTest || cert.ExpiresAt == nil {
		t.Fatal("test certificate missing test flag or expiry")
	}
	if ttl := time.Until(*cert.ExpiresAt); ttl > testCertificateTTL || ttl < testCertificateTTL-time.Minute {
		t.Errorf("expiry %v away, want about %v", ttl, testCertificateTTL)
	}
	if cert.Elements[0].Value != "Jane Doe" {
		t.Errorf("name element = %q", cert.Elements[0].Value)
	}
}

func TestVerifyLifecycle(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	res, err := f.certs.Verify(context.Background(), "missing-id")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsValid {
		t.Error("missing certificate verified as valid")
	}

	gen, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Go Expo",
		Recipients: []model.Recipient{{Name: "Jane Doe", Email: "jane@example.com"}},
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}

	res, err = f.certs.Verify(context.Background(), gen.Certificates[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsValid || res.Certificate == nil {
		t.Fatal("freshly issued certificate did not verify")
	}
	if res.Certificate.RecipientName != "Jane Doe" {
		t.Errorf("recipient = %q", res.Certificate.RecipientName)
	}
}

func TestVerifyExpiredTestCertificate(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	past := time.Now().Add(-time.Minute)
	f.certRepo.certs["TEST-OLD"] = &model.Certificate{
		ID: "TEST-OLD", RecipientName: "T", IsTest: true, ExpiresAt: &past,
	}

	res, err := f.certs.Verify(context.Background(), "TEST-OLD")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsValid {
		t.Error("expired test certificate verified as valid")
	}
	if _, still := f.certRepo.certs["TEST-OLD"]; still {
		t.Error("expired test certificate survived the cleanup sweep")
	}
}

func TestVerifyMessageDistinguishesTestIDs(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	res, err := f.certs.Verify(context.Background(), "TEST-GONE")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsValid {
		t.Error("unknown test id verified as valid")
	}
	if res.Message != "Test certificate not found or expired" {
		t.Errorf("test id message = %q", res.Message)
	}

	res, err = f.certs.Verify(context.Background(), "deadbeefdeadbeefdead")
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Certificate not found" {
		t.Errorf("regular id message = %q", res.Message)
	}
}

func TestEndToEndIssueAndExport(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	gen, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Go Expo",
		Recipients: []model.Recipient{{Name: "Jane Doe", Email: "jane@example.com"}},
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}
	id := gen.Certificates[0].ID

	pdf, filename, err := f.certs.DownloadPDF(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("export is not a PDF stream")
	}
	if filename != "Jane Doe-Go Expo-Certificate.pdf" {
		t.Errorf("filename = %q", filename)
	}

	png, err := f.certs.PreviewPNG(context.Background(), id, 600)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("preview is not a PNG stream")
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	f := newFixture(t, config.SMTPConfig{})

	gen, err := f.certs.Generate(context.Background(), model.GenerateRequest{
		TemplateID: f.tpl.ID.String(),
		EventName:  "Go Expo",
		Recipients: []model.Recipient{{Name: "Jane Doe", Email: "jane@example.com"}},
	}, f.organizer)
	if err != nil {
		t.Fatal(err)
	}
	id := gen.Certificates[0].ID

	if err := f.certs.Delete(context.Background(), id, "other@example.com"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
	if err := f.certs.Delete(context.Background(), id, f.organizer.Email); err != nil {
		t.Fatal(err)
	}
	if _, still := f.certRepo.certs[id]; still {
		t.Error("certificate survived owner deletion")
	}
}
