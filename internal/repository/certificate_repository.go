package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/certcat/certcat/internal/model"
)

type CertificateRepository interface {
	FindByID(ctx context.Context, id string) (*model.Certificate, error)
	FindByOrganizer(ctx context.Context, organizerEmail string) ([]*model.Certificate, error)
	Create(ctx context.Context, cert *model.Certificate) error
	Delete(ctx context.Context, id string) error
	DeleteExpiredTests(ctx context.Context) (int64, error)
}

type certificateRepository struct {
	db *sqlx.DB
}

func NewCertificateRepository(db *sqlx.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) FindByID(ctx context.Context, id string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.GetContext(ctx, &cert, "SELECT * FROM certificates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) FindByOrganizer(ctx context.Context, organizerEmail string) ([]*model.Certificate, error) {
	var certs []*model.Certificate
	query := `
		SELECT * FROM certificates
		WHERE organizer_email = $1
		ORDER BY issued_at DESC
	`
	if err := r.db.SelectContext(ctx, &certs, query, organizerEmail); err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *certificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	query := `
		INSERT INTO certificates (id, recipient_name, recipient_email, event_name, organizer,
		                          organizer_email, template_url, elements, verification_url,
		                          custom_message, is_test, expires_at, issued_at)
		VALUES (:id, :recipient_name, :recipient_email, :event_name, :organizer,
		        :organizer_email, :template_url, :elements, :verification_url,
		        :custom_message, :is_test, :expires_at, NOW())
	`
	_, err := r.db.NamedExecContext(ctx, query, cert)
	return err
}

func (r *certificateRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM certificates WHERE id = $1", id)
	return err
}

// DeleteExpiredTests drops test certificates past their expiry. Called
// opportunistically, there is no scheduler behind it.
func (r *certificateRepository) DeleteExpiredTests(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM certificates WHERE is_test = TRUE AND expires_at < NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
