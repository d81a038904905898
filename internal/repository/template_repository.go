package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/certcat/certcat/internal/model"
)

type TemplateRepository interface {
	FindByOwner(ctx context.Context, ownerUID string) ([]*model.Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Template, error)
	Create(ctx context.Context, tpl *model.Template) error
	Update(ctx context.Context, tpl *model.Template) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) FindByOwner(ctx context.Context, ownerUID string) ([]*model.Template, error) {
	var templates []*model.Template
	query := `
		SELECT * FROM templates
		WHERE owner_uid = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &templates, query, ownerUID); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var tpl model.Template
	err := r.db.GetContext(ctx, &tpl, "SELECT * FROM templates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.Template) error {
	query := `
		INSERT INTO templates (id, owner_uid, owner_email, name, image_url, elements,
		                       output_width, output_height, qr_code_size, created_at)
		VALUES (:id, :owner_uid, :owner_email, :name, :image_url, :elements,
		        :output_width, :output_height, :qr_code_size, NOW())
	`
	_, err := r.db.NamedExecContext(ctx, query, tpl)
	return err
}

func (r *templateRepository) Update(ctx context.Context, tpl *model.Template) error {
	query := `
		UPDATE templates SET
			name = :name, image_url = :image_url, elements = :elements,
			output_width = :output_width, output_height = :output_height,
			qr_code_size = :qr_code_size
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, tpl)
	return err
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE id = $1", id)
	return err
}
