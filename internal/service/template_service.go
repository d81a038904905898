package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/repository"
	"github.com/certcat/certcat/internal/utils"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrNotOwner         = errors.New("template belongs to another owner")
	ErrInvalidTemplate  = errors.New("invalid template")
)

type TemplateService interface {
	List(ctx context.Context, ownerUID string) ([]*model.Template, error)
	Get(ctx context.Context, id string, ownerUID string) (*model.Template, error)
	Create(ctx context.Context, req model.CreateTemplateRequest, ownerUID, ownerEmail string) (*model.Template, error)
	Update(ctx context.Context, id string, req model.CreateTemplateRequest, ownerUID string) (*model.Template, error)
	Delete(ctx context.Context, id string, ownerUID string) error
}

// BackgroundCleaner removes a stored background object once the template
// referencing it is gone. Satisfied by the storage service.
type BackgroundCleaner interface {
	DeleteByURL(ctx context.Context, fileURL string) error
}

type templateService struct {
	repo    repository.TemplateRepository
	cleaner BackgroundCleaner
}

// NewTemplateService builds the template CRUD service. cleaner may be nil,
// in which case deleted templates leave their background objects in place.
func NewTemplateService(repo repository.TemplateRepository, cleaner BackgroundCleaner) TemplateService {
	return &templateService{repo: repo, cleaner: cleaner}
}

func (s *templateService) List(ctx context.Context, ownerUID string) ([]*model.Template, error) {
	return s.repo.FindByOwner(ctx, ownerUID)
}

// Get loads a template and enforces ownership. Pass an empty ownerUID to
// skip the check, for internal consumers that already authorized the call.
func (s *templateService) Get(ctx context.Context, id string, ownerUID string) (*model.Template, error) {
	tplID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrTemplateNotFound
	}
	tpl, err := s.repo.FindByID(ctx, tplID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}
	if ownerUID != "" && tpl.OwnerUID != ownerUID {
		return nil, ErrNotOwner
	}
	return tpl, nil
}

func (s *templateService) Create(ctx context.Context, req model.CreateTemplateRequest, ownerUID, ownerEmail string) (*model.Template, error) {
	if utils.SanitizeString(req.Name) == "" {
		return nil, ErrInvalidTemplate
	}
	tpl := &model.Template{
		ID:           uuid.New(),
		OwnerUID:     ownerUID,
		OwnerEmail:   ownerEmail,
		Name:         utils.SanitizeString(req.Name),
		ImageURL:     req.ImageURL,
		Elements:     req.Elements,
		OutputWidth:  req.OutputWidth,
		OutputHeight: req.OutputHeight,
		QRCodeSize:   req.QRCodeSize,
	}
	if tpl.Elements == nil {
		tpl.Elements = model.ElementList{}
	}
	if !model.IsValidOutputSize(tpl.OutputWidth, tpl.OutputHeight) {
		tpl.OutputWidth = 1684
		tpl.OutputHeight = 1190
	}
	if tpl.QRCodeSize <= 0 {
		tpl.QRCodeSize = 80
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) Update(ctx context.Context, id string, req model.CreateTemplateRequest, ownerUID string) (*model.Template, error) {
	tpl, err := s.Get(ctx, id, ownerUID)
	if err != nil {
		return nil, err
	}
	if name := utils.SanitizeString(req.Name); name != "" {
		tpl.Name = name
	}
	if req.ImageURL != "" {
		tpl.ImageURL = req.ImageURL
	}
	if req.Elements != nil {
		tpl.Elements = req.Elements
	}
	if model.IsValidOutputSize(req.OutputWidth, req.OutputHeight) {
		tpl.OutputWidth = req.OutputWidth
		tpl.OutputHeight = req.OutputHeight
	}
	if req.QRCodeSize > 0 {
		tpl.QRCodeSize = req.QRCodeSize
	}
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) Delete(ctx context.Context, id string, ownerUID string) error {
	tpl, err := s.Get(ctx, id, ownerUID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tpl.ID); err != nil {
		return err
	}
	// best effort: an orphaned background only wastes bucket space
	if s.cleaner != nil && tpl.ImageURL != "" {
		if err := s.cleaner.DeleteByURL(ctx, tpl.ImageURL); err != nil {
			log.Printf("background cleanup for template %s failed: %v", tpl.ID, err)
		}
	}
	return nil
}
