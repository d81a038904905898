package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/certcat/certcat/internal/editor"
	"github.com/certcat/certcat/internal/model"
	"github.com/certcat/certcat/internal/repository"
)

var ErrNoSession = errors.New("no editor session for this template")

// EditorService keeps per-template editing sessions in memory. A session is
// opened from the stored template, mutated through the editor package, and
// saved back explicitly. Idle sessions expire; unsaved changes expire with
// them.
type EditorService interface {
	Open(ctx context.Context, templateID, ownerUID string) (*editor.Session, error)
	Session(templateID, ownerUID string) (*editor.Session, error)
	Save(ctx context.Context, templateID, ownerUID string) (*model.Template, error)
	Close(templateID, ownerUID string)
}

type editorService struct {
	templates TemplateService
	repo      repository.TemplateRepository
	sessions  *cache.Cache
}

func NewEditorService(templates TemplateService, repo repository.TemplateRepository) EditorService {
	return &editorService{
		templates: templates,
		repo:      repo,
		sessions:  cache.New(2*time.Hour, 15*time.Minute),
	}
}

func sessionKey(templateID, ownerUID string) string {
	return fmt.Sprintf("%s|%s", ownerUID, templateID)
}

// Open starts (or resumes) an editing session for the owner's template.
func (s *editorService) Open(ctx context.Context, templateID, ownerUID string) (*editor.Session, error) {
	key := sessionKey(templateID, ownerUID)
	if v, ok := s.sessions.Get(key); ok {
		return v.(*editor.Session), nil
	}
	tpl, err := s.templates.Get(ctx, templateID, ownerUID)
	if err != nil {
		return nil, err
	}
	sess := editor.NewSession(tpl.Elements, float64(tpl.QRCodeSize))
	s.sessions.Set(key, sess, cache.DefaultExpiration)
	return sess, nil
}

// Session returns an already-open session without touching storage.
func (s *editorService) Session(templateID, ownerUID string) (*editor.Session, error) {
	if v, ok := s.sessions.Get(sessionKey(templateID, ownerUID)); ok {
		return v.(*editor.Session), nil
	}
	return nil, ErrNoSession
}

// Save persists the session's element list back onto the template.
func (s *editorService) Save(ctx context.Context, templateID, ownerUID string) (*model.Template, error) {
	sess, err := s.Session(templateID, ownerUID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.templates.Get(ctx, templateID, ownerUID)
	if err != nil {
		return nil, err
	}
	tpl.Elements = sess.Elements()
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *editorService) Close(templateID, ownerUID string) {
	s.sessions.Delete(sessionKey(templateID, ownerUID))
}
