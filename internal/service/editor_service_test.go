package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/certcat/certcat/internal/model"
)

func newEditorFixture(t *testing.T) (EditorService, *fakeTemplateRepo, *model.Template) {
	t.Helper()
	tplRepo := newFakeTemplateRepo()
	templates := NewTemplateService(tplRepo, nil)

	tpl := &model.Template{
		ID:       uuid.New(),
		OwnerUID: "owner-1",
		Name:     "Draft",
		Elements: model.ElementList{
			{Type: model.ElementText, X: 50, Y: 40, Value: "Title", FontSize: 30},
		},
		QRCodeSize: 100,
	}
	if err := tplRepo.Create(context.Background(), tpl); err != nil {
		t.Fatal(err)
	}
	return NewEditorService(templates, tplRepo), tplRepo, tpl
}

func TestOpenEditSaveRoundTrip(t *testing.T) {
	svc, repo, tpl := newEditorFixture(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, tpl.ID.String(), "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	sess.AddRecipientName()
	idx := sess.AddQRCode()
	if got := sess.Elements()[idx].Size; got != 100 {
		t.Errorf("qr size = %v, want the template's 100", got)
	}

	if _, err := svc.Save(ctx, tpl.ID.String(), "owner-1"); err != nil {
		t.Fatal(err)
	}
	stored := repo.templates[tpl.ID]
	if len(stored.Elements) != 3 {
		t.Fatalf("stored %d elements, want 3", len(stored.Elements))
	}
	if stored.Elements[1].Value != "{name}" {
		t.Errorf("stored element 1 = %q, want the name placeholder", stored.Elements[1].Value)
	}
}

func TestOpenResumesExistingSession(t *testing.T) {
	svc, _, tpl := newEditorFixture(t)
	ctx := context.Background()

	first, err := svc.Open(ctx, tpl.ID.String(), "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	first.AddText("unsaved")

	again, err := svc.Open(ctx, tpl.ID.String(), "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Error("second open created a new session instead of resuming")
	}
	if len(again.Elements()) != 2 {
		t.Error("resumed session lost its unsaved mutation")
	}
}

func TestOpenEnforcesOwnership(t *testing.T) {
	svc, _, tpl := newEditorFixture(t)
	if _, err := svc.Open(context.Background(), tpl.ID.String(), "intruder"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
}

func TestSessionWithoutOpen(t *testing.T) {
	svc, _, tpl := newEditorFixture(t)
	if _, err := svc.Session(tpl.ID.String(), "owner-1"); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestCloseDropsSession(t *testing.T) {
	svc, _, tpl := newEditorFixture(t)
	ctx := context.Background()
	if _, err := svc.Open(ctx, tpl.ID.String(), "owner-1"); err != nil {
		t.Fatal(err)
	}
	svc.Close(tpl.ID.String(), "owner-1")
	if _, err := svc.Session(tpl.ID.String(), "owner-1"); !errors.Is(err, ErrNoSession) {
		t.Error("session survived close")
	}
}
