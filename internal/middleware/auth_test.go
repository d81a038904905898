package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/certcat/certcat/internal/utils"
)

const testSecret = "test-secret"

func protected(t *testing.T, wantUID, wantEmail string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetUIDFromContext(r.Context()); got != wantUID {
			t.Errorf("uid in context = %q, want %q", got, wantUID)
		}
		if got := GetEmailFromContext(r.Context()); got != wantEmail {
			t.Errorf("email in context = %q, want %q", got, wantEmail)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatePassesIdentityThrough(t *testing.T) {
	token, err := utils.GenerateToken(utils.Identity{UID: "uid-1", Email: "org@example.com", Name: "Org"}, testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	Authenticate(testSecret)(protected(t, "uid-1", "org@example.com")).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	expired, err := utils.GenerateToken(utils.Identity{UID: "uid-1"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongKey, err := utils.GenerateToken(utils.Identity{UID: "uid-1"}, "other-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong secret", "Bearer " + wrongKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
			Authenticate(testSecret)(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler ran despite rejected token")
			}
		})
	}
}
