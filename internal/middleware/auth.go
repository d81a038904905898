package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/certcat/certcat/internal/response"
	"github.com/certcat/certcat/internal/utils"
)

type contextKey string

const (
	ContextKeyUID   contextKey = "uid"
	ContextKeyEmail contextKey = "email"
	ContextKeyName  contextKey = "name"
)

// Authenticate validates the bearer token and stores the organizer identity
// on the request context.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "Invalid token format, use: Bearer <token>")
				return
			}

			identity, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Token is invalid or expired")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyUID, identity.UID)
			ctx = context.WithValue(ctx, ContextKeyEmail, identity.Email)
			ctx = context.WithValue(ctx, ContextKeyName, identity.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUIDFromContext(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyUID).(string)
	return val
}

func GetEmailFromContext(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyEmail).(string)
	return val
}

func GetNameFromContext(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyName).(string)
	return val
}
