package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/response"
)

type contextKey string

const (
	ContextUser  contextKey = "user"
	ContextToken contextKey = "token"
)

// UserResolver turns an access token into the account it belongs to.
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*domain.AccountIdentity, error)
}

func GetUser(ctx context.Context) (*domain.AccountIdentity, bool) {
	u, ok := ctx.Value(ContextUser).(*domain.AccountIdentity)
	return u, ok && u != nil
}

func GetToken(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(ContextToken).(string)
	return val, ok
}

func ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth rejects requests without a live session and stores the account
// and token in the request context.
func RequireAuth(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "No token provided")
				return
			}
			user, err := users.CurrentUser(r.Context(), token)
			if err != nil || user == nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ContextUser, user)
			ctx = context.WithValue(ctx, ContextToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
