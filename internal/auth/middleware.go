package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"homeshow/internal/models"
)

type ctxKey string

const userIDKey ctxKey = "uid"

// Required — middleware домена владельца: Authorization: Bearer <jwt>.
// Токен соглашения здесь не принимается — домены доверия не пересекаются.
func Required(t *Tokens) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token", nil)
				return
			}
			uid, err := t.Verify(strings.TrimPrefix(auth, p))
			if err != nil {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token", nil)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достаёт id аутентифицированного риелтора из контекста запроса.
func UserID(r *http.Request) (uint, bool) {
	v, ok := r.Context().Value(userIDKey).(uint)
	return v, ok
}
