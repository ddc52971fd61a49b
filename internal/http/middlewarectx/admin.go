package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/services/admin"
)

// AdminSessionValidator checks an opaque admin session token.
type AdminSessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*admin.Session, bool, error)
}

// AdminSessionMiddleware checks the Bearer token against the admin session
// store and puts the admin email into the request context.
func AdminSessionMiddleware(sessions AdminSessionValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminSessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			session, ok, err := sessions.ValidateSession(r.Context(), token)
			if err != nil {
				log.Error("failed to validate admin session", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !ok {
				log.Error("unknown or expired admin session")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unknown or expired admin session"))
				return
			}

			ctx := context.WithValue(r.Context(), AdminEmail, session.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
