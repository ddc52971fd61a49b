// Package middlewarectx holds the HTTP middleware: JWT session checks for
// customers, opaque session checks for the back office and the rate
// limiter. Successful checks put the caller's identity into the request
// context under the typed keys below.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lomal-tg/lomal-backend/internal/http/response"
	"github.com/lomal-tg/lomal-backend/internal/lib/jwt"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
)

// Key is the type for request context keys.
type Key string

const (
	// UserUID is the context key for the authenticated user id.
	UserUID Key = "user_uid"
	// UserName is the context key for the authenticated user name.
	UserName Key = "user_name"
	// UserPhone is the context key for the authenticated user phone.
	UserPhone Key = "user_phone"
	// AdminEmail is the context key for the authenticated admin email.
	AdminEmail Key = "admin_email"
)

// JWTMiddleware checks the Bearer token in the Authorization header and
// puts the session identity into the request context.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

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
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, UserName, claims.Name)
			ctx = context.WithValue(ctx, UserPhone, claims.Phone)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
