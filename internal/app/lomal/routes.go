package lomal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/lomal-tg/lomal-backend/internal/http/handlers/admin/adminlogin"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/admin/adminlogout"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/auth/login"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/auth/logout"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/auth/register"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/auth/verify"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/message/send"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/payment/paymentcancel"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/payment/paymentcreate"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/payment/paymenthistory"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/payment/paymentlist"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/payment/paymentsettle"
	"github.com/lomal-tg/lomal-backend/internal/http/handlers/payment/paymentstatus"
	subscriptionstatus "github.com/lomal-tg/lomal-backend/internal/http/handlers/subscription/status"
	"github.com/lomal-tg/lomal-backend/internal/http/middlewarectx"
	"github.com/lomal-tg/lomal-backend/internal/lib/jwt"

	adminservice "github.com/lomal-tg/lomal-backend/internal/services/admin"
	authservice "github.com/lomal-tg/lomal-backend/internal/services/auth"
	messageservice "github.com/lomal-tg/lomal-backend/internal/services/message"
	paymentservice "github.com/lomal-tg/lomal-backend/internal/services/payment"
	subservice "github.com/lomal-tg/lomal-backend/internal/services/subscription"
)

// Services bundles everything the router hands to the handlers.
type Services struct {
	JWTMaker     jwt.Maker
	Auth         *authservice.Service
	Subscription *subservice.Service
	Payment      *paymentservice.Engine
	Admin        *adminservice.Service
	Message      *messageservice.Service
}

// RegisterRoutes registers all application routes.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// open endpoints
		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/verify", verify.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Post("/admin/login", adminlogin.New(logger, svc.Admin).ServeHTTP)

		// customer session group
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.JWTMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/logout", logout.New(logger).ServeHTTP)
			r.Get("/subscription", subscriptionstatus.New(logger, svc.Subscription).ServeHTTP)
			r.Post("/payments", paymentcreate.New(logger, svc.Payment).ServeHTTP)
			r.Get("/payments/history", paymenthistory.New(logger, svc.Payment).ServeHTTP)
			r.Get("/payments/{reference}", paymentstatus.New(logger, svc.Payment).ServeHTTP)
			r.Post("/payments/{reference}/settle", paymentsettle.New(logger, svc.Payment).ServeHTTP)
			r.Post("/payments/{reference}/cancel", paymentcancel.New(logger, svc.Payment).ServeHTTP)
			r.Post("/messages", send.New(logger, svc.Message).ServeHTTP)
		})

		// back-office session group
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AdminSessionMiddleware(svc.Admin, logger))
			r.Get("/payments", paymentlist.New(logger, svc.Payment).ServeHTTP)
			r.Post("/admin/logout", adminlogout.New(logger, svc.Admin).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
