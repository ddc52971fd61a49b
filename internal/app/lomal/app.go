// Package lomal assembles and runs the backend: storage, migrations,
// cache, broker, services, HTTP server and graceful shutdown.
package lomal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/lomal-tg/lomal-backend/internal/cache"
	"github.com/lomal-tg/lomal-backend/internal/config"
	"github.com/lomal-tg/lomal-backend/internal/lib/jwt"
	"github.com/lomal-tg/lomal-backend/internal/lib/sl"
	"github.com/lomal-tg/lomal-backend/internal/messaging"
	"github.com/lomal-tg/lomal-backend/internal/migrations"
	"github.com/lomal-tg/lomal-backend/internal/paymentprovider"
	"github.com/lomal-tg/lomal-backend/internal/sms"
	"github.com/lomal-tg/lomal-backend/internal/storage/repository"

	adminservice "github.com/lomal-tg/lomal-backend/internal/services/admin"
	authservice "github.com/lomal-tg/lomal-backend/internal/services/auth"
	messageservice "github.com/lomal-tg/lomal-backend/internal/services/message"
	paymentservice "github.com/lomal-tg/lomal-backend/internal/services/payment"
	subservice "github.com/lomal-tg/lomal-backend/internal/services/subscription"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := messaging.Connect(cfg.RabbitMQ.AmqpURI, cfg.RabbitMQ.ConnectRetries, cfg.RabbitMQ.ConnectDelay)
	if err != nil {
		return nil, err
	}
	channel, err := messaging.SetupChannel(amqpConn, messaging.ConversationQueues())
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	smsSender := sms.NewGatewayClient(cfg.Verification.SMSGateway)
	providerClient := paymentprovider.NewClient(cfg.Payment.PayDunya)

	subscriptionService := subservice.New(db, cfg.Payment.SubscriptionDays, logger)
	authService := authservice.New(db, cacheRedis, smsSender, jwtMaker, cfg.Verification, logger)
	paymentEngine := paymentservice.New(db, db, db, subscriptionService, providerClient, cfg.Payment, logger)
	adminService := adminservice.New(cfg.Admin, cacheRedis, logger)
	messageService := messageservice.New(db, messaging.ChannelPublisher{Ch: channel}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		JWTMaker:     jwtMaker,
		Auth:         authService,
		Subscription: subscriptionService,
		Payment:      paymentEngine,
		Admin:        adminService,
		Message:      messageService,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   amqpConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.amqp.Close(); closeErr != nil {
			a.logger.Error("failed to close amqp connection", sl.Err(closeErr))
		}
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		return err
	}
}
