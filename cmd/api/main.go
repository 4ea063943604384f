// Command api serves the clinic access API, the telephony webhook and the
// realtime channel.
//
// @title        VetSystem Access API
// @version      1.0
// @description  Sessions, tenant and branch context, and incoming-call push.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	_ "github.com/ssavin/vetsystem-sub004/docs"
	"github.com/ssavin/vetsystem-sub004/internal/api"
	"github.com/ssavin/vetsystem-sub004/internal/api/handler"
	"github.com/ssavin/vetsystem-sub004/internal/api/metrics"
	"github.com/ssavin/vetsystem-sub004/internal/api/middleware"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/service"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/db/mongo"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/db/postgres"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/db/redis"
	httpinfra "github.com/ssavin/vetsystem-sub004/internal/infrastructure/http"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/http/handlers"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/messaging/kafka"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/queue"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/realtime"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/telephony"
	"github.com/ssavin/vetsystem-sub004/internal/pkg/config"
	"github.com/ssavin/vetsystem-sub004/internal/pkg/secretbox"
	"github.com/ssavin/vetsystem-sub004/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.OptionsFor("api", cfg.Env, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Stores ---
	if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
		return err
	}
	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	mongoClient, auditDB, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := mongo.EnsureIndexes(ctx, auditDB); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, logger.For("kafka"))
	defer producer.Close()

	// --- Repositories ---
	users := postgres.NewUserRepository(pool)
	tenants := postgres.NewTenantRepository(pool)
	branches := postgres.NewBranchRepository(pool)
	audit := mongo.NewAuditRepository(auditDB)
	cache := redis.NewSessionCache(rdb)

	// --- Services ---
	guard, err := service.NewAccessGuard(domain.DefaultPermissions, audit, logger.For("access"))
	if err != nil {
		return err
	}
	tokens := service.NewTokenIssuer(cfg.Session.Secret, cfg.Session.AccessTTL, cfg.Session.RefreshTTL)
	notifications := service.NewNotificationService(producer, service.NotificationTargets{
		SecurityEmail:  cfg.Alerts.SecurityEmail,
		TelegramChatID: cfg.Telegram.ChatID,
		MissedCallSMS:  cfg.Alerts.MissedCallSMS,
	}, logger.For("notifications"))

	authService := service.NewAuthService(users, tenants, branches, cache, redis.NewTokenRevocation(rdb), audit, tokens, logger.For("auth"))
	sessionService := service.NewSessionService(users, tenants, branches, cache, audit, notifications, tokens, logger.For("session"))
	selectorService := service.NewSelectorService(users, tenants, branches, cache, logger.For("selector"))

	hub := realtime.NewHub(cfg.AllowedOrigins, logger.For("realtime"))
	callService := service.NewCallService(
		postgres.NewOwnerRepository(pool),
		postgres.NewCallLogRepository(pool),
		redis.NewCallDedup(rdb),
		audit,
		hub,
		notifications,
		logger.For("calls"),
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := queue.NewDispatcher(cfg.CallWorkers, callService, metrics.DispatcherObserver{}, logger.For("dispatcher"))
	dispatcher.Start(workerCtx)

	var webhooks handler.WebhookParser
	if cfg.EncryptionKey != "" {
		box, err := secretbox.New(cfg.EncryptionKey)
		if err != nil {
			return err
		}
		webhooks = telephony.NewMango(postgres.NewCredentialRepository(pool, box))
	} else {
		log.Warn().Msg("ENCRYPTION_KEY not set, telephony webhook disabled")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:     authService,
		Sessions: sessionService,
		Selector: selectorService,
		Guard:    guard,
		Tenants:  tenants,
		Branches: branches,
		Webhooks: webhooks,
		Calls:    dispatcher,
		Realtime: hub,
		Hosts: middleware.TenantHosts{
			BaseDomain:      cfg.Tenancy.BaseDomain,
			DefaultTenantID: cfg.Tenancy.DefaultTenantID,
		},
		Cookies: handler.CookieConfig{Secure: cfg.Production()},
		Log:     logger.For("http"),
	})
	ops := httpinfra.NewOpsRouter(map[string]handlers.Check{
		"postgres": handlers.PostgresCheck(pool),
		"mongo":    handlers.MongoCheck(auditDB),
		"redis":    handlers.RedisCheck(rdb),
	})

	errCh := make(chan error, 2)
	serve(e, ":"+cfg.Port, errCh)
	serve(ops, ":"+cfg.OpsPort, errCh)
	log.Info().Str("port", cfg.Port).Str("ops_port", cfg.OpsPort).Msg("api listening")

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range []*echo.Echo{e, ops} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
	stopWorkers()
	dispatcher.Wait()
	return serveErr
}

func serve(e *echo.Echo, addr string, errCh chan<- error) {
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
}
