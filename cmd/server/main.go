package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	apphandler "investgate/internal/application/handler"
	appservice "investgate/internal/application/service"
	appstore "investgate/internal/application/store"
	appmemory "investgate/internal/application/store/memory"
	apppostgres "investgate/internal/application/store/postgres"
	"investgate/internal/audit"
	audithandler "investgate/internal/audit/handler"
	auditkafka "investgate/internal/audit/sink/kafka"
	auditmemory "investgate/internal/audit/store/memory"
	auditpostgres "investgate/internal/audit/store/postgres"
	"investgate/internal/auth"
	authhandler "investgate/internal/auth/handler"
	authservice "investgate/internal/auth/service"
	"investgate/internal/auth/store"
	"investgate/internal/auth/store/revocation"
	userstore "investgate/internal/auth/store/user"
	apirouter "investgate/internal/http"
	notifhandler "investgate/internal/notification/handler"
	notifservice "investgate/internal/notification/service"
	notifstore "investgate/internal/notification/store"
	notifmemory "investgate/internal/notification/store/memory"
	notifpostgres "investgate/internal/notification/store/postgres"
	"investgate/internal/platform/config"
	"investgate/internal/platform/httpserver"
	"investgate/internal/platform/logger"
	"investgate/internal/platform/middleware"
	platformredis "investgate/internal/platform/redis"
	"investgate/internal/token"
	"investgate/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		users         store.UserStore
		apps          appstore.ApplicationStore
		notifications notifstore.NotificationStore
		auditStore    audit.Store
		healthChecks  []apirouter.HealthCheck
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		users = userstore.NewPostgres(pool)
		apps = apppostgres.New(pool)
		notifications = notifpostgres.New(pool)
		healthChecks = append(healthChecks, apirouter.HealthCheck{Name: "postgres", Check: pool.Ping})

		db, err := auditpostgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		users = userstore.New()
		apps = appmemory.New()
		notifications = notifmemory.New()
		auditStore = auditmemory.New()
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	var revocationChecker middleware.RevocationChecker
	var authOpts []authservice.Option
	if redisClient != nil {
		defer redisClient.Close()
		list := revocation.NewRedisList(redisClient.Client)
		revocationChecker = list
		authOpts = append(authOpts, authservice.WithRevocationList(list))
		healthChecks = append(healthChecks, apirouter.HealthCheck{Name: "redis", Check: redisClient.Health})
	} else {
		log.Warn("REDIS_URL not set, logout will not revoke tokens")
	}
	authOpts = append(authOpts, authservice.WithTokenLifetime(cfg.TokenLifetime))

	recorder := audit.NewRecorder(cfg.AuditBuffer, log)
	sinks := []audit.NamedSink{{Name: "store", Sink: auditStore}}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, audit.NamedSink{Name: "kafka", Sink: kafkaSink})
	}
	worker := audit.NewWorker(recorder.Inbox(), log, sinks...)

	codec := token.NewCodec(cfg.JWTSigningKey, cfg.TokenIssuer)
	authSvc := authservice.New(users, codec, recorder, log, authOpts...)
	notifSvc := notifservice.New(notifications, log)
	appSvc := appservice.New(apps, recorder, notifSvc, log)

	authenticated := middleware.RequireAuth(codec, auth.NewDirectory(users), revocationChecker, log)
	router := apirouter.New(apirouter.Deps{
		Logger:        log,
		Auth:          authhandler.New(authSvc, log),
		Applications:  apphandler.New(appSvc, log),
		Notifications: notifhandler.New(notifSvc, log),
		Audit:         audithandler.New(auditStore, log),
		Authenticated: authenticated,
		AdminOnly:     middleware.RequireAtLeast(log, domain.RoleAdmin),
		OfficerOnly:   middleware.RequireAtLeast(log, domain.RoleOfficer),
		HealthChecks:  healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Drains audit events until shutdown; context cancellation is the
		// normal exit.
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting investgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
