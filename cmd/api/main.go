package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ramtsps/Art-Academy-Website/internal/bootstrap"
	"github.com/ramtsps/Art-Academy-Website/internal/catalog"
	"github.com/ramtsps/Art-Academy-Website/internal/config"
	httptransport "github.com/ramtsps/Art-Academy-Website/internal/http"
	"github.com/ramtsps/Art-Academy-Website/internal/http/handler"
	httpmiddleware "github.com/ramtsps/Art-Academy-Website/internal/http/middleware"
	"github.com/ramtsps/Art-Academy-Website/internal/jwt"
	"github.com/ramtsps/Art-Academy-Website/internal/mail"
	apimiddleware "github.com/ramtsps/Art-Academy-Website/internal/middleware"
	"github.com/ramtsps/Art-Academy-Website/internal/notify"
	"github.com/ramtsps/Art-Academy-Website/internal/repository"
	"github.com/ramtsps/Art-Academy-Website/internal/server"
	"github.com/ramtsps/Art-Academy-Website/internal/service"
	"github.com/ramtsps/Art-Academy-Website/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newRedisClient,
			newMailer,
			newNotifier,
			newTokenGenerator,
			service.NewAuthService,
			newCatalogClient,
			newCatalogCache,
			newCatalogService,
			handler.NewAuthHandler,
			handler.NewCatalogHandler,
			newAuthMiddleware,
			newRateLimiter,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, runMigrations, bootstrap.EnsureAdmin, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newMailer(cfg config.Config) mail.Mailer {
	return mail.NewSMTPMailer(cfg)
}

func newNotifier(lc fx.Lifecycle, mailer mail.Mailer, cfg config.Config, logger *zap.Logger) service.Notifier {
	notifier := notify.NewNotifier(mailer, cfg.MailQueueSize, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			notifier.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return notifier.Stop(ctx)
		},
	})
	return notifier
}

func newTokenGenerator(cfg config.Config) *jwt.Generator {
	return jwt.NewGenerator(cfg.JWTSecret, cfg.TokenTTL, cfg.ServiceName)
}

func newCatalogClient(cfg config.Config) catalog.Client {
	return catalog.NewHTTPClient(cfg, &http.Client{Timeout: 10 * time.Second})
}

func newCatalogCache(client redis.UniversalClient) catalog.Cache {
	return catalog.NewRedisCache(client)
}

func newCatalogService(client catalog.Client, cache catalog.Cache, cfg config.Config, logger *zap.Logger) *catalog.Service {
	return catalog.NewService(client, cache, cfg.CatalogCacheTTL, logger)
}

func newAuthMiddleware(authService *service.AuthService) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Verifier: authService}
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func runMigrations(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repository.Migrate(ctx, cfg.DatabaseURL, logger)
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, logger *zap.Logger) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
