package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"authgate/internal/app"
	"authgate/internal/cache"
	"authgate/internal/config"
	"authgate/internal/metrics"
	"authgate/internal/model"
	"authgate/internal/pkg/jwtutil"
	"authgate/internal/pkg/password"
	mysqlClient "authgate/internal/platform/mysql"
	postgresClient "authgate/internal/platform/postgres"
	rabbitmqClient "authgate/internal/platform/rabbitmq"
	redisClient "authgate/internal/platform/redis"
	"authgate/internal/repository"
	httptransport "authgate/internal/transport/http"
	"authgate/internal/transport/http/handler"
	"authgate/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB         *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	AuthWorker *worker.AuthEventWorker

	Tokens      *jwtutil.Manager
	AuthService *app.AuthService
	Events      *rabbitmqClient.AuthEventPublisher
	Limiter     *cache.RateLimiter
	Metrics     *metrics.Metrics

	StartedAt time.Time
}

// NewCore opens the user directory and builds the authentication service only.
// It is enough for one-off commands such as the admin seed.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.UsesDefaultSecret() && !cfg.IsDev() {
		logger.Warn("jwt secret is the built-in development value", "env", cfg.App.Env)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		StartedAt: time.Now(),
	}

	if err := db.AutoMigrate(&model.User{}, &model.AuthEvent{}); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	ttl, _ := cfg.TokenTTL()
	tokens, err := jwtutil.NewManager([]byte(cfg.Auth.JWTSecret), ttl)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create token manager failed: %w", err)
	}
	a.Tokens = tokens

	authService, err := app.NewAuthService(
		repository.NewUserRepository(db),
		password.NewHasher(password.DefaultCost),
		tokens,
		app.WithLogger(logger),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create auth service failed: %w", err)
	}
	a.AuthService = authService

	return a, nil
}

// New builds the full server graph: core, redis rate limiter, auth event queue and metrics.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := a.connectBrokers(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Metrics = metrics.New()

	if cfg.Admin.SeedOnStart {
		if _, err := a.SeedAdmin(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) connectBrokers(ctx context.Context) error {
	cfg := a.Config

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.Redis = redisCli
	if cfg.RateLimit.Enabled {
		window, _ := cfg.RateLimitWindow()
		a.Limiter = cache.NewRateLimiter(redisCli, cfg.RateLimit.Max, window)
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	a.MQConn = mqConn
	a.Events = rabbitmqClient.NewAuthEventPublisher(mqConn, cfg.RabbitMQ.AuthEventQueue)

	authWorker := worker.NewAuthEventWorker(
		mqConn,
		repository.NewAuthEventRepository(a.DB),
		cfg.RabbitMQ.AuthEventQueue,
		a.Logger,
	)
	if err := authWorker.Start(ctx); err != nil {
		return fmt.Errorf("start auth event worker failed: %w", err)
	}
	a.AuthWorker = authWorker
	return nil
}

// SeedAdmin creates the configured administrator when its username is free.
func (a *App) SeedAdmin(ctx context.Context) (bool, error) {
	created, err := a.AuthService.EnsureAdmin(ctx, app.AdminSeed{
		Username: a.Config.Admin.Username,
		Email:    a.Config.Admin.Email,
		Password: a.Config.Admin.Password,
	})
	if err != nil {
		return false, err
	}
	if !created {
		a.Logger.InfoContext(ctx, "admin user already exists", "username", a.Config.Admin.Username)
	}
	return created, nil
}

func (a *App) RouterDeps() httptransport.Deps {
	deps := httptransport.Deps{
		GinMode:        a.Config.GinMode(),
		TrustedProxies: a.Config.HTTP.TrustedProxies,
		CORSOrigins:    a.Config.HTTP.CORSOrigins,
		MaxBodyBytes:   a.Config.HTTP.MaxBodyBytes,
		Gzip:           a.Config.HTTP.Gzip,
		Logger:         a.Logger,
		AuthService:    a.AuthService,
		Tokens:         a.Tokens,
		Metrics:        a.Metrics,
		Health:         handler.NewHealthHandler(a.Config.App.Name, a.Config.App.Env, a.StartedAt, a.healthChecks()),
	}
	// Typed nil pointers must not reach the router's optional interfaces.
	if a.Limiter != nil {
		deps.Limiter = a.Limiter
	}
	if a.Events != nil {
		deps.Events = a.Events
	}
	return deps
}

func (a *App) healthChecks() map[string]handler.Check {
	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	if a.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	return checks
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.AuthWorker != nil {
		a.AuthWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return mysqlClient.New(ctx, cfg.MySQLDSN())
	case config.DriverPostgres:
		return postgresClient.New(ctx, cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
