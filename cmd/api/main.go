// Command api serves the photo portfolio auth and user directory API.
//
//	@title						Photo Portfolio API
//	@version					1.0
//	@description				Authentication and user management for the photo portfolio.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/photoportfolio/portfolio-api/internal/api"
	"github.com/photoportfolio/portfolio-api/internal/api/handler"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
	"github.com/photoportfolio/portfolio-api/internal/core/service"
	mongodb "github.com/photoportfolio/portfolio-api/internal/infrastructure/db/mongo"
	redisdb "github.com/photoportfolio/portfolio-api/internal/infrastructure/db/redis"
	"github.com/photoportfolio/portfolio-api/internal/infrastructure/identity"
	"github.com/photoportfolio/portfolio-api/internal/pkg/config"
	"github.com/photoportfolio/portfolio-api/pkg/logger"
)

const (
	serviceName     = "portfolio-api"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, envconfig.OsLookuper()); err != nil {
		// Startup may fail before the configured logger exists.
		fatal := zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
		fatal.Fatal().Err(err).Msg("server stopped with error")
	}
}

// run loads configuration, initializes the process logger and serves until ctx
// is cancelled.
func run(ctx context.Context, lookuper envconfig.Lookuper) error {
	cfg, err := config.LoadWith(ctx, lookuper)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	var cache ports.PrincipalCache
	if cfg.Redis.PrincipalTTL > 0 {
		cache = redisdb.NewPrincipalCache(rdb, cfg.Redis.PrincipalTTL)
	}

	idp := identity.NewClient(identity.Config{
		BaseURL:    cfg.Identity.URL,
		ServiceKey: cfg.Identity.ServiceKey,
		Timeout:    cfg.Identity.Timeout,
	})

	authService := service.NewAuthService(users, idp, cache, service.AuthOptions{
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, log.With().Str("component", "auth").Logger())
	userService := service.NewUserService(users, idp, cache, cfg.Auth.BcryptCost,
		log.With().Str("component", "users").Logger())

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		UserService: userService,
		JWTSecret:   cfg.Auth.JWTSecret,
		HealthChecks: []handler.DependencyCheck{
			{Name: "mongodb", Check: mongodb.Pinger(mongoClient)},
			{Name: "redis", Check: redisdb.Pinger(rdb)},
		},
		Logger: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
