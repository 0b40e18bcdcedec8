package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/storefront-admin/internal/config"
	"github.com/dimitrije/storefront-admin/internal/database"
	"github.com/dimitrije/storefront-admin/internal/docstore"
	"github.com/dimitrije/storefront-admin/internal/handlers"
	"github.com/dimitrije/storefront-admin/internal/logger"
	authmw "github.com/dimitrije/storefront-admin/internal/middleware"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/dimitrije/storefront-admin/internal/services"
	"github.com/dimitrije/storefront-admin/internal/session"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"go.uber.org/zap"
)

type backend struct {
	users  repository.UserStore
	tokens repository.TokenStore
	pinger handlers.Pinger
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	defer store.close()

	sessions, closeSessions, err := openSessions(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	defer closeSessions()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(store.users)
	reconciler := services.NewIdentityReconciler(store.users)

	authHandler := handlers.NewAuthHandler(cfg, reconciler, userService, store.tokens, jwtService, sessions, log)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(userService, log)
	healthHandler := handlers.NewHealthHandler(store.pinger, cfg.DatabaseDriver)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/login", authHandler.Login)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)
	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	adminGroup := api.Group("/admin")
	adminGroup.Use(authmw.Auth(jwtService))
	adminGroup.Use(authmw.RequireRole(models.RoleAdmin))

	adminGroup.Get("/users", adminHandler.ListUsers)
	adminGroup.Get("/users/:id", adminHandler.GetUser)
	adminGroup.Patch("/users/:id/role", adminHandler.SetRole)

	api.Get("/health", healthHandler.Check)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.tokens.CleanupExpired(ctx); err != nil {
					log.Warn("failed to clean up expired refresh tokens", zap.Error(err))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("database", cfg.DatabaseDriver),
			zap.Strings("providers", authHandler.Providers()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		store, err := docstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := docstore.Migrate(ctx, store.DB); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return &backend{
			users:  repository.NewMongoUserRepository(store.DB),
			tokens: repository.NewMongoTokenRepository(store.DB),
			pinger: store,
			close:  func() { _ = store.Close(context.Background()) },
		}, nil

	default:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{
			users:  repository.NewPgUserRepository(db),
			tokens: repository.NewPgTokenRepository(db),
			pinger: db,
			close:  db.Close,
		}, nil
	}
}

func openSessions(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS_ADDR not set, keeping oauth state in memory")
		mem := session.NewMemoryStore()
		go mem.RunCleanup(ctx, time.Minute)
		return mem, func() {}, nil
	}

	client, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}
