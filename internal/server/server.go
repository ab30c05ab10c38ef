package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inventory-api/internal/config"
	custommiddleware "inventory-api/internal/middleware"
	"inventory-api/internal/service"
	"inventory-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	storage *Storage
}

// NewServer opens storage, seeds it when configured and wires the routes
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Seed.Enabled {
		if err := seed(ctx, cfg.Seed, storage, logger); err != nil {
			_ = storage.Close()
			return nil, err
		}
	}

	// Initialize services
	tokens := service.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.SessionTTL)
	authService := service.NewAuthService(storage.Users, storage.Sessions, tokens, service.AuthConfig{
		AdminCode:  cfg.Auth.AdminCode,
		SessionTTL: cfg.Auth.SessionTTL,
	}, logger)
	catalogService := service.NewCatalogService(storage.Products, authService, logger)

	// Create router
	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health, ok := storage.Health(r.Context())
		code := http.StatusOK
		health["status"] = "ok"
		if !ok {
			code = http.StatusServiceUnavailable
			health["status"] = "degraded"
		}
		custommiddleware.RespondWithJSON(w, code, health)
	})

	var limit func(http.Handler) http.Handler
	if storage.Redis != nil {
		limit = custommiddleware.RateLimitMiddleware(storage.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:auth",
		}, logger)
	}

	// Register routes
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.Authenticate(authService, logger))

		transport.NewAuthHandler(authService, logger).RegisterRoutes(r, limit)
		transport.NewProductHandler(catalogService, logger).RegisterRoutes(r, custommiddleware.RequireAuth(logger))
		transport.NewInsightHandler(catalogService, logger).RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		storage: storage,
	}

	return server, nil
}

func seed(ctx context.Context, cfg config.SeedConfig, storage *Storage, logger *zap.Logger) error {
	fixture, err := service.LoadFixture(cfg.File)
	if err != nil {
		return err
	}
	if err := service.Seed(ctx, fixture, storage.Users, storage.Products, logger); err != nil {
		return fmt.Errorf("failed to seed storage: %w", err)
	}
	return nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.storage.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
		return err
	}

	_ = s.logger.Sync()
	return nil
}
