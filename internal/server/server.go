// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled in one place:
//
//	store backend (memory or sqlite) → services → handlers → routes
//
// main.go stays minimal: read config, build a logger, call New, call Start.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sameen/creature-forge/internal/auth"
	"github.com/sameen/creature-forge/internal/handler"
	"github.com/sameen/creature-forge/internal/imagegen"
	"github.com/sameen/creature-forge/internal/middleware"
	"github.com/sameen/creature-forge/internal/repository"
	"github.com/sameen/creature-forge/internal/repository/memory"
	sqliteRepo "github.com/sameen/creature-forge/internal/repository/sqlite"
	"github.com/sameen/creature-forge/internal/service"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port      int
	JWTSecret string

	// DBPath selects the storage backend: empty means the in-memory stores
	// (the default — state lives for the process lifetime only), anything
	// else is a SQLite database path.
	DBPath string

	// Google OAuth credentials. When ClientID or ClientSecret is empty the
	// OAuth routes are not registered; demo login still works.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// FrontendURL is where the browser app lives — the target for OAuth
	// redirects and the base of generated share links.
	FrontendURL string
}

// Server owns the router and any resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	closer io.Closer // sqlite connection when that backend is active, else nil
}

// New assembles the full dependency graph and returns a ready Server.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	// === STORAGE BACKEND ===
	// Both backends implement the same repository interfaces; everything
	// above this block is identical either way.
	var (
		users     repository.UserRepository
		creatures repository.CreatureRepository
		shares    repository.ShareRepository
		closer    io.Closer
	)
	if cfg.DBPath != "" {
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		users, creatures, shares, closer = db, db, db, db
		logger.Info("using sqlite storage", slog.String("path", cfg.DBPath))
	} else {
		store := memory.New()
		users, creatures, shares = store, store, store
		logger.Info("using in-memory storage (state is process-lifetime only)")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		closer: closer,
	}

	// === SERVICES ===
	authSvc := service.NewAuthService(users, tokens, logger)
	creatureSvc := service.NewCreatureService(creatures, shares,
		imagegen.New(imagegen.DefaultConfig()), logger)

	// === OAUTH PROVIDER (optional) ===
	var google *auth.GoogleProvider
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	} else {
		logger.Warn("Google OAuth not configured — only demo login is available")
	}

	s.setupRoutes(tokens, google, authSvc, creatureSvc)
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /health                   → liveness probe
//	GET    /auth/google/login        → redirect to Google (if configured)
//	GET    /auth/google/callback     → complete OAuth, set cookie, redirect
//	POST   /auth/demo                → username login, set cookie
//	POST   /auth/logout              → clear cookie
//	GET    /api/options              → pick lists (public)
//	GET    /api/shares/{shareId}     → resolve share (public, no gate)
//	GET    /api/me                   → caller identity        (auth)
//	POST   /api/creatures            → generate               (auth)
//	GET    /api/creatures            → list own collection    (auth)
//	DELETE /api/creatures/{id}       → delete own creature    (auth)
//	POST   /api/shares               → mint share link        (auth)
//
// MIDDLEWARE ORDER MATTERS: RequestID must precede the logger (which reads
// it), Recoverer must wrap everything that can panic, and the CORS handler
// must answer preflights before the auth gate rejects them.
func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	google *auth.GoogleProvider,
	authSvc *service.AuthService,
	creatureSvc *service.CreatureService,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The frontend runs on its own origin in development, and the session
	// cookie must survive the cross-origin fetch — hence AllowCredentials
	// and echoing the caller's origin instead of "*" (the two are mutually
	// exclusive per the fetch spec).
	s.router.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(google, authSvc, s.config.FrontendURL, s.logger)
	creatureHandler := handler.NewCreatureHandler(creatureSvc, s.logger)
	shareHandler := handler.NewShareHandler(creatureSvc, s.config.FrontendURL, s.logger)

	s.router.Get("/health", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		if google != nil {
			r.Get("/google/login", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
		}
		r.Post("/demo", authHandler.HandleDemoLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public routes — the share resolve path deliberately bypasses the
		// auth gate: possession of the share id is the whole access model.
		r.Get("/options", handler.HandleOptions)
		r.Get("/shares/{shareId}", shareHandler.HandleResolve)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/creatures", creatureHandler.HandleGenerate)
			r.Get("/creatures", creatureHandler.HandleList)
			r.Delete("/creatures/{id}", creatureHandler.HandleDelete)
			r.Post("/shares", shareHandler.HandleCreate)
		})
	})
}

// Router exposes the configured router, mainly for tests that want to drive
// the full middleware chain with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server and handles graceful shutdown.
//
// On SIGINT/SIGTERM:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the storage backend (flushes SQLite, releases the file lock)
func (s *Server) Start() error {
	if s.closer != nil {
		defer s.closer.Close()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
