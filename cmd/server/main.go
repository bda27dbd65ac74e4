// Package main is the entry point for the creature forge server.
//
// The main package is kept minimal — its job is to:
// 1. Read configuration (env vars, with .env loaded first for local dev)
// 2. Create the logger
// 3. Hand everything to internal/server and start it
//
// All actual logic lives in imported packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sameen/creature-forge/internal/server"
)

func main() {
	// Load .env if present; real environment variables win over file values.
	// Missing file is fine — production sets the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 3000
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// JWT_SECRET must be a long random string in production:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// The dev fallback keeps the server bootable out of the box but is
	// loudly logged — a signed token is only as secret as this value.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-do-not-use-in-prod"
		logger.Warn("JWT_SECRET not set — using an insecure development secret")
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:8080"
	}

	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")
	if googleCallbackURL == "" {
		googleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", port)
	}

	cfg := server.Config{
		Port:               port,
		JWTSecret:          jwtSecret,
		DBPath:             os.Getenv("DB_PATH"), // empty → in-memory stores
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  googleCallbackURL,
		FrontendURL:        frontendURL,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
