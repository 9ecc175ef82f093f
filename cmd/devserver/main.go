// Command devserver runs the in-memory playground API for local
// development: an ephemeral stand-in for the real service, reachable at
// http://localhost:3001 by default so the CLI works against it out of the
// box. All state is lost on exit.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sakif/playground-cli/internal/devserver"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 3001
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// Any fixed secret works: tokens only need to survive this process.
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "devserver-local-secret-key"
	}

	srv, err := devserver.New(devserver.Config{JWTSecret: secret}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("dev server starting",
		slog.Int("port", port),
		slog.String("url", fmt.Sprintf("http://localhost:%d", port)),
	)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
