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

	"github.com/joho/godotenv"

	"sihacare/m/internal/api"
	"sihacare/m/internal/config"
	"sihacare/m/internal/database"
	"sihacare/m/internal/ledger"
	"sihacare/m/internal/migrations"
	"sihacare/m/internal/realtime"
	"sihacare/m/internal/scheduler"
	"sihacare/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	if cfg.SeedPath != "" {
		seed.LoadFacilities(db, cfg.SeedPath)
	}

	hub := realtime.NewHub()
	l := ledger.New(db, ledger.WithNotifier(hub))

	sched := scheduler.New(l, cfg.ExpiryWindow)
	if err := sched.Start(); err != nil {
		slog.Error("scheduler failed to start", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	handler := api.New(db, l, hub, cfg.Secret, cfg.RateLimit, cfg.RateBurst)
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		slog.Info("server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown incomplete", "error", err)
	}
}
