package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wichananm65/signup-wizard/internal/config"
	"github.com/wichananm65/signup-wizard/internal/infrastructure/database"
	"github.com/wichananm65/signup-wizard/internal/logging"
	"github.com/wichananm65/signup-wizard/internal/server"
)

func main() {
	ctx := context.Background()
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error").Error(ctx, "load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogLevel)
	if envErr != nil {
		log.Debug(ctx, "no .env file found; relying on existing environment")
	}

	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Error(ctx, "open store", "driver", cfg.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(cfg, store.Repo, log)

	go func() {
		log.Info(ctx, "signup wizard listening", "addr", cfg.Addr, "driver", store.Kind, "client_step_policy", cfg.ClientStepPolicy.String())
		if err := srv.Start(); err != nil {
			log.Error(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Warn(ctx, "graceful shutdown error", "error", err)
	}
}
