package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"transmute/internal/config"
	"transmute/internal/engine"
	"transmute/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "workerd.yml", "daemon config file (optional)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadDaemon(*cfgPath)
	if err != nil {
		logging.L().Error("config", "path", *cfgPath, "err", err)
		os.Exit(1)
	}
	logging.Configure(logOptions(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.Bootstrap(ctx, cfg)
	if err != nil {
		logging.L().Error("bootstrap", "err", err)
		os.Exit(1)
	}
	if err := e.Run(ctx); err != nil {
		logging.L().Error("engine", "err", err)
		os.Exit(1)
	}
}

func logOptions(cfg config.Daemon) logging.Options {
	return logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON}
}
