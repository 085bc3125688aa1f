package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chess-vn/maia/internal/app/bootstrap"
	"github.com/chess-vn/maia/internal/app/server"
	"github.com/chess-vn/maia/internal/config"
	"github.com/chess-vn/maia/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("fatal error config file", zap.Error(err))
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		logging.Fatal("invalid log level", zap.Error(err))
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to start", zap.Error(err))
	}
	defer rt.Close()

	srv := server.NewServer(server.Config{
		Port:         cfg.ServerPort,
		AuthSecret:   cfg.AuthSecret,
		MaxBatchSize: cfg.MaxBatchSize,
	}, rt.Service)
	if err := srv.Start(ctx); err != nil {
		logging.Error("server exited", zap.Error(err))
	}
}
