package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"taskmaster/internal/app"
	"taskmaster/internal/config"
	"taskmaster/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		log.Fatalf("инициализация: %v", err)
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		logger.Error("Сервер завершился с ошибкой", err)
	}
}
