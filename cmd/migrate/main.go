package main

import (
	"context"
	"log"
	"time"

	"taskmaster/internal/config"
	"taskmaster/internal/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Миграция почтовой подсистемы для баз, созданных до её появления:
// колонки настроек уведомлений у пользователей, таблицы
// system_settings и notification_log. Повторный запуск безопасен.
var statements = []string{
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS email TEXT`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS email_notifications BOOLEAN NOT NULL DEFAULT TRUE`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS notify_on_assignment BOOLEAN NOT NULL DEFAULT TRUE`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS notify_on_status_change BOOLEAN NOT NULL DEFAULT TRUE`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS notify_on_comment BOOLEAN NOT NULL DEFAULT TRUE`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS notify_on_mention BOOLEAN NOT NULL DEFAULT TRUE`,

	`CREATE TABLE IF NOT EXISTS system_settings (
		key VARCHAR(100) PRIMARY KEY,
		value TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS notification_log (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT REFERENCES users(id),
		kind VARCHAR(50) NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		success BOOLEAN NOT NULL DEFAULT TRUE,
		error TEXT
	)`,

	`INSERT INTO system_settings (key, value) VALUES
		('smtp_host', ''),
		('smtp_port', '587'),
		('smtp_user', ''),
		('smtp_from', 'taskmaster@localhost'),
		('smtp_use_tls', 'true')
	ON CONFLICT (key) DO NOTHING`,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		log.Fatalf("инициализация логгера: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Migrate: не удалось подключиться к базе", err)
		log.Fatal(err)
	}
	defer conn.Close(ctx)

	for i, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			logger.Error("Migrate: ошибка выполнения", err, zap.Int("statement", i))
			log.Fatal(err)
		}
	}

	logger.Info("Migrate: почтовая схема на месте",
		zap.Int("statements", len(statements)))
}
