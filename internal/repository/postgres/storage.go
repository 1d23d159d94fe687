package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"taskmaster/internal/config"
	"taskmaster/internal/logger"
	repo "taskmaster/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnIdleTime = cfg.IdleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	for _, name := range []string{"migrations/001_init.up.sql", "migrations/002_indexes.up.sql"} {
		query, err := migrationFiles.ReadFile(name)
		if err != nil {
			logger.Error("Repository: Не удалось прочитать миграцию", err, zap.String("file", name))
			return fmt.Errorf("чтение миграции %s: %w", name, err)
		}

		_, err = s.pool.Exec(ctx, string(query))
		if err != nil {
			logger.Error("Repository: Не удалось применить миграцию", err, zap.String("file", name))
			return fmt.Errorf("применение миграции %s: %w", name, err)
		}
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	for _, name := range []string{"migrations/002_indexes.down.sql", "migrations/001_init.down.sql"} {
		query, err := migrationFiles.ReadFile(name)
		if err != nil {
			logger.Error("Repository: Не удалось прочитать миграцию", err, zap.String("file", name))
			return fmt.Errorf("чтение миграции %s: %w", name, err)
		}

		_, err = s.pool.Exec(ctx, string(query))
		if err != nil {
			logger.Error("Repository: Не удалось откатить миграцию", err, zap.String("file", name))
			return fmt.Errorf("откат миграции %s: %w", name, err)
		}
	}

	logger.Info("Repository: Миграции откатились")
	return nil
}

// переводит ошибки pgx в ошибки-сентинелы репозитория
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repo.ErrDuplicate
	}

	return err
}

func warnSlow(operation string, start time.Time) {
	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
	}
}
