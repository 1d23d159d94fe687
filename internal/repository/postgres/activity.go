package postgres

import (
	"context"
	"fmt"
	"time"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"

	"go.uber.org/zap"
)

func (s *Storage) InsertActivity(ctx context.Context, entry *models.ActivityLog) error {
	start := time.Now()

	query := `INSERT INTO activity_log
				(user_id, action, entity_type, entity_id, old_value, new_value, description)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.OldValue,
		entry.NewValue,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось записать активность", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись активности: %w", err)
	}

	warnSlow("insert_activity", start)
	return nil
}

func (s *Storage) GetRecentActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	start := time.Now()

	query := `SELECT id, user_id, action, entity_type, entity_id,
				old_value, new_value, description, created_at
				FROM activity_log
				ORDER BY created_at DESC
				LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить журнал активности", err)
		return nil, fmt.Errorf("получение журнала активности: %w", err)
	}
	defer rows.Close()

	entries := []*models.ActivityLog{}
	for rows.Next() {
		e := &models.ActivityLog{}
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.OldValue,
			&e.NewValue,
			&e.Description,
			&e.CreatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования записи активности", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_recent_activity", start)
	return entries, nil
}
