package postgres

import (
	"context"
	"fmt"
	"time"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"

	"go.uber.org/zap"
)

func (s *Storage) CreateTag(ctx context.Context, tag *models.Tag) error {
	start := time.Now()

	query := `INSERT INTO tags (name, color, project_id)
				VALUES ($1, $2, $3)
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		tag.Name,
		tag.Color,
		tag.ProjectID,
	).Scan(&tag.ID, &tag.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить тег", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление тега: %w", translateError(err))
	}

	warnSlow("create_tag", start)
	return nil
}

func (s *Storage) GetTags(ctx context.Context) ([]*models.Tag, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, color, project_id, created_at FROM tags ORDER BY name`)
	if err != nil {
		logger.Error("Repository: Не удалось получить теги", err)
		return nil, fmt.Errorf("получение тегов: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.ProjectID, &t.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования тега", zap.Error(err))
			continue
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_tags", start)
	return tags, nil
}

func (s *Storage) GetTagByID(ctx context.Context, id int64) (*models.Tag, error) {
	start := time.Now()

	t := &models.Tag{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, color, project_id, created_at FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.ProjectID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("получение тега: %w", translateError(err))
	}

	warnSlow("get_tag", start)
	return t, nil
}

func (s *Storage) UpdateTag(ctx context.Context, tag *models.Tag) error {
	start := time.Now()

	query := `UPDATE tags
			SET name = $1,
				color = $2
			WHERE id = $3`

	result, err := s.pool.Exec(ctx, query, tag.Name, tag.Color, tag.ID)
	if err != nil {
		logger.Error("Repository: Не удалось обновить тег", err)
		return fmt.Errorf("обновление тега: %w", translateError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("обновление тега: %w", repo.ErrNotFound)
	}

	warnSlow("update_tag", start)
	return nil
}

// DeleteTag убирает тег вместе с привязками к задачам
func (s *Storage) DeleteTag(ctx context.Context, id int64) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM task_tags WHERE tag_id = $1`, id); err != nil {
		logger.Error("Repository: Не удалось удалить привязки тега", err)
		return fmt.Errorf("удаление привязок тега: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить тег", err)
		return fmt.Errorf("удаление тега: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("удаление тега: %w", repo.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить транзакцию", err)
		return fmt.Errorf("коммит транзакции: %w", err)
	}

	warnSlow("delete_tag", start)
	return nil
}

func (s *Storage) GetTagsByTask(ctx context.Context, taskID int64) ([]*models.Tag, error) {
	start := time.Now()

	query := `SELECT t.id, t.name, t.color, t.project_id, t.created_at
				FROM tags t
				JOIN task_tags tt ON tt.tag_id = t.id
				WHERE tt.task_id = $1
				ORDER BY t.name`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить теги задачи", err)
		return nil, fmt.Errorf("получение тегов задачи: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.ProjectID, &t.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования тега", zap.Error(err))
			continue
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_task_tags", start)
	return tags, nil
}

func (s *Storage) AttachTag(ctx context.Context, taskID, tagID int64) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`, taskID, tagID)
	if err != nil {
		logger.Error("Repository: Не удалось привязать тег", err)
		return fmt.Errorf("привязка тега: %w", translateError(err))
	}

	warnSlow("attach_tag", start)
	return nil
}

func (s *Storage) DetachTag(ctx context.Context, taskID, tagID int64) error {
	start := time.Now()

	result, err := s.pool.Exec(ctx,
		`DELETE FROM task_tags WHERE task_id = $1 AND tag_id = $2`, taskID, tagID)
	if err != nil {
		logger.Error("Repository: Не удалось отвязать тег", err)
		return fmt.Errorf("отвязка тега: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("отвязка тега: %w", repo.ErrNotFound)
	}

	warnSlow("detach_tag", start)
	return nil
}
