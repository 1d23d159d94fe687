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

func (s *Storage) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	start := time.Now()

	// новая подзадача встаёт в конец списка
	query := `INSERT INTO subtasks (task_id, title, completed, position)
				VALUES ($1, $2, $3,
					(SELECT COALESCE(MAX(position) + 1, 0) FROM subtasks WHERE task_id = $1))
				RETURNING id, position, created_at`

	err := s.pool.QueryRow(ctx, query,
		subtask.TaskID,
		subtask.Title,
		subtask.Completed,
	).Scan(&subtask.ID, &subtask.Position, &subtask.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить подзадачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление подзадачи: %w", translateError(err))
	}

	warnSlow("create_subtask", start)
	return nil
}

func (s *Storage) GetSubtasksByTask(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	start := time.Now()

	query := `SELECT id, task_id, title, completed, position, created_at
				FROM subtasks
				WHERE task_id = $1
				ORDER BY position`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить подзадачи", err)
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	defer rows.Close()

	subtasks := []*models.Subtask{}
	for rows.Next() {
		st := &models.Subtask{}
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed, &st.Position, &st.CreatedAt); err != nil {
			logger.Warn("Repository: Ошибка сканирования подзадачи", zap.Error(err))
			continue
		}
		subtasks = append(subtasks, st)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_task_subtasks", start)
	return subtasks, nil
}

func (s *Storage) GetSubtaskByID(ctx context.Context, id int64) (*models.Subtask, error) {
	start := time.Now()

	st := &models.Subtask{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, task_id, title, completed, position, created_at FROM subtasks WHERE id = $1`, id).
		Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed, &st.Position, &st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("получение подзадачи: %w", translateError(err))
	}

	warnSlow("get_subtask", start)
	return st, nil
}

func (s *Storage) UpdateSubtask(ctx context.Context, subtask *models.Subtask) error {
	start := time.Now()

	query := `UPDATE subtasks
			SET title = $1,
				completed = $2,
				position = $3
			WHERE id = $4`

	result, err := s.pool.Exec(ctx, query,
		subtask.Title,
		subtask.Completed,
		subtask.Position,
		subtask.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить подзадачу", err)
		return fmt.Errorf("обновление подзадачи: %w", translateError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("обновление подзадачи: %w", repo.ErrNotFound)
	}

	warnSlow("update_subtask", start)
	return nil
}

func (s *Storage) DeleteSubtask(ctx context.Context, id int64) error {
	start := time.Now()

	result, err := s.pool.Exec(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить подзадачу", err)
		return fmt.Errorf("удаление подзадачи: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("удаление подзадачи: %w", repo.ErrNotFound)
	}

	warnSlow("delete_subtask", start)
	return nil
}
