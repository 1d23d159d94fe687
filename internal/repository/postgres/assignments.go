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

const assignmentSelect = `SELECT
				a.id,
				a.task_id,
				a.user_id,
				a.assigned_by,
				a.assigned_at,
				COALESCE(u.display_name, 'Unknown') AS username,
				COALESCE(u.color, '#3498db') AS user_color,
				COALESCE(b.display_name, 'Unknown') AS assigner_name,
				COALESCE(b.color, '#3498db') AS assigner_color
				FROM task_assignments a
				LEFT JOIN users u ON u.id = a.user_id
				LEFT JOIN users b ON b.id = a.assigned_by`

func scanAssignment(row interface{ Scan(...any) error }) (*models.TaskAssignment, error) {
	a := &models.TaskAssignment{}
	err := row.Scan(
		&a.ID,
		&a.TaskID,
		&a.UserID,
		&a.AssignedBy,
		&a.AssignedAt,
		&a.Username,
		&a.UserColor,
		&a.AssignerName,
		&a.AssignerColor,
	)
	return a, err
}

func (s *Storage) CreateAssignment(ctx context.Context, assignment *models.TaskAssignment) error {
	start := time.Now()

	query := `INSERT INTO task_assignments (task_id, user_id, assigned_by)
				VALUES ($1, $2, $3)
				RETURNING id, assigned_at`

	err := s.pool.QueryRow(ctx, query,
		assignment.TaskID,
		assignment.UserID,
		assignment.AssignedBy,
	).Scan(&assignment.ID, &assignment.AssignedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить назначение", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление назначения: %w", translateError(err))
	}

	warnSlow("create_assignment", start)
	return nil
}

func (s *Storage) GetAssignmentsByTask(ctx context.Context, taskID int64) ([]*models.TaskAssignment, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, assignmentSelect+` WHERE a.task_id = $1 ORDER BY a.assigned_at`, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить назначения", err)
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	defer rows.Close()

	assignments := []*models.TaskAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования назначения", zap.Error(err))
			continue
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_task_assignments", start)
	return assignments, nil
}

func (s *Storage) GetAssignmentByID(ctx context.Context, id int64) (*models.TaskAssignment, error) {
	start := time.Now()

	a, err := scanAssignment(s.pool.QueryRow(ctx, assignmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("получение назначения: %w", translateError(err))
	}

	warnSlow("get_assignment", start)
	return a, nil
}

func (s *Storage) DeleteAssignment(ctx context.Context, id int64) error {
	start := time.Now()

	result, err := s.pool.Exec(ctx, `DELETE FROM task_assignments WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить назначение", err)
		return fmt.Errorf("удаление назначения: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("удаление назначения: %w", repo.ErrNotFound)
	}

	warnSlow("delete_assignment", start)
	return nil
}
