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

// поля задачи вместе с денормализацией для ответов API: имя и цвет
// автора/исполнителя, счётчики заметок и картинок. Потерянный автор
// превращается в заглушку "Unknown", а не в ошибку.
const taskSelect = `SELECT
				t.id,
				t.project_id,
				t.title,
				t.description,
				t.status,
				t.priority,
				t.assigned_to,
				t.created_by,
				t.created_at,
				t.updated_at,
				t.started_at,
				t.estimated_completion,
				t.completed_at,
				COALESCE(c.display_name, 'Unknown') AS creator_name,
				COALESCE(c.color, '#3498db') AS creator_color,
				a.display_name AS assignee_name,
				a.color AS assignee_color,
				(SELECT COUNT(*) FROM notes n WHERE n.task_id = t.id) AS note_count,
				(SELECT COUNT(*) FROM task_images i WHERE i.task_id = t.id) AS image_count
				FROM tasks t
				LEFT JOIN users c ON c.id = t.created_by
				LEFT JOIN users a ON a.id = t.assigned_to`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.StartedAt,
		&t.EstimatedCompletion,
		&t.CompletedAt,
		&t.CreatorName,
		&t.CreatorColor,
		&t.AssigneeName,
		&t.AssigneeColor,
		&t.NoteCount,
		&t.ImageCount,
	)
	return t, err
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(project_id, title, description, status, priority, assigned_to,
				created_by, started_at, estimated_completion)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssignedTo,
		task.CreatedBy,
		task.StartedAt,
		task.EstimatedCompletion,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", translateError(err))
	}

	warnSlow("create_task", start)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	start := time.Now()

	task, err := scanTask(s.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("получение задачи: %w", translateError(err))
	}

	warnSlow("get_task", start)
	return task, nil
}

func (s *Storage) GetTasksByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, taskSelect+` WHERE t.project_id = $1 ORDER BY t.id`, projectID)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_project_tasks", start)
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				assigned_to = $5,
				started_at = $6,
				estimated_completion = $7,
				completed_at = $8,
				updated_at = NOW()
			WHERE id = $9
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssignedTo,
		task.StartedAt,
		task.EstimatedCompletion,
		task.CompletedAt,
		task.ID,
	).Scan(&task.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", translateError(err))
	}

	warnSlow("update_task", start)
	return nil
}

// DeleteTaskCascade удаляет задачу с заметками, картинками,
// назначениями, тегами и подзадачами одной транзакцией. Возвращает
// пути файлов картинок для удаления с диска после коммита.
func (s *Storage) DeleteTaskCascade(ctx context.Context, id int64) ([]string, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return nil, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	filePaths := []string{}
	rows, err := tx.Query(ctx, `SELECT file_path FROM task_images WHERE task_id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось получить файлы задачи", err)
		return nil, fmt.Errorf("получение файлов задачи: %w", err)
	}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			logger.Warn("Repository: Ошибка сканирования пути файла", zap.Error(err))
			continue
		}
		filePaths = append(filePaths, path)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	statements := []string{
		`DELETE FROM notes WHERE task_id = $1`,
		`DELETE FROM task_images WHERE task_id = $1`,
		`DELETE FROM task_assignments WHERE task_id = $1`,
		`DELETE FROM task_tags WHERE task_id = $1`,
		`DELETE FROM subtasks WHERE task_id = $1`,
	}

	for _, query := range statements {
		if _, err := tx.Exec(ctx, query, id); err != nil {
			logger.Error("Repository: Ошибка каскадного удаления задачи", err)
			return nil, fmt.Errorf("каскадное удаление задачи: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return nil, fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("удаление задачи: %w", repo.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить транзакцию", err)
		return nil, fmt.Errorf("коммит транзакции: %w", err)
	}

	warnSlow("delete_task", start)
	return filePaths, nil
}

func (s *Storage) CountTasksByStatus(ctx context.Context) (map[models.TaskStatus]int, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, fmt.Errorf("подсчёт задач по статусам: %w", err)
	}
	defer rows.Close()

	counts := map[models.TaskStatus]int{}
	for rows.Next() {
		var status models.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			logger.Warn("Repository: Ошибка сканирования статистики", zap.Error(err))
			continue
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("count_tasks_by_status", start)
	return counts, nil
}

func (s *Storage) GetRecentTasks(ctx context.Context, limit int) ([]*models.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, taskSelect+` ORDER BY t.updated_at DESC LIMIT $1`, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение последних задач: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_recent_tasks", start)
	return tasks, nil
}
