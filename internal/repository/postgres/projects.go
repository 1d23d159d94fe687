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

func (s *Storage) CreateProject(ctx context.Context, project *models.Project) error {
	start := time.Now()

	query := `INSERT INTO projects (name, description, status, created_by)
				VALUES ($1, $2, $3, $4)
				RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.Status,
		project.CreatedBy,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить проект", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление проекта: %w", translateError(err))
	}

	warnSlow("create_project", start)
	return nil
}

func (s *Storage) GetProjects(ctx context.Context) ([]*models.Project, error) {
	start := time.Now()

	query := `SELECT
				p.id,
				p.name,
				p.description,
				p.status,
				p.created_by,
				p.created_at,
				p.updated_at,
				(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count
				FROM projects p
				ORDER BY p.id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить проекты", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		p := &models.Project{}
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Status,
			&p.CreatedBy,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.TaskCount,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования проекта", zap.Error(err))
			continue
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_projects", start)
	return projects, nil
}

func (s *Storage) GetProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	start := time.Now()

	query := `SELECT
				p.id,
				p.name,
				p.description,
				p.status,
				p.created_by,
				p.created_at,
				p.updated_at,
				(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count
				FROM projects p
				WHERE p.id = $1`

	p := &models.Project{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.TaskCount,
	)
	if err != nil {
		return nil, fmt.Errorf("получение проекта: %w", translateError(err))
	}

	warnSlow("get_project", start)
	return p, nil
}

func (s *Storage) UpdateProject(ctx context.Context, project *models.Project) error {
	start := time.Now()

	query := `UPDATE projects
			SET name = $1,
				description = $2,
				status = $3,
				updated_at = NOW()
			WHERE id = $4
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.Status,
		project.ID,
	).Scan(&project.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось обновить проект", err)
		return fmt.Errorf("обновление проекта: %w", translateError(err))
	}

	warnSlow("update_project", start)
	return nil
}

func (s *Storage) CountProjects(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать проекты", err)
		return 0, fmt.Errorf("подсчёт проектов: %w", err)
	}
	return count, nil
}

// DeleteProjectCascade удаляет проект со всеми задачами и их
// зависимостями одной транзакцией. Возвращает пути файлов картинок,
// которые нужно убрать с диска после коммита.
func (s *Storage) DeleteProjectCascade(ctx context.Context, id int64) ([]string, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return nil, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	filePaths := []string{}
	rows, err := tx.Query(ctx,
		`SELECT file_path FROM task_images
			WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`, id)
	if err != nil {
		logger.Error("Repository: Не удалось получить файлы проекта", err)
		return nil, fmt.Errorf("получение файлов проекта: %w", err)
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

	// дети раньше родителей, иначе сработают внешние ключи
	statements := []string{
		`DELETE FROM notes WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`,
		`DELETE FROM task_images WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`,
		`DELETE FROM task_assignments WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`,
		`DELETE FROM task_tags WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`,
		`DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`,
		`DELETE FROM tasks WHERE project_id = $1`,
		`DELETE FROM task_tags WHERE tag_id IN (SELECT id FROM tags WHERE project_id = $1)`,
		`DELETE FROM tags WHERE project_id = $1`,
	}

	for _, query := range statements {
		if _, err := tx.Exec(ctx, query, id); err != nil {
			logger.Error("Repository: Ошибка каскадного удаления проекта", err)
			return nil, fmt.Errorf("каскадное удаление проекта: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить проект", err)
		return nil, fmt.Errorf("удаление проекта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("удаление проекта: %w", repo.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить транзакцию", err)
		return nil, fmt.Errorf("коммит транзакции: %w", err)
	}

	warnSlow("delete_project", start)
	return filePaths, nil
}
