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

const noteSelect = `SELECT
				n.id,
				n.task_id,
				n.user_id,
				n.content,
				n.created_at,
				n.updated_at,
				COALESCE(u.display_name, 'Unknown') AS username,
				COALESCE(u.color, '#3498db') AS user_color
				FROM notes n
				LEFT JOIN users u ON u.id = n.user_id`

func scanNote(row interface{ Scan(...any) error }) (*models.Note, error) {
	n := &models.Note{}
	err := row.Scan(
		&n.ID,
		&n.TaskID,
		&n.UserID,
		&n.Content,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.Username,
		&n.UserColor,
	)
	return n, err
}

func (s *Storage) CreateNote(ctx context.Context, note *models.Note) error {
	start := time.Now()

	query := `INSERT INTO notes (task_id, user_id, content)
				VALUES ($1, $2, $3)
				RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		note.TaskID,
		note.UserID,
		note.Content,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить заметку", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление заметки: %w", translateError(err))
	}

	warnSlow("create_note", start)
	return nil
}

func (s *Storage) GetNotesByTask(ctx context.Context, taskID int64) ([]*models.Note, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, noteSelect+` WHERE n.task_id = $1 ORDER BY n.created_at DESC`, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить заметки", err)
		return nil, fmt.Errorf("получение заметок: %w", err)
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования заметки", zap.Error(err))
			continue
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_task_notes", start)
	return notes, nil
}

func (s *Storage) GetNoteByID(ctx context.Context, id int64) (*models.Note, error) {
	start := time.Now()

	note, err := scanNote(s.pool.QueryRow(ctx, noteSelect+` WHERE n.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("получение заметки: %w", translateError(err))
	}

	warnSlow("get_note", start)
	return note, nil
}

func (s *Storage) UpdateNote(ctx context.Context, note *models.Note) error {
	start := time.Now()

	query := `UPDATE notes
			SET content = $1,
				updated_at = NOW()
			WHERE id = $2
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query, note.Content, note.ID).Scan(&note.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось обновить заметку", err)
		return fmt.Errorf("обновление заметки: %w", translateError(err))
	}

	warnSlow("update_note", start)
	return nil
}

func (s *Storage) DeleteNote(ctx context.Context, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить заметку", err)
		return fmt.Errorf("удаление заметки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление заметки: %w", repo.ErrNotFound)
	}

	warnSlow("delete_note", start)
	return nil
}
