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

const imageSelect = `SELECT
				i.id,
				i.task_id,
				i.user_id,
				i.filename,
				i.original_filename,
				i.file_path,
				i.mime_type,
				i.file_size,
				i.created_at,
				COALESCE(u.display_name, 'Unknown') AS username,
				COALESCE(u.color, '#3498db') AS user_color
				FROM task_images i
				LEFT JOIN users u ON u.id = i.user_id`

func scanImage(row interface{ Scan(...any) error }) (*models.TaskImage, error) {
	img := &models.TaskImage{}
	err := row.Scan(
		&img.ID,
		&img.TaskID,
		&img.UserID,
		&img.Filename,
		&img.OriginalFilename,
		&img.FilePath,
		&img.MimeType,
		&img.FileSize,
		&img.CreatedAt,
		&img.Username,
		&img.UserColor,
	)
	return img, err
}

func (s *Storage) CreateImage(ctx context.Context, image *models.TaskImage) error {
	start := time.Now()

	query := `INSERT INTO task_images
				(task_id, user_id, filename, original_filename, file_path, mime_type, file_size)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		image.TaskID,
		image.UserID,
		image.Filename,
		image.OriginalFilename,
		image.FilePath,
		image.MimeType,
		image.FileSize,
	).Scan(&image.ID, &image.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить картинку", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление картинки: %w", translateError(err))
	}

	warnSlow("create_image", start)
	return nil
}

func (s *Storage) GetImagesByTask(ctx context.Context, taskID int64) ([]*models.TaskImage, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, imageSelect+` WHERE i.task_id = $1 ORDER BY i.created_at DESC`, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить картинки", err)
		return nil, fmt.Errorf("получение картинок: %w", err)
	}
	defer rows.Close()

	images := []*models.TaskImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования картинки", zap.Error(err))
			continue
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_task_images", start)
	return images, nil
}

func (s *Storage) GetImageByID(ctx context.Context, id int64) (*models.TaskImage, error) {
	start := time.Now()

	img, err := scanImage(s.pool.QueryRow(ctx, imageSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("получение картинки: %w", translateError(err))
	}

	warnSlow("get_image", start)
	return img, nil
}

func (s *Storage) DeleteImage(ctx context.Context, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM task_images WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить картинку", err)
		return fmt.Errorf("удаление картинки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление картинки: %w", repo.ErrNotFound)
	}

	warnSlow("delete_image", start)
	return nil
}
