package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var mimeByExtension = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

type ImageService struct {
	repo      ImageRepository
	tasks     TaskRepository
	activity  ActivityRepository
	hub       Notifier
	uploadDir string
}

func NewImageService(imageRepo ImageRepository, taskRepo TaskRepository,
	activityRepo ActivityRepository, hub Notifier, uploadDir string) ImageService {
	return ImageService{
		repo:      imageRepo,
		tasks:     taskRepo,
		activity:  activityRepo,
		hub:       hub,
		uploadDir: uploadDir,
	}
}

// Upload сохраняет файл под сгенерированным именем и пишет строку в
// БД. Файл пишется до вставки строки: упасть между ними можно, тогда
// на диске останется осиротевший файл — известная щель, принятая как
// есть.
func (s *ImageService) Upload(ctx context.Context, taskID, userID int64,
	originalFilename string, file io.Reader) (*models.TaskImage, error) {

	if userID == 0 {
		return nil, NewValidationError("user_id", "user_id required")
	}
	if originalFilename == "" {
		return nil, NewValidationError("file", "No file selected")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalFilename), "."))
	mimeType, allowed := mimeByExtension[ext]
	if !allowed {
		return nil, NewValidationError("file", "Invalid file type")
	}

	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("создание директории загрузок: %w", err)
	}

	id := uuid.New()
	storedName := hex.EncodeToString(id[:]) + "." + ext
	filePath := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("создание файла: %w", err)
	}

	size, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("запись файла: %w", err)
	}

	image := &models.TaskImage{
		TaskID:           taskID,
		UserID:           userID,
		Filename:         storedName,
		OriginalFilename: filepath.Base(originalFilename),
		FilePath:         filePath,
		MimeType:         mimeType,
		FileSize:         size,
	}

	if err := s.repo.CreateImage(ctx, image); err != nil {
		return nil, fmt.Errorf("сохранение картинки: %w", err)
	}

	// перечитываем ради имени и цвета автора
	created, err := s.repo.GetImageByID(ctx, image.ID)
	if err != nil {
		return nil, fmt.Errorf("получение картинки: %w", err)
	}

	s.hub.FireEvent(ctx, "taskmaster_image_uploaded", map[string]any{
		"task_id":  taskID,
		"image_id": created.ID,
		"user_id":  created.UserID,
		"filename": created.OriginalFilename,
	})

	recordActivity(ctx, s.activity, &userID, models.ActionCreated, "image", created.ID,
		nil, strPtr(created.OriginalFilename),
		fmt.Sprintf("Image '%s' uploaded to task %d", created.OriginalFilename, taskID))

	return created, nil
}

func (s *ImageService) GetImagesByTask(ctx context.Context, taskID int64) ([]*models.TaskImage, error) {
	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	images, err := s.repo.GetImagesByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение картинок: %w", err)
	}
	return images, nil
}

// Delete убирает файл best-effort, потом строку
func (s *ImageService) Delete(ctx context.Context, id int64) error {
	image, err := s.repo.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("image", id)
		}
		return fmt.Errorf("получение картинки: %w", err)
	}

	if err := os.Remove(image.FilePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Service: Не удалось удалить файл картинки",
			zap.Error(err), zap.String("path", image.FilePath))
	}

	if err := s.repo.DeleteImage(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("image", id)
		}
		return fmt.Errorf("удаление картинки: %w", err)
	}

	recordActivity(ctx, s.activity, nil, models.ActionDeleted, "image", id,
		strPtr(image.OriginalFilename), nil,
		fmt.Sprintf("Image '%s' deleted", image.OriginalFilename))

	return nil
}

// Download возвращает метаданные картинки, если файл на месте
func (s *ImageService) Download(ctx context.Context, id int64) (*models.TaskImage, error) {
	image, err := s.repo.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("image", id)
		}
		return nil, fmt.Errorf("получение картинки: %w", err)
	}

	if _, err := os.Stat(image.FilePath); err != nil {
		logger.Warn("Service: Файл картинки отсутствует на диске",
			zap.Int64("image_id", id), zap.String("path", image.FilePath))
		return nil, NewNotFound("file", id)
	}

	return image, nil
}
