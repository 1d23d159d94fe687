package service

import (
	"context"
	"errors"
	"fmt"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"

	"go.uber.org/zap"
)

type TagService struct {
	repo     TagRepository
	tasks    TaskRepository
	activity ActivityRepository
}

func NewTagService(tagRepo TagRepository, taskRepo TaskRepository, activityRepo ActivityRepository) TagService {
	return TagService{
		repo:     tagRepo,
		tasks:    taskRepo,
		activity: activityRepo,
	}
}

// CreateTag создаёт глобальный (projectID == nil) или проектный тег.
// Имя уникально внутри области видимости.
func (s *TagService) CreateTag(ctx context.Context, name, color string, projectID *int64) (*models.Tag, error) {
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if color == "" {
		color = models.DefaultTagColor
	}

	tag := &models.Tag{
		Name:      name,
		Color:     color,
		ProjectID: projectID,
	}

	if err := s.repo.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			logger.Info("Service: Тег уже существует", zap.String("name", name))
			return nil, NewAlreadyExists("tag", fmt.Sprintf("Tag '%s' already exists", name))
		}
		return nil, fmt.Errorf("создание тега: %w", err)
	}

	recordActivity(ctx, s.activity, nil, models.ActionCreated, "tag", tag.ID,
		nil, strPtr(tag.Name), fmt.Sprintf("Tag '%s' created", tag.Name))

	return tag, nil
}

func (s *TagService) GetTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.repo.GetTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение тегов: %w", err)
	}
	return tags, nil
}

func (s *TagService) UpdateTag(ctx context.Context, id int64, name, color *string) (*models.Tag, error) {
	tag, err := s.repo.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("tag", id)
		}
		return nil, fmt.Errorf("получение тега: %w", err)
	}

	if name != nil {
		if *name == "" {
			return nil, NewValidationError("name", "name cannot be empty")
		}
		tag.Name = *name
	}
	if color != nil {
		tag.Color = *color
	}

	if err := s.repo.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewAlreadyExists("tag", fmt.Sprintf("Tag '%s' already exists", tag.Name))
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("tag", id)
		}
		return nil, fmt.Errorf("обновление тега: %w", err)
	}

	return tag, nil
}

func (s *TagService) DeleteTag(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("tag", id)
		}
		return fmt.Errorf("удаление тега: %w", err)
	}

	recordActivity(ctx, s.activity, nil, models.ActionDeleted, "tag", id, nil, nil, "Tag deleted")

	return nil
}

func (s *TagService) GetTagsByTask(ctx context.Context, taskID int64) ([]*models.Tag, error) {
	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	tags, err := s.repo.GetTagsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение тегов задачи: %w", err)
	}
	return tags, nil
}

func (s *TagService) AttachTag(ctx context.Context, taskID, tagID int64) error {
	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("task", taskID)
		}
		return fmt.Errorf("получение задачи: %w", err)
	}
	if _, err := s.repo.GetTagByID(ctx, tagID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("tag", tagID)
		}
		return fmt.Errorf("получение тега: %w", err)
	}

	if err := s.repo.AttachTag(ctx, taskID, tagID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return NewAlreadyExists("task_tag", "Tag already attached to task")
		}
		return fmt.Errorf("привязка тега: %w", err)
	}

	return nil
}

func (s *TagService) DetachTag(ctx context.Context, taskID, tagID int64) error {
	if err := s.repo.DetachTag(ctx, taskID, tagID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("task_tag", tagID)
		}
		return fmt.Errorf("отвязка тега: %w", err)
	}
	return nil
}
