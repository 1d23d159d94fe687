package service

import (
	"context"
	"errors"
	"fmt"

	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"
)

type SubtaskService struct {
	repo  SubtaskRepository
	tasks TaskRepository
}

func NewSubtaskService(subtaskRepo SubtaskRepository, taskRepo TaskRepository) SubtaskService {
	return SubtaskService{
		repo:  subtaskRepo,
		tasks: taskRepo,
	}
}

func (s *SubtaskService) CreateSubtask(ctx context.Context, taskID int64, title string) (*models.Subtask, error) {
	if title == "" {
		return nil, NewValidationError("title", "title is required")
	}

	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	subtask := &models.Subtask{
		TaskID: taskID,
		Title:  title,
	}

	if err := s.repo.CreateSubtask(ctx, subtask); err != nil {
		return nil, fmt.Errorf("создание подзадачи: %w", err)
	}

	return subtask, nil
}

func (s *SubtaskService) GetSubtasksByTask(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	subtasks, err := s.repo.GetSubtasksByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	return subtasks, nil
}

type SubtaskUpdate struct {
	Title     *string
	Completed *bool
	Position  *int
}

func (s *SubtaskService) UpdateSubtask(ctx context.Context, id int64, update SubtaskUpdate) (*models.Subtask, error) {
	subtask, err := s.repo.GetSubtaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("subtask", id)
		}
		return nil, fmt.Errorf("получение подзадачи: %w", err)
	}

	if update.Title != nil {
		if *update.Title == "" {
			return nil, NewValidationError("title", "title cannot be empty")
		}
		subtask.Title = *update.Title
	}
	if update.Completed != nil {
		subtask.Completed = *update.Completed
	}
	if update.Position != nil {
		subtask.Position = *update.Position
	}

	if err := s.repo.UpdateSubtask(ctx, subtask); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("subtask", id)
		}
		return nil, fmt.Errorf("обновление подзадачи: %w", err)
	}

	return subtask, nil
}

func (s *SubtaskService) DeleteSubtask(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSubtask(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("subtask", id)
		}
		return fmt.Errorf("удаление подзадачи: %w", err)
	}
	return nil
}
