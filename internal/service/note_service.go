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

type NoteService struct {
	repo     NoteRepository
	tasks    TaskRepository
	activity ActivityRepository
	hub      Notifier
}

func NewNoteService(noteRepo NoteRepository, taskRepo TaskRepository,
	activityRepo ActivityRepository, hub Notifier) NoteService {
	return NoteService{
		repo:     noteRepo,
		tasks:    taskRepo,
		activity: activityRepo,
		hub:      hub,
	}
}

func (s *NoteService) CreateNote(ctx context.Context, taskID, userID int64, content string) (*models.Note, error) {
	if content == "" {
		return nil, NewValidationError("content", "content is required")
	}
	if userID == 0 {
		return nil, NewValidationError("user_id", "user_id is required")
	}

	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	note := &models.Note{
		TaskID:  taskID,
		UserID:  userID,
		Content: content,
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("создание заметки: %w", err)
	}

	// перечитываем ради имени и цвета автора
	created, err := s.repo.GetNoteByID(ctx, note.ID)
	if err != nil {
		return nil, fmt.Errorf("получение заметки: %w", err)
	}

	s.hub.FireEvent(ctx, "taskmaster_note_added", map[string]any{
		"task_id": taskID,
		"note_id": created.ID,
		"user_id": created.UserID,
	})

	recordActivity(ctx, s.activity, &userID, models.ActionCreated, "note", created.ID,
		nil, nil, fmt.Sprintf("Note added to task %d", taskID))

	return created, nil
}

func (s *NoteService) GetNotesByTask(ctx context.Context, taskID int64) ([]*models.Note, error) {
	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	notes, err := s.repo.GetNotesByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение заметок: %w", err)
	}
	return notes, nil
}

func (s *NoteService) UpdateNote(ctx context.Context, id int64, content *string) (*models.Note, error) {
	note, err := s.repo.GetNoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Заметка не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound("note", id)
		}
		return nil, fmt.Errorf("получение заметки: %w", err)
	}

	if content != nil {
		if *content == "" {
			return nil, NewValidationError("content", "content cannot be empty")
		}
		note.Content = *content
	}

	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("обновление заметки: %w", err)
	}

	return note, nil
}

func (s *NoteService) DeleteNote(ctx context.Context, id int64) error {
	if err := s.repo.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("note", id)
		}
		return fmt.Errorf("удаление заметки: %w", err)
	}

	recordActivity(ctx, s.activity, nil, models.ActionDeleted, "note", id, nil, nil, "Note deleted")

	return nil
}
