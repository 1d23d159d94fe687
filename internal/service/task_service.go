package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"

	"go.uber.org/zap"
)

type TaskService struct {
	repo     TaskRepository
	projects ProjectRepository
	activity ActivityRepository
	hub      Notifier
}

func NewTaskService(taskRepo TaskRepository, projectRepo ProjectRepository,
	activityRepo ActivityRepository, hub Notifier) TaskService {
	return TaskService{
		repo:     taskRepo,
		projects: projectRepo,
		activity: activityRepo,
		hub:      hub,
	}
}

type TaskCreate struct {
	Title               string
	Description         string
	Status              models.TaskStatus
	Priority            models.TaskPriority
	AssignedTo          *int64
	CreatedBy           int64
	EstimatedCompletion *time.Time
}

func (s *TaskService) CreateTask(ctx context.Context, projectID int64, req TaskCreate) (*models.Task, error) {
	if req.Title == "" {
		return nil, NewValidationError("title", "title is required")
	}
	if req.CreatedBy == 0 {
		return nil, NewValidationError("created_by", "created_by is required")
	}
	if req.Status == "" {
		req.Status = models.StatusStarting
	}
	if !req.Status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("invalid status '%s'", req.Status))
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("invalid priority '%s'", req.Priority))
	}

	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("project", projectID)
		}
		return nil, fmt.Errorf("получение проекта: %w", err)
	}

	task := &models.Task{
		ProjectID:           projectID,
		Title:               req.Title,
		Description:         req.Description,
		Status:              req.Status,
		Priority:            req.Priority,
		AssignedTo:          req.AssignedTo,
		CreatedBy:           req.CreatedBy,
		EstimatedCompletion: req.EstimatedCompletion,
	}

	// задача, созданная сразу в работе, считается начатой
	if req.Status.Started() {
		now := time.Now().UTC()
		task.StartedAt = &now
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	created, err := s.repo.GetTaskByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if created.AssignedTo != nil && created.AssigneeName != nil {
		s.hub.Notify(ctx,
			fmt.Sprintf("You have been assigned a new task: %s", created.Title),
			fmt.Sprintf("Task Assignment - %s", *created.AssigneeName))
	}

	s.hub.FireEvent(ctx, "taskmaster_task_created", map[string]any{
		"task_id":     created.ID,
		"project_id":  created.ProjectID,
		"title":       created.Title,
		"status":      string(created.Status),
		"assigned_to": created.AssignedTo,
	})

	recordActivity(ctx, s.activity, &req.CreatedBy, models.ActionCreated, "task", created.ID,
		nil, strPtr(string(created.Status)), fmt.Sprintf("Task '%s' created", created.Title))

	updateStatsSensors(ctx, s.repo, s.hub)

	return created, nil
}

func (s *TaskService) GetTasksByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("project", projectID)
		}
		return nil, fmt.Errorf("получение проекта: %w", err)
	}

	tasks, err := s.repo.GetTasksByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound("task", id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return task, nil
}

// UpdateTask применяет частичное обновление и правила переходов:
// started_at ставится один раз при первом выходе из starting в
// in_progress/ongoing; completed_at ставится при входе в done и
// очищается при выходе из done. Смена статуса или исполнителя
// порождает событие/уведомление best-effort.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	oldAssignee := task.AssignedTo

	for _, opt := range options {
		opt(task)
	}

	if !task.Status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("invalid status '%s'", task.Status))
	}
	if !task.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("invalid priority '%s'", task.Priority))
	}
	if task.Title == "" {
		return nil, NewValidationError("title", "title cannot be empty")
	}

	now := time.Now().UTC()
	if oldStatus == models.StatusStarting && task.Status.Started() && task.StartedAt == nil {
		task.StartedAt = &now
	}
	if oldStatus != models.StatusDone && task.Status == models.StatusDone {
		task.CompletedAt = &now
	}
	if oldStatus == models.StatusDone && task.Status != models.StatusDone {
		task.CompletedAt = nil
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", id)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	// перечитываем ради свежей денормализации (имя исполнителя и т.п.)
	updated, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if oldStatus != updated.Status {
		s.hub.FireEvent(ctx, "taskmaster_task_status_changed", map[string]any{
			"task_id":    updated.ID,
			"title":      updated.Title,
			"old_status": string(oldStatus),
			"new_status": string(updated.Status),
		})

		if updated.Status == models.StatusDone {
			s.hub.Notify(ctx, fmt.Sprintf("Task completed: %s", updated.Title), "Task Done!")
		}

		recordActivity(ctx, s.activity, nil, models.ActionStatusChanged, "task", updated.ID,
			strPtr(string(oldStatus)), strPtr(string(updated.Status)),
			fmt.Sprintf("Task '%s' moved from %s to %s", updated.Title, oldStatus, updated.Status))
	}

	if assigneeChanged(oldAssignee, updated.AssignedTo) && updated.AssignedTo != nil && updated.AssigneeName != nil {
		s.hub.Notify(ctx,
			fmt.Sprintf("Task reassigned to you: %s", updated.Title),
			fmt.Sprintf("Task Assignment - %s", *updated.AssigneeName))

		recordActivity(ctx, s.activity, nil, models.ActionAssigned, "task", updated.ID,
			nil, strPtr(*updated.AssigneeName),
			fmt.Sprintf("Task '%s' assigned to %s", updated.Title, *updated.AssigneeName))
	}

	updateStatsSensors(ctx, s.repo, s.hub)

	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}

	filePaths, err := s.repo.DeleteTaskCascade(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("task", id)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	removeFiles(filePaths)

	recordActivity(ctx, s.activity, nil, models.ActionDeleted, "task", id,
		strPtr(task.Title), nil, fmt.Sprintf("Task '%s' deleted", task.Title))

	updateStatsSensors(ctx, s.repo, s.hub)

	return nil
}

func assigneeChanged(old, current *int64) bool {
	if old == nil && current == nil {
		return false
	}
	if old == nil || current == nil {
		return true
	}
	return *old != *current
}

// updateStatsSensors обновляет сенсоры статистики в Home Assistant
// после любой мутации задач. Ошибка подсчёта только логируется.
func updateStatsSensors(ctx context.Context, tasks TaskRepository, hub Notifier) {
	counts, err := tasks.CountTasksByStatus(ctx)
	if err != nil {
		logger.Warn("Service: Не удалось посчитать задачи для сенсоров", zap.Error(err))
		return
	}

	attrs := map[string]any{
		"starting":    counts[models.StatusStarting],
		"in_progress": counts[models.StatusInProgress],
		"ongoing":     counts[models.StatusOngoing],
		"done":        counts[models.StatusDone],
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	hub.UpdateSensor(ctx, "sensor.taskmaster_total_tasks", total, attrs)
	hub.UpdateSensor(ctx, "sensor.taskmaster_done_tasks", counts[models.StatusDone], nil)
	hub.UpdateSensor(ctx, "sensor.taskmaster_active_tasks", total-counts[models.StatusDone], nil)
}
