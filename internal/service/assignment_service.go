package service

import (
	"context"
	"errors"
	"fmt"

	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"
)

type AssignmentService struct {
	repo     AssignmentRepository
	tasks    TaskRepository
	users    UserRepository
	activity ActivityRepository
	hub      Notifier
}

func NewAssignmentService(assignmentRepo AssignmentRepository, taskRepo TaskRepository,
	userRepo UserRepository, activityRepo ActivityRepository, hub Notifier) AssignmentService {
	return AssignmentService{
		repo:     assignmentRepo,
		tasks:    taskRepo,
		users:    userRepo,
		activity: activityRepo,
		hub:      hub,
	}
}

// Assign добавляет пользователя в задачу. Не больше одной записи на
// пару (task, user).
func (s *AssignmentService) Assign(ctx context.Context, taskID, userID, assignedBy int64) (*models.TaskAssignment, error) {
	if userID == 0 {
		return nil, NewValidationError("user_id", "user_id is required")
	}
	if assignedBy == 0 {
		return nil, NewValidationError("assigned_by", "assigned_by is required")
	}

	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("user", userID)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	assignment := &models.TaskAssignment{
		TaskID:     taskID,
		UserID:     userID,
		AssignedBy: assignedBy,
	}

	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewAlreadyExists("assignment", "User already assigned to task")
		}
		return nil, fmt.Errorf("создание назначения: %w", err)
	}

	created, err := s.repo.GetAssignmentByID(ctx, assignment.ID)
	if err != nil {
		return nil, fmt.Errorf("получение назначения: %w", err)
	}

	s.hub.Notify(ctx,
		fmt.Sprintf("You have been assigned a new task: %s", task.Title),
		fmt.Sprintf("Task Assignment - %s", user.DisplayName))

	s.hub.FireEvent(ctx, "taskmaster_task_assigned", map[string]any{
		"task_id":     taskID,
		"user_id":     userID,
		"assigned_by": assignedBy,
	})

	recordActivity(ctx, s.activity, &assignedBy, models.ActionAssigned, "task", taskID,
		nil, strPtr(user.DisplayName),
		fmt.Sprintf("Task '%s' assigned to %s", task.Title, user.DisplayName))

	return created, nil
}

func (s *AssignmentService) GetAssignmentsByTask(ctx context.Context, taskID int64) ([]*models.TaskAssignment, error) {
	if _, err := s.tasks.GetTaskByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("task", taskID)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	assignments, err := s.repo.GetAssignmentsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	return assignments, nil
}

func (s *AssignmentService) Unassign(ctx context.Context, id int64) error {
	assignment, err := s.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("assignment", id)
		}
		return fmt.Errorf("получение назначения: %w", err)
	}

	if err := s.repo.DeleteAssignment(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("assignment", id)
		}
		return fmt.Errorf("удаление назначения: %w", err)
	}

	recordActivity(ctx, s.activity, nil, models.ActionUnassigned, "task", assignment.TaskID,
		strPtr(assignment.Username), nil,
		fmt.Sprintf("%s unassigned from task %d", assignment.Username, assignment.TaskID))

	return nil
}
