package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"

	"go.uber.org/zap"
)

type ProjectService struct {
	repo     ProjectRepository
	tasks    TaskRepository
	activity ActivityRepository
	hub      Notifier
}

func NewProjectService(projectRepo ProjectRepository, taskRepo TaskRepository,
	activityRepo ActivityRepository, hub Notifier) ProjectService {
	return ProjectService{
		repo:     projectRepo,
		tasks:    taskRepo,
		activity: activityRepo,
		hub:      hub,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, name, description string,
	status models.ProjectStatus, createdBy int64) (*models.Project, error) {

	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if createdBy == 0 {
		return nil, NewValidationError("created_by", "created_by is required")
	}
	if status == "" {
		status = models.ProjectStatusActive
	}
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("invalid project status '%s'", status))
	}

	project := &models.Project{
		Name:        name,
		Description: description,
		Status:      status,
		CreatedBy:   createdBy,
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("создание проекта: %w", err)
	}

	s.hub.FireEvent(ctx, "taskmaster_project_created", map[string]any{
		"project_id":   project.ID,
		"project_name": project.Name,
	})

	recordActivity(ctx, s.activity, &createdBy, models.ActionCreated, "project", project.ID,
		nil, strPtr(project.Name), fmt.Sprintf("Project '%s' created", project.Name))

	return project, nil
}

func (s *ProjectService) GetProjects(ctx context.Context) ([]*models.Project, error) {
	projects, err := s.repo.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение проектов: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Проект не найден", zap.Int64("target_id", id))
			return nil, NewNotFound("project", id)
		}
		return nil, fmt.Errorf("получение проекта: %w", err)
	}
	return project, nil
}

type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

func (s *ProjectService) UpdateProject(ctx context.Context, id int64, update ProjectUpdate) (*models.Project, error) {
	project, err := s.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		project.Name = *update.Name
	}
	if update.Description != nil {
		project.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, NewValidationError("status", fmt.Sprintf("invalid project status '%s'", *update.Status))
		}
		project.Status = *update.Status
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("обновление проекта: %w", err)
	}

	return project, nil
}

// DeleteProject удаляет проект каскадом: задачи, их заметки, картинки,
// назначения, подзадачи и теги проекта. Файлы картинок убираются с
// диска уже после коммита, best-effort.
func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	project, err := s.GetProjectByID(ctx, id)
	if err != nil {
		return err
	}

	filePaths, err := s.repo.DeleteProjectCascade(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("project", id)
		}
		return fmt.Errorf("удаление проекта: %w", err)
	}

	removeFiles(filePaths)

	recordActivity(ctx, s.activity, nil, models.ActionDeleted, "project", id,
		strPtr(project.Name), nil, fmt.Sprintf("Project '%s' deleted", project.Name))

	updateStatsSensors(ctx, s.tasks, s.hub)

	return nil
}

// removeFiles убирает файлы с диска; отсутствующий файл не ошибка
func removeFiles(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Service: Не удалось удалить файл", zap.Error(err), zap.String("path", path))
		}
	}
}
