package service

import (
	"context"
	"fmt"

	"taskmaster/internal/models"
)

type StatsService struct {
	tasks    TaskRepository
	projects ProjectRepository
	users    UserRepository
}

func NewStatsService(taskRepo TaskRepository, projectRepo ProjectRepository, userRepo UserRepository) StatsService {
	return StatsService{
		tasks:    taskRepo,
		projects: projectRepo,
		users:    userRepo,
	}
}

func (s *StatsService) GetStats(ctx context.Context) (*models.Stats, error) {
	byStatus, err := s.tasks.CountTasksByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт задач по статусам: %w", err)
	}

	// Все статусы присутствуют в ответе, даже с нулевым количеством.
	counts := map[models.TaskStatus]int{
		models.StatusStarting:   0,
		models.StatusInProgress: 0,
		models.StatusOngoing:    0,
		models.StatusDone:       0,
	}
	total := 0
	for status, n := range byStatus {
		counts[status] = n
		total += n
	}

	totalProjects, err := s.projects.CountProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт проектов: %w", err)
	}

	totalUsers, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт пользователей: %w", err)
	}

	recent, err := s.tasks.GetRecentTasks(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("получение последних задач: %w", err)
	}

	return &models.Stats{
		TotalTasks:     total,
		TotalProjects:  totalProjects,
		TotalUsers:     totalUsers,
		ByStatus:       counts,
		RecentActivity: recent,
	}, nil
}
