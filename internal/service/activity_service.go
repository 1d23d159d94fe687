package service

import (
	"context"
	"fmt"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"

	"go.uber.org/zap"
)

type ActivityService struct {
	repo ActivityRepository
}

func NewActivityService(repo ActivityRepository) ActivityService {
	return ActivityService{repo: repo}
}

func (s *ActivityService) GetRecentActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.repo.GetRecentActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("получение журнала активности: %w", err)
	}
	return entries, nil
}

// recordActivity пишет строку аудита. Журнал не должен ронять
// основную операцию, поэтому ошибка только логируется.
func recordActivity(ctx context.Context, repo ActivityRepository, actor *int64,
	action models.ActivityAction, entityType string, entityID int64,
	oldValue, newValue *string, description string) {

	entry := &models.ActivityLog{
		UserID:      actor,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
	}

	if err := repo.InsertActivity(ctx, entry); err != nil {
		logger.Warn("Service: Не удалось записать активность",
			zap.Error(err),
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID))
	}
}

func strPtr(s string) *string {
	return &s
}
