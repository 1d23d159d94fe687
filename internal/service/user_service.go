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

type UserService struct {
	repo     UserRepository
	activity ActivityRepository
	hub      Notifier
}

func NewUserService(userRepo UserRepository, activityRepo ActivityRepository, hub Notifier) UserService {
	return UserService{
		repo:     userRepo,
		activity: activityRepo,
		hub:      hub,
	}
}

func (s *UserService) CreateUser(ctx context.Context, username, displayName, color string) (*models.User, error) {
	if username == "" {
		return nil, NewValidationError("username", "username is required")
	}
	if displayName == "" {
		return nil, NewValidationError("display_name", "display_name is required")
	}
	if color == "" {
		color = models.DefaultUserColor
	}

	user := &models.User{
		Username:             username,
		DisplayName:          displayName,
		Color:                color,
		EmailNotifications:   true,
		NotifyOnAssignment:   true,
		NotifyOnStatusChange: true,
		NotifyOnComment:      true,
		NotifyOnMention:      true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewAlreadyExists("user", fmt.Sprintf("Username '%s' already exists", username))
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.hub.FireEvent(ctx, "taskmaster_user_created", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})

	recordActivity(ctx, s.activity, &user.ID, models.ActionCreated, "user", user.ID,
		nil, nil, fmt.Sprintf("User '%s' created", user.Username))

	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Пользователь не найден", zap.Int64("target_id", id))
			return nil, NewNotFound("user", id)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

// UserUpdate — явное частичное обновление: nil-поле не трогаем.
// Для email различаем "ключа нет" (EmailSet=false) и "ключ: null"
// (EmailSet=true, Email=nil).
type UserUpdate struct {
	DisplayName          *string
	Color                *string
	Email                *string
	EmailSet             bool
	EmailNotifications   *bool
	NotifyOnAssignment   *bool
	NotifyOnStatusChange *bool
	NotifyOnComment      *bool
	NotifyOnMention      *bool
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Color != nil {
		user.Color = *update.Color
	}
	if update.EmailSet {
		user.Email = update.Email
	}
	if update.EmailNotifications != nil {
		user.EmailNotifications = *update.EmailNotifications
	}
	if update.NotifyOnAssignment != nil {
		user.NotifyOnAssignment = *update.NotifyOnAssignment
	}
	if update.NotifyOnStatusChange != nil {
		user.NotifyOnStatusChange = *update.NotifyOnStatusChange
	}
	if update.NotifyOnComment != nil {
		user.NotifyOnComment = *update.NotifyOnComment
	}
	if update.NotifyOnMention != nil {
		user.NotifyOnMention = *update.NotifyOnMention
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}

	return user, nil
}

// DeleteUser запрещает удаление последнего пользователя; иначе всё
// авторство уходит замещающему, а назначения удаляемого пропадают.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("подсчёт пользователей: %w", err)
	}
	if count <= 1 {
		return NewValidationError("user", "cannot delete the only user")
	}

	replacementID, err := s.repo.FindReplacementUser(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewValidationError("user", "no replacement user exists")
		}
		return fmt.Errorf("поиск замещающего пользователя: %w", err)
	}

	if err := s.repo.DeleteUserReassign(ctx, id, replacementID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("user", id)
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}

	logger.Info("Service: Пользователь удалён",
		zap.Int64("user_id", id),
		zap.Int64("replacement_id", replacementID))

	recordActivity(ctx, s.activity, nil, models.ActionDeleted, "user", id,
		strPtr(user.Username), nil, fmt.Sprintf("User '%s' deleted", user.Username))

	return nil
}
