package postgres

import (
	"context"
	"fmt"
	"time"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"

	"go.uber.org/zap"
)

const userColumns = `id, username, display_name, color, email,
				email_notifications, notify_on_assignment, notify_on_status_change,
				notify_on_comment, notify_on_mention, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.Color,
		&u.Email,
		&u.EmailNotifications,
		&u.NotifyOnAssignment,
		&u.NotifyOnStatusChange,
		&u.NotifyOnComment,
		&u.NotifyOnMention,
		&u.CreatedAt,
	)
	return u, err
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	start := time.Now()

	query := `INSERT INTO users (username, display_name, color, email)
				VALUES ($1, $2, $3, $4)
				RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		user.Username,
		user.DisplayName,
		user.Color,
		user.Email,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", translateError(err))
	}

	warnSlow("create_user", start)
	return nil
}

func (s *Storage) GetUsers(ctx context.Context) ([]*models.User, error) {
	start := time.Now()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			continue
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow("get_users", start)
	return users, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	start := time.Now()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", translateError(err))
	}

	warnSlow("get_user", start)
	return user, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	start := time.Now()

	query := `UPDATE users
			SET display_name = $1,
				color = $2,
				email = $3,
				email_notifications = $4,
				notify_on_assignment = $5,
				notify_on_status_change = $6,
				notify_on_comment = $7,
				notify_on_mention = $8
			WHERE id = $9`

	tag, err := s.pool.Exec(ctx, query,
		user.DisplayName,
		user.Color,
		user.Email,
		user.EmailNotifications,
		user.NotifyOnAssignment,
		user.NotifyOnStatusChange,
		user.NotifyOnComment,
		user.NotifyOnMention,
		user.ID,
	)

	if err != nil {
		logger.Error("Repository: Не удалось обновить пользователя", err)
		return fmt.Errorf("обновление пользователя: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("обновление пользователя: %w", repo.ErrNotFound)
	}

	warnSlow("update_user", start)
	return nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать пользователей", err)
		return 0, fmt.Errorf("подсчёт пользователей: %w", err)
	}
	return count, nil
}

// FindReplacementUser возвращает id пользователя, которому достанутся
// сущности удаляемого. Берём наименьший id из оставшихся.
func (s *Storage) FindReplacementUser(ctx context.Context, excludeID int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE id != $1 ORDER BY id LIMIT 1`, excludeID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("поиск замещающего пользователя: %w", translateError(err))
	}
	return id, nil
}

// DeleteUserReassign переводит всё авторство удаляемого пользователя на
// replacementID, убирает его назначения и удаляет запись. Одна транзакция.
func (s *Storage) DeleteUserReassign(ctx context.Context, userID, replacementID int64) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	statements := []struct {
		query string
		args  []any
	}{
		{`UPDATE projects SET created_by = $1 WHERE created_by = $2`, []any{replacementID, userID}},
		{`UPDATE tasks SET created_by = $1 WHERE created_by = $2`, []any{replacementID, userID}},
		{`UPDATE tasks SET assigned_to = $1 WHERE assigned_to = $2`, []any{replacementID, userID}},
		{`UPDATE notes SET user_id = $1 WHERE user_id = $2`, []any{replacementID, userID}},
		{`UPDATE task_images SET user_id = $1 WHERE user_id = $2`, []any{replacementID, userID}},
		{`UPDATE task_assignments SET assigned_by = $1 WHERE assigned_by = $2`, []any{replacementID, userID}},
		{`DELETE FROM task_assignments WHERE user_id = $1`, []any{userID}},
		{`UPDATE activity_log SET user_id = NULL WHERE user_id = $1`, []any{userID}},
	}

	for _, st := range statements {
		if _, err := tx.Exec(ctx, st.query, st.args...); err != nil {
			logger.Error("Repository: Ошибка переноса данных пользователя", err)
			return fmt.Errorf("перенос данных пользователя: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить пользователя", err)
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление пользователя: %w", repo.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить транзакцию", err)
		return fmt.Errorf("коммит транзакции: %w", err)
	}

	warnSlow("delete_user", start)
	return nil
}
