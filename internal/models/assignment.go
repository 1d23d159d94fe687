package models

import "time"

// TaskAssignment — членство пользователя в задаче. Не больше одной
// записи на пару (task, user). Старое поле Task.AssignedTo живёт
// параллельно для обратной совместимости.
type TaskAssignment struct {
	ID         int64     `json:"id" db:"id"`
	TaskID     int64     `json:"task_id" db:"task_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	AssignedBy int64     `json:"assigned_by" db:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`

	// денормализация для ответов API
	Username      string `json:"username" db:"-"`
	UserColor     string `json:"user_color" db:"-"`
	AssignerName  string `json:"assigner_name" db:"-"`
	AssignerColor string `json:"assigner_color" db:"-"`
}
