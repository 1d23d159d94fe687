package models

import "time"

const DefaultUserColor = "#3498db"

type User struct {
	ID          int64     `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Color       string    `json:"color" db:"color"`
	Email       *string   `json:"email,omitempty" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// настройки почтовых уведомлений (добавляются миграцией email-системы)
	EmailNotifications   bool `json:"email_notifications" db:"email_notifications"`
	NotifyOnAssignment   bool `json:"notify_on_assignment" db:"notify_on_assignment"`
	NotifyOnStatusChange bool `json:"notify_on_status_change" db:"notify_on_status_change"`
	NotifyOnComment      bool `json:"notify_on_comment" db:"notify_on_comment"`
	NotifyOnMention      bool `json:"notify_on_mention" db:"notify_on_mention"`
}
