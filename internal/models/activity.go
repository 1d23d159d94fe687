package models

import "time"

type ActivityAction string

const ActionCreated ActivityAction = "created"
const ActionUpdated ActivityAction = "updated"
const ActionDeleted ActivityAction = "deleted"
const ActionStatusChanged ActivityAction = "status_changed"
const ActionAssigned ActivityAction = "assigned"
const ActionUnassigned ActivityAction = "unassigned"

// ActivityLog — строка журнала аудита, только добавление
type ActivityLog struct {
	ID          int64          `json:"id" db:"id"`
	UserID      *int64         `json:"user_id" db:"user_id"`
	Action      ActivityAction `json:"action" db:"action"`
	EntityType  string         `json:"entity_type" db:"entity_type"`
	EntityID    int64          `json:"entity_id" db:"entity_id"`
	OldValue    *string        `json:"old_value,omitempty" db:"old_value"`
	NewValue    *string        `json:"new_value,omitempty" db:"new_value"`
	Description string         `json:"description" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
