package models

import "time"

type ProjectStatus string

const ProjectStatusActive ProjectStatus = "active"
const ProjectStatusOnHold ProjectStatus = "on_hold"
const ProjectStatusCompleted ProjectStatus = "completed"

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}

type Project struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	Status      ProjectStatus `json:"status" db:"status"`
	CreatedBy   int64         `json:"created_by" db:"created_by"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`

	// денормализация для ответов API
	TaskCount int `json:"task_count" db:"-"`
}
