package models

import "time"

type TaskStatus string
type TaskPriority string

const StatusStarting TaskStatus = "starting"
const StatusInProgress TaskStatus = "in_progress"
const StatusOngoing TaskStatus = "ongoing"
const StatusDone TaskStatus = "done"

const PriorityLow TaskPriority = "low"
const PriorityMedium TaskPriority = "medium"
const PriorityHigh TaskPriority = "high"

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusStarting, StatusInProgress, StatusOngoing, StatusDone:
		return true
	}
	return false
}

// Started — статусы, в которых работа над задачей уже идёт
func (s TaskStatus) Started() bool {
	return s == StatusInProgress || s == StatusOngoing
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID                  int64        `json:"id" db:"id"`
	ProjectID           int64        `json:"project_id" db:"project_id"`
	Title               string       `json:"title" db:"title"`
	Description         string       `json:"description" db:"description"`
	Status              TaskStatus   `json:"status" db:"status"`
	Priority            TaskPriority `json:"priority" db:"priority"`
	AssignedTo          *int64       `json:"assigned_to" db:"assigned_to"`
	CreatedBy           int64        `json:"created_by" db:"created_by"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
	StartedAt           *time.Time   `json:"started_at" db:"started_at"`
	EstimatedCompletion *time.Time   `json:"estimated_completion" db:"estimated_completion"`
	CompletedAt         *time.Time   `json:"completed_at" db:"completed_at"`

	// денормализация для ответов API, заполняется запросом с JOIN
	CreatorName   string  `json:"creator_name" db:"-"`
	CreatorColor  string  `json:"creator_color" db:"-"`
	AssigneeName  *string `json:"assignee_name" db:"-"`
	AssigneeColor *string `json:"assignee_color" db:"-"`
	NoteCount     int     `json:"note_count" db:"-"`
	ImageCount    int     `json:"image_count" db:"-"`
}
