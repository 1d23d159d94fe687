package models

import "time"

// TaskOption — подтверждённое изменение одного поля задачи.
// Хендлер собирает опции только по ключам, которые реально пришли в
// теле запроса, поэтому "ключа нет" и "ключ: null" различаются.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(t *Task) {
		t.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(t *Task) {
		t.Description = description
	}
}

func WithStatus(status TaskStatus) TaskOption {
	return func(t *Task) {
		t.Status = status
	}
}

func WithPriority(priority TaskPriority) TaskOption {
	return func(t *Task) {
		t.Priority = priority
	}
}

// WithAssignee(nil) снимает исполнителя
func WithAssignee(userID *int64) TaskOption {
	return func(t *Task) {
		t.AssignedTo = userID
	}
}

// WithEstimatedCompletion(nil) очищает оценку срока
func WithEstimatedCompletion(deadline *time.Time) TaskOption {
	return func(t *Task) {
		t.EstimatedCompletion = deadline
	}
}
