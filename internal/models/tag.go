package models

import "time"

const DefaultTagColor = "#95a5a6"

// Tag либо глобальный (ProjectID == nil), либо привязан к одному
// проекту. Имя уникально внутри области видимости.
type Tag struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	ProjectID *int64    `json:"project_id" db:"project_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
