package models

import "time"

type TaskImage struct {
	ID               int64     `json:"id" db:"id"`
	TaskID           int64     `json:"task_id" db:"task_id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Filename         string    `json:"filename" db:"filename"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	FilePath         string    `json:"-" db:"file_path"`
	MimeType         string    `json:"mime_type" db:"mime_type"`
	FileSize         int64     `json:"file_size" db:"file_size"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	// денормализация для ответов API
	Username  string `json:"username" db:"-"`
	UserColor string `json:"user_color" db:"-"`
}
