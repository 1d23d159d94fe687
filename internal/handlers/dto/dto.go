package dto

import (
	"fmt"
	"time"

	"taskmaster/internal/models"
)

type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

type UpdateUserRequest struct {
	DisplayName          *string `json:"display_name,omitempty"`
	Color                *string `json:"color,omitempty"`
	Email                *string `json:"email,omitempty"`
	EmailNotifications   *bool   `json:"email_notifications,omitempty"`
	NotifyOnAssignment   *bool   `json:"notify_on_assignment,omitempty"`
	NotifyOnStatusChange *bool   `json:"notify_on_status_change,omitempty"`
	NotifyOnComment      *bool   `json:"notify_on_comment,omitempty"`
	NotifyOnMention      *bool   `json:"notify_on_mention,omitempty"`
}

type CreateProjectRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	CreatedBy   int64                `json:"created_by"`
}

type UpdateProjectRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *models.ProjectStatus `json:"status,omitempty"`
}

type CreateTaskRequest struct {
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Status              models.TaskStatus   `json:"status"`
	Priority            models.TaskPriority `json:"priority"`
	AssignedTo          *int64              `json:"assigned_to"`
	CreatedBy           int64               `json:"created_by"`
	EstimatedCompletion *time.Time          `json:"estimated_completion"`
}

type CreateNoteRequest struct {
	UserID  int64  `json:"user_id"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Content *string `json:"content,omitempty"`
}

type CreateTagRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	ProjectID *int64 `json:"project_id"`
}

type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type AttachTagRequest struct {
	TagID int64 `json:"tag_id"`
}

type CreateAssignmentRequest struct {
	UserID     int64 `json:"user_id"`
	AssignedBy int64 `json:"assigned_by"`
}

type CreateSubtaskRequest struct {
	Title string `json:"title"`
}

type UpdateSubtaskRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Position  *int    `json:"position,omitempty"`
}

// ImageResponse добавляет к модели ссылку на скачивание; путь к файлу
// на диске наружу не уходит.
type ImageResponse struct {
	ID               int64     `json:"id"`
	TaskID           int64     `json:"task_id"`
	UserID           int64     `json:"user_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"file_size"`
	CreatedAt        time.Time `json:"created_at"`
	Username         string    `json:"username"`
	UserColor        string    `json:"user_color"`
	URL              string    `json:"url"`
}

func FromImage(img *models.TaskImage) ImageResponse {
	return ImageResponse{
		ID:               img.ID,
		TaskID:           img.TaskID,
		UserID:           img.UserID,
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		MimeType:         img.MimeType,
		FileSize:         img.FileSize,
		CreatedAt:        img.CreatedAt,
		Username:         img.Username,
		UserColor:        img.UserColor,
		URL:              fmt.Sprintf("/api/images/%d/download", img.ID),
	}
}

func FromImageList(images []*models.TaskImage) []ImageResponse {
	result := make([]ImageResponse, len(images))
	for i, img := range images {
		result[i] = FromImage(img)
	}
	return result
}
