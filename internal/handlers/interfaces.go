package handlers

import (
	"context"
	"io"

	"taskmaster/internal/models"
	"taskmaster/internal/service"
)

type UserService interface {
	CreateUser(ctx context.Context, username, displayName, color string) (*models.User, error)
	GetUsers(ctx context.Context) ([]*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, update service.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ProjectService interface {
	CreateProject(ctx context.Context, name, description string, status models.ProjectStatus, createdBy int64) (*models.Project, error)
	GetProjects(ctx context.Context) ([]*models.Project, error)
	GetProjectByID(ctx context.Context, id int64) (*models.Project, error)
	UpdateProject(ctx context.Context, id int64, update service.ProjectUpdate) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

type TaskService interface {
	CreateTask(ctx context.Context, projectID int64, req service.TaskCreate) (*models.Task, error)
	GetTasksByProject(ctx context.Context, projectID int64) ([]*models.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type NoteService interface {
	CreateNote(ctx context.Context, taskID, userID int64, content string) (*models.Note, error)
	GetNotesByTask(ctx context.Context, taskID int64) ([]*models.Note, error)
	UpdateNote(ctx context.Context, id int64, content *string) (*models.Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

type ImageService interface {
	Upload(ctx context.Context, taskID, userID int64, originalFilename string, file io.Reader) (*models.TaskImage, error)
	GetImagesByTask(ctx context.Context, taskID int64) ([]*models.TaskImage, error)
	Delete(ctx context.Context, id int64) error
	Download(ctx context.Context, id int64) (*models.TaskImage, error)
}

type TagService interface {
	CreateTag(ctx context.Context, name, color string, projectID *int64) (*models.Tag, error)
	GetTags(ctx context.Context) ([]*models.Tag, error)
	UpdateTag(ctx context.Context, id int64, name, color *string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
	GetTagsByTask(ctx context.Context, taskID int64) ([]*models.Tag, error)
	AttachTag(ctx context.Context, taskID, tagID int64) error
	DetachTag(ctx context.Context, taskID, tagID int64) error
}

type AssignmentService interface {
	Assign(ctx context.Context, taskID, userID, assignedBy int64) (*models.TaskAssignment, error)
	GetAssignmentsByTask(ctx context.Context, taskID int64) ([]*models.TaskAssignment, error)
	Unassign(ctx context.Context, id int64) error
}

type SubtaskService interface {
	CreateSubtask(ctx context.Context, taskID int64, title string) (*models.Subtask, error)
	GetSubtasksByTask(ctx context.Context, taskID int64) ([]*models.Subtask, error)
	UpdateSubtask(ctx context.Context, id int64, update service.SubtaskUpdate) (*models.Subtask, error)
	DeleteSubtask(ctx context.Context, id int64) error
}

type StatsService interface {
	GetStats(ctx context.Context) (*models.Stats, error)
}

type ActivityService interface {
	GetRecentActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
