package service

import (
	"context"

	"taskmaster/internal/models"
)

// Notifier — исходящие вызовы в Home Assistant. Реализация обязана
// глотать ошибки: методы ничего не возвращают и не могут повлиять на
// результат основной операции.
type Notifier interface {
	Notify(ctx context.Context, message, title string)
	FireEvent(ctx context.Context, eventType string, data map[string]any)
	UpdateSensor(ctx context.Context, entityID string, state any, attributes map[string]any)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUsers(ctx context.Context) ([]*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountUsers(ctx context.Context) (int, error)
	FindReplacementUser(ctx context.Context, excludeID int64) (int64, error)
	DeleteUserReassign(ctx context.Context, userID, replacementID int64) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProjects(ctx context.Context) ([]*models.Project, error)
	GetProjectByID(ctx context.Context, id int64) (*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	CountProjects(ctx context.Context) (int, error)
	DeleteProjectCascade(ctx context.Context, id int64) ([]string, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	GetTasksByProject(ctx context.Context, projectID int64) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTaskCascade(ctx context.Context, id int64) ([]string, error)
	CountTasksByStatus(ctx context.Context) (map[models.TaskStatus]int, error)
	GetRecentTasks(ctx context.Context, limit int) ([]*models.Task, error)
}

type NoteRepository interface {
	CreateNote(ctx context.Context, note *models.Note) error
	GetNotesByTask(ctx context.Context, taskID int64) ([]*models.Note, error)
	GetNoteByID(ctx context.Context, id int64) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id int64) error
}

type ImageRepository interface {
	CreateImage(ctx context.Context, image *models.TaskImage) error
	GetImagesByTask(ctx context.Context, taskID int64) ([]*models.TaskImage, error)
	GetImageByID(ctx context.Context, id int64) (*models.TaskImage, error)
	DeleteImage(ctx context.Context, id int64) error
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	GetTags(ctx context.Context) ([]*models.Tag, error)
	GetTagByID(ctx context.Context, id int64) (*models.Tag, error)
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id int64) error
	GetTagsByTask(ctx context.Context, taskID int64) ([]*models.Tag, error)
	AttachTag(ctx context.Context, taskID, tagID int64) error
	DetachTag(ctx context.Context, taskID, tagID int64) error
}

type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment *models.TaskAssignment) error
	GetAssignmentsByTask(ctx context.Context, taskID int64) ([]*models.TaskAssignment, error)
	GetAssignmentByID(ctx context.Context, id int64) (*models.TaskAssignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
}

type SubtaskRepository interface {
	CreateSubtask(ctx context.Context, subtask *models.Subtask) error
	GetSubtasksByTask(ctx context.Context, taskID int64) ([]*models.Subtask, error)
	GetSubtaskByID(ctx context.Context, id int64) (*models.Subtask, error)
	UpdateSubtask(ctx context.Context, subtask *models.Subtask) error
	DeleteSubtask(ctx context.Context, id int64) error
}

type ActivityRepository interface {
	InsertActivity(ctx context.Context, entry *models.ActivityLog) error
	GetRecentActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error)
}
