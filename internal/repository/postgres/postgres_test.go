package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"taskmaster/internal/config"
	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"
	"taskmaster/internal/repository/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container testcontainers.Container
	storage   *postgres.Storage
	ctx       context.Context
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()
	require.NoError(s.T(), logger.Init(true))

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	cfg := config.DatabaseConfig{
		URL:            fmt.Sprintf("postgres://test:test@%s:%s/testdb", host, port.Port()),
		MaxConnections: 5,
		MinConnections: 1,
		IdleTimeout:    time.Minute,
	}

	s.storage, err = postgres.New(s.ctx, cfg)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.storage.Migrate(s.ctx))
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционный тест, требует docker")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) createUser(username string) *models.User {
	user := &models.User{
		Username:    username,
		DisplayName: username,
		Color:       models.DefaultUserColor,
	}
	require.NoError(s.T(), s.storage.CreateUser(s.ctx, user))
	return user
}

func (s *PostgresTestSuite) createProject(name string, createdBy int64) *models.Project {
	project := &models.Project{
		Name:      name,
		Status:    models.ProjectStatusActive,
		CreatedBy: createdBy,
	}
	require.NoError(s.T(), s.storage.CreateProject(s.ctx, project))
	return project
}

func (s *PostgresTestSuite) createTask(projectID, createdBy int64, title string) *models.Task {
	task := &models.Task{
		ProjectID: projectID,
		Title:     title,
		Status:    models.StatusStarting,
		Priority:  models.PriorityMedium,
		CreatedBy: createdBy,
	}
	require.NoError(s.T(), s.storage.CreateTask(s.ctx, task))
	return task
}

func (s *PostgresTestSuite) TestUserDuplicateUsername() {
	s.createUser("dup_user")

	err := s.storage.CreateUser(s.ctx, &models.User{
		Username:    "dup_user",
		DisplayName: "Another",
		Color:       models.DefaultUserColor,
	})
	assert.ErrorIs(s.T(), err, repo.ErrDuplicate)
}

func (s *PostgresTestSuite) TestTagScopeUniqueness() {
	user := s.createUser("tag_owner")
	project := s.createProject("Tag Project", user.ID)

	// глобальный тег: второй с тем же именем отклоняется
	global := &models.Tag{Name: "scope_urgent", Color: models.DefaultTagColor}
	require.NoError(s.T(), s.storage.CreateTag(s.ctx, global))

	err := s.storage.CreateTag(s.ctx, &models.Tag{Name: "scope_urgent", Color: "#000000"})
	assert.ErrorIs(s.T(), err, repo.ErrDuplicate)

	// то же имя в области проекта — другой scope, конфликта нет
	scoped := &models.Tag{Name: "scope_urgent", Color: models.DefaultTagColor, ProjectID: &project.ID}
	require.NoError(s.T(), s.storage.CreateTag(s.ctx, scoped))

	// а дубликат внутри проекта отклоняется
	err = s.storage.CreateTag(s.ctx, &models.Tag{Name: "scope_urgent", ProjectID: &project.ID})
	assert.ErrorIs(s.T(), err, repo.ErrDuplicate)
}

func (s *PostgresTestSuite) TestTaskDenormalization() {
	user := s.createUser("denorm_creator")
	project := s.createProject("Denorm Project", user.ID)
	task := s.createTask(project.ID, user.ID, "Denorm Task")

	note := &models.Note{TaskID: task.ID, UserID: user.ID, Content: "first note"}
	require.NoError(s.T(), s.storage.CreateNote(s.ctx, note))

	got, err := s.storage.GetTaskByID(s.ctx, task.ID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "denorm_creator", got.CreatorName)
	assert.Equal(s.T(), models.DefaultUserColor, got.CreatorColor)
	assert.Nil(s.T(), got.AssigneeName)
	assert.Equal(s.T(), 1, got.NoteCount)
	assert.Equal(s.T(), 0, got.ImageCount)
}

func (s *PostgresTestSuite) TestProjectCascadeDelete() {
	user := s.createUser("cascade_owner")
	project := s.createProject("Cascade Project", user.ID)
	task := s.createTask(project.ID, user.ID, "Cascade Task")

	note := &models.Note{TaskID: task.ID, UserID: user.ID, Content: "to be removed"}
	require.NoError(s.T(), s.storage.CreateNote(s.ctx, note))

	image := &models.TaskImage{
		TaskID:           task.ID,
		UserID:           user.ID,
		Filename:         "deadbeef.png",
		OriginalFilename: "photo.png",
		FilePath:         "/tmp/uploads/deadbeef.png",
		MimeType:         "image/png",
		FileSize:         42,
	}
	require.NoError(s.T(), s.storage.CreateImage(s.ctx, image))

	tag := &models.Tag{Name: "cascade_tag", Color: models.DefaultTagColor, ProjectID: &project.ID}
	require.NoError(s.T(), s.storage.CreateTag(s.ctx, tag))
	require.NoError(s.T(), s.storage.AttachTag(s.ctx, task.ID, tag.ID))

	assignment := &models.TaskAssignment{TaskID: task.ID, UserID: user.ID, AssignedBy: user.ID}
	require.NoError(s.T(), s.storage.CreateAssignment(s.ctx, assignment))

	subtask := &models.Subtask{TaskID: task.ID, Title: "step one"}
	require.NoError(s.T(), s.storage.CreateSubtask(s.ctx, subtask))

	filePaths, err := s.storage.DeleteProjectCascade(s.ctx, project.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"/tmp/uploads/deadbeef.png"}, filePaths)

	// ни одной осиротевшей строки
	_, err = s.storage.GetProjectByID(s.ctx, project.ID)
	assert.ErrorIs(s.T(), err, repo.ErrNotFound)

	_, err = s.storage.GetTaskByID(s.ctx, task.ID)
	assert.ErrorIs(s.T(), err, repo.ErrNotFound)

	notes, err := s.storage.GetNotesByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), notes)

	images, err := s.storage.GetImagesByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), images)

	assignments, err := s.storage.GetAssignmentsByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), assignments)

	subtasks, err := s.storage.GetSubtasksByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), subtasks)

	// тег проекта уходит вместе с проектом
	_, err = s.storage.GetTagByID(s.ctx, tag.ID)
	assert.ErrorIs(s.T(), err, repo.ErrNotFound)
}

func (s *PostgresTestSuite) TestTaskCascadeDeleteReturnsFiles() {
	user := s.createUser("task_cascade_owner")
	project := s.createProject("Task Cascade", user.ID)
	task := s.createTask(project.ID, user.ID, "Doomed Task")

	image := &models.TaskImage{
		TaskID:           task.ID,
		UserID:           user.ID,
		Filename:         "cafe01.jpg",
		OriginalFilename: "cat.jpg",
		FilePath:         "/tmp/uploads/cafe01.jpg",
		MimeType:         "image/jpeg",
		FileSize:         7,
	}
	require.NoError(s.T(), s.storage.CreateImage(s.ctx, image))

	filePaths, err := s.storage.DeleteTaskCascade(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"/tmp/uploads/cafe01.jpg"}, filePaths)

	// проект остаётся
	_, err = s.storage.GetProjectByID(s.ctx, project.ID)
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) TestUserReassignOnDelete() {
	keeper := s.createUser("reassign_keeper")
	leaver := s.createUser("reassign_leaver")

	project := s.createProject("Leaver Project", leaver.ID)
	task := s.createTask(project.ID, leaver.ID, "Leaver Task")
	require.NoError(s.T(), s.storage.CreateNote(s.ctx,
		&models.Note{TaskID: task.ID, UserID: leaver.ID, Content: "bye"}))

	// назначение удаляемого пользователя должно исчезнуть, не перейти
	require.NoError(s.T(), s.storage.CreateAssignment(s.ctx,
		&models.TaskAssignment{TaskID: task.ID, UserID: leaver.ID, AssignedBy: keeper.ID}))

	require.NoError(s.T(), s.storage.DeleteUserReassign(s.ctx, leaver.ID, keeper.ID))

	_, err := s.storage.GetUserByID(s.ctx, leaver.ID)
	assert.ErrorIs(s.T(), err, repo.ErrNotFound)

	gotProject, err := s.storage.GetProjectByID(s.ctx, project.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), keeper.ID, gotProject.CreatedBy)

	gotTask, err := s.storage.GetTaskByID(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), keeper.ID, gotTask.CreatedBy)
	assert.Equal(s.T(), "reassign_keeper", gotTask.CreatorName)

	notes, err := s.storage.GetNotesByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), notes, 1)
	assert.Equal(s.T(), keeper.ID, notes[0].UserID)

	assignments, err := s.storage.GetAssignmentsByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), assignments)
}

func (s *PostgresTestSuite) TestFindReplacementUserPicksLowestID() {
	first := s.createUser("lowest_a")
	s.createUser("lowest_b")
	third := s.createUser("lowest_c")

	replacement, err := s.storage.FindReplacementUser(s.ctx, third.ID)
	require.NoError(s.T(), err)
	assert.LessOrEqual(s.T(), replacement, first.ID)
}

func (s *PostgresTestSuite) TestAssignmentDuplicate() {
	user := s.createUser("assign_dup")
	project := s.createProject("Assign Project", user.ID)
	task := s.createTask(project.ID, user.ID, "Assign Task")

	first := &models.TaskAssignment{TaskID: task.ID, UserID: user.ID, AssignedBy: user.ID}
	require.NoError(s.T(), s.storage.CreateAssignment(s.ctx, first))

	err := s.storage.CreateAssignment(s.ctx,
		&models.TaskAssignment{TaskID: task.ID, UserID: user.ID, AssignedBy: user.ID})
	assert.ErrorIs(s.T(), err, repo.ErrDuplicate)
}

func (s *PostgresTestSuite) TestSubtaskPositions() {
	user := s.createUser("subtask_owner")
	project := s.createProject("Subtask Project", user.ID)
	task := s.createTask(project.ID, user.ID, "Subtask Task")

	for _, title := range []string{"first", "second", "third"} {
		require.NoError(s.T(), s.storage.CreateSubtask(s.ctx,
			&models.Subtask{TaskID: task.ID, Title: title}))
	}

	subtasks, err := s.storage.GetSubtasksByTask(s.ctx, task.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), subtasks, 3)

	for i, sub := range subtasks {
		assert.Equal(s.T(), i, sub.Position)
	}
	assert.Equal(s.T(), "first", subtasks[0].Title)
	assert.Equal(s.T(), "third", subtasks[2].Title)
}

func (s *PostgresTestSuite) TestGetByIDNotFound() {
	_, err := s.storage.GetTaskByID(s.ctx, 999999)
	assert.True(s.T(), errors.Is(err, repo.ErrNotFound))
}
