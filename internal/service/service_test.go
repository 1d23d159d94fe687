package service_test

import (
	"context"
	"os"
	"testing"
	"time"

	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	repo "taskmaster/internal/repository"
	"taskmaster/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// MockTaskRepo - мок репозитория задач
type MockTaskRepo struct {
	mock.Mock
}

func (m *MockTaskRepo) CreateTask(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepo) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepo) GetTasksByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskRepo) UpdateTask(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepo) DeleteTaskCascade(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskRepo) CountTasksByStatus(ctx context.Context) (map[models.TaskStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.TaskStatus]int), args.Error(1)
}

func (m *MockTaskRepo) GetRecentTasks(ctx context.Context, limit int) ([]*models.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepo)(nil)

// MockProjectRepo - мок репозитория проектов
type MockProjectRepo struct {
	mock.Mock
}

func (m *MockProjectRepo) CreateProject(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepo) GetProjects(ctx context.Context) ([]*models.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Project), args.Error(1)
}

func (m *MockProjectRepo) GetProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepo) UpdateProject(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepo) CountProjects(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProjectRepo) DeleteProjectCascade(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ service.ProjectRepository = (*MockProjectRepo)(nil)

// MockUserRepo - мок репозитория пользователей
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepo) FindReplacementUser(ctx context.Context, excludeID int64) (int64, error) {
	args := m.Called(ctx, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) DeleteUserReassign(ctx context.Context, userID, replacementID int64) error {
	args := m.Called(ctx, userID, replacementID)
	return args.Error(0)
}

var _ service.UserRepository = (*MockUserRepo)(nil)

// MockActivityRepo - мок журнала активности
type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) InsertActivity(ctx context.Context, entry *models.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityRepo) GetRecentActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityLog), args.Error(1)
}

var _ service.ActivityRepository = (*MockActivityRepo)(nil)

// MockNotifier - мок клиента Home Assistant, все вызовы void
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, message, title string) {
	m.Called(ctx, message, title)
}

func (m *MockNotifier) FireEvent(ctx context.Context, eventType string, data map[string]any) {
	m.Called(ctx, eventType, data)
}

func (m *MockNotifier) UpdateSensor(ctx context.Context, entityID string, state any, attributes map[string]any) {
	m.Called(ctx, entityID, state, attributes)
}

var _ service.Notifier = (*MockNotifier)(nil)

// relaxedNotifier принимает любые исходящие вызовы
func relaxedNotifier() *MockNotifier {
	hub := new(MockNotifier)
	hub.On("Notify", mock.Anything, mock.Anything, mock.Anything).Maybe()
	hub.On("FireEvent", mock.Anything, mock.Anything, mock.Anything).Maybe()
	hub.On("UpdateSensor", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	return hub
}

func relaxedActivity() *MockActivityRepo {
	activity := new(MockActivityRepo)
	activity.On("InsertActivity", mock.Anything, mock.Anything).Return(nil).Maybe()
	return activity
}

func emptyCounts() map[models.TaskStatus]int {
	return map[models.TaskStatus]int{}
}

func baseTask(status models.TaskStatus) *models.Task {
	return &models.Task{
		ID:        9,
		ProjectID: 1,
		Title:     "Fix the boiler",
		Status:    status,
		Priority:  models.PriorityMedium,
		CreatedBy: 1,
	}
}

func TestTaskService_UpdateTask_Transitions(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name          string
		initial       func() *models.Task
		options       []models.TaskOption
		wantStarted   func(t *testing.T, task *models.Task)
		wantCompleted func(t *testing.T, task *models.Task)
	}{
		{
			name:    "starting to in_progress sets started_at",
			initial: func() *models.Task { return baseTask(models.StatusStarting) },
			options: []models.TaskOption{models.WithStatus(models.StatusInProgress)},
			wantStarted: func(t *testing.T, task *models.Task) {
				require.NotNil(t, task.StartedAt)
			},
			wantCompleted: func(t *testing.T, task *models.Task) {
				assert.Nil(t, task.CompletedAt)
			},
		},
		{
			name: "started_at is not overwritten",
			initial: func() *models.Task {
				task := baseTask(models.StatusInProgress)
				task.StartedAt = &past
				return task
			},
			options: []models.TaskOption{models.WithStatus(models.StatusOngoing)},
			wantStarted: func(t *testing.T, task *models.Task) {
				require.NotNil(t, task.StartedAt)
				assert.Equal(t, past, *task.StartedAt)
			},
			wantCompleted: func(t *testing.T, task *models.Task) {
				assert.Nil(t, task.CompletedAt)
			},
		},
		{
			name: "moving to done sets completed_at",
			initial: func() *models.Task {
				task := baseTask(models.StatusInProgress)
				task.StartedAt = &past
				return task
			},
			options: []models.TaskOption{models.WithStatus(models.StatusDone)},
			wantStarted: func(t *testing.T, task *models.Task) {
				require.NotNil(t, task.StartedAt)
				assert.Equal(t, past, *task.StartedAt)
			},
			wantCompleted: func(t *testing.T, task *models.Task) {
				require.NotNil(t, task.CompletedAt)
			},
		},
		{
			name: "leaving done clears completed_at",
			initial: func() *models.Task {
				task := baseTask(models.StatusDone)
				task.StartedAt = &past
				task.CompletedAt = &past
				return task
			},
			options: []models.TaskOption{models.WithStatus(models.StatusOngoing)},
			wantStarted: func(t *testing.T, task *models.Task) {
				require.NotNil(t, task.StartedAt)
			},
			wantCompleted: func(t *testing.T, task *models.Task) {
				assert.Nil(t, task.CompletedAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taskRepo := new(MockTaskRepo)
			initial := tt.initial()

			var saved *models.Task
			taskRepo.On("GetTaskByID", mock.Anything, int64(9)).Return(initial, nil)
			taskRepo.On("UpdateTask", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					saved = args.Get(1).(*models.Task)
				}).
				Return(nil)
			taskRepo.On("CountTasksByStatus", mock.Anything).Return(emptyCounts(), nil).Maybe()

			svc := service.NewTaskService(taskRepo, new(MockProjectRepo), relaxedActivity(), relaxedNotifier())

			_, err := svc.UpdateTask(context.Background(), 9, tt.options...)
			require.NoError(t, err)

			require.NotNil(t, saved)
			tt.wantStarted(t, saved)
			tt.wantCompleted(t, saved)
		})
	}
}

func TestTaskService_UpdateTask_InvalidStatus(t *testing.T) {
	taskRepo := new(MockTaskRepo)
	taskRepo.On("GetTaskByID", mock.Anything, int64(9)).Return(baseTask(models.StatusStarting), nil)

	svc := service.NewTaskService(taskRepo, new(MockProjectRepo), relaxedActivity(), relaxedNotifier())

	_, err := svc.UpdateTask(context.Background(), 9, models.WithStatus("paused"))
	require.Error(t, err)

	businessErr, ok := err.(*service.BusinessError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", businessErr.Code)

	taskRepo.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything)
}

func TestTaskService_CreateTask_UnknownProject(t *testing.T) {
	projectRepo := new(MockProjectRepo)
	projectRepo.On("GetProjectByID", mock.Anything, int64(77)).Return(nil, repo.ErrNotFound)

	svc := service.NewTaskService(new(MockTaskRepo), projectRepo, relaxedActivity(), relaxedNotifier())

	_, err := svc.CreateTask(context.Background(), 77, service.TaskCreate{
		Title:     "Orphan",
		CreatedBy: 1,
	})
	require.Error(t, err)

	businessErr, ok := err.(*service.BusinessError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", businessErr.Code)
}

func TestUserService_DeleteUser(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*MockUserRepo)
		wantCode  string
	}{
		{
			name: "error - only user is protected",
			setupMock: func(m *MockUserRepo) {
				m.On("GetUserByID", mock.Anything, int64(1)).
					Return(&models.User{ID: 1, Username: "alice"}, nil)
				m.On("CountUsers", mock.Anything).Return(1, nil)
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "success - reassigned to lowest id",
			setupMock: func(m *MockUserRepo) {
				m.On("GetUserByID", mock.Anything, int64(1)).
					Return(&models.User{ID: 1, Username: "alice"}, nil)
				m.On("CountUsers", mock.Anything).Return(3, nil)
				m.On("FindReplacementUser", mock.Anything, int64(1)).Return(int64(2), nil)
				m.On("DeleteUserReassign", mock.Anything, int64(1), int64(2)).Return(nil)
			},
			wantCode: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepo)
			tt.setupMock(userRepo)

			svc := service.NewUserService(userRepo, relaxedActivity(), relaxedNotifier())

			err := svc.DeleteUser(context.Background(), 1)
			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				businessErr, ok := err.(*service.BusinessError)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, businessErr.Code)
			}
			userRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_CreateUser_Defaults(t *testing.T) {
	userRepo := new(MockUserRepo)
	userRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Color == models.DefaultUserColor && u.EmailNotifications
	})).Return(nil)

	svc := service.NewUserService(userRepo, relaxedActivity(), relaxedNotifier())

	user, err := svc.CreateUser(context.Background(), "bob", "Bob", "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUserColor, user.Color)
	userRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_Duplicate(t *testing.T) {
	userRepo := new(MockUserRepo)
	userRepo.On("CreateUser", mock.Anything, mock.Anything).Return(repo.ErrDuplicate)

	svc := service.NewUserService(userRepo, relaxedActivity(), relaxedNotifier())

	_, err := svc.CreateUser(context.Background(), "alice", "Alice", "")
	require.Error(t, err)

	businessErr, ok := err.(*service.BusinessError)
	require.True(t, ok)
	assert.Equal(t, "ALREADY_EXISTS", businessErr.Code)
	assert.Contains(t, businessErr.Message, "Username 'alice' already exists")
}

func TestStatsService_GetStats_ZeroFilled(t *testing.T) {
	taskRepo := new(MockTaskRepo)
	taskRepo.On("CountTasksByStatus", mock.Anything).Return(map[models.TaskStatus]int{
		models.StatusDone: 2,
	}, nil)
	taskRepo.On("GetRecentTasks", mock.Anything, 5).Return([]*models.Task{}, nil)

	projectRepo := new(MockProjectRepo)
	projectRepo.On("CountProjects", mock.Anything).Return(1, nil)

	userRepo := new(MockUserRepo)
	userRepo.On("CountUsers", mock.Anything).Return(4, nil)

	svc := service.NewStatsService(taskRepo, projectRepo, userRepo)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.TotalProjects)
	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 0, stats.ByStatus[models.StatusStarting])
	assert.Equal(t, 0, stats.ByStatus[models.StatusInProgress])
	assert.Equal(t, 0, stats.ByStatus[models.StatusOngoing])
	assert.Equal(t, 2, stats.ByStatus[models.StatusDone])
}
