package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"taskmaster/internal/handlers"
	"taskmaster/internal/logger"
	"taskmaster/internal/models"
	"taskmaster/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// MockUserService - мок сервиса пользователей
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, username, displayName, color string) (*models.User, error) {
	args := m.Called(ctx, username, displayName, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, update service.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.UserService = (*MockUserService)(nil)

// MockTagService - мок сервиса тегов
type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) CreateTag(ctx context.Context, name, color string, projectID *int64) (*models.Tag, error) {
	args := m.Called(ctx, name, color, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagService) GetTags(ctx context.Context) ([]*models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tag), args.Error(1)
}

func (m *MockTagService) UpdateTag(ctx context.Context, id int64, name, color *string) (*models.Tag, error) {
	args := m.Called(ctx, id, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagService) DeleteTag(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTagService) GetTagsByTask(ctx context.Context, taskID int64) ([]*models.Tag, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tag), args.Error(1)
}

func (m *MockTagService) AttachTag(ctx context.Context, taskID, tagID int64) error {
	args := m.Called(ctx, taskID, tagID)
	return args.Error(0)
}

func (m *MockTagService) DetachTag(ctx context.Context, taskID, tagID int64) error {
	args := m.Called(ctx, taskID, tagID)
	return args.Error(0)
}

var _ handlers.TagService = (*MockTagService)(nil)

// MockImageService - мок сервиса изображений
type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Upload(ctx context.Context, taskID, userID int64, originalFilename string, file io.Reader) (*models.TaskImage, error) {
	args := m.Called(ctx, taskID, userID, originalFilename, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskImage), args.Error(1)
}

func (m *MockImageService) GetImagesByTask(ctx context.Context, taskID int64) ([]*models.TaskImage, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TaskImage), args.Error(1)
}

func (m *MockImageService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockImageService) Download(ctx context.Context, id int64) (*models.TaskImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskImage), args.Error(1)
}

var _ handlers.ImageService = (*MockImageService)(nil)

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, projectID int64, req service.TaskCreate) (*models.Task, error) {
	args := m.Called(ctx, projectID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) GetTasksByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.Task, error) {
	args := m.Called(ctx, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

// MockHealth - мок проверки живости
type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ handlers.HealthChecker = (*MockHealth)(nil)

func newUserRouter(h handlers.UserHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/users", h.PostUser)
	r.Delete("/api/users/{id}", h.DeleteUserByID)
	r.Put("/api/users/{id}", h.UpdateUserByID)
	return r
}

func TestUserHandler_DeleteOnlyUser(t *testing.T) {
	mockService := new(MockUserService)
	mockService.On("DeleteUser", mock.Anything, int64(1)).
		Return(service.NewValidationError("user", "cannot delete the only user"))

	handler := handlers.NewUserHandler(mockService)
	router := newUserRouter(handler)

	req := httptest.NewRequest("DELETE", "/api/users/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot delete the only user")
	mockService.AssertExpectations(t)
}

func TestUserHandler_DeleteUser(t *testing.T) {
	mockService := new(MockUserService)
	mockService.On("DeleteUser", mock.Anything, int64(3)).Return(nil)

	handler := handlers.NewUserHandler(mockService)
	router := newUserRouter(handler)

	req := httptest.NewRequest("DELETE", "/api/users/3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestUserHandler_PostUser(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockUserService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success - create user",
			requestBody: `{"username": "alice", "display_name": "Alice", "color": "#ff0000"}`,
			contentType: "application/json",
			setupMock: func(m *MockUserService) {
				m.On("CreateUser", mock.Anything, "alice", "Alice", "#ff0000").
					Return(&models.User{ID: 1, Username: "alice", DisplayName: "Alice", Color: "#ff0000"}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"username":"alice"`,
		},
		{
			name:        "error - duplicate username",
			requestBody: `{"username": "alice"}`,
			contentType: "application/json",
			setupMock: func(m *MockUserService) {
				m.On("CreateUser", mock.Anything, "alice", "", "").
					Return(nil, service.NewAlreadyExists("user", "Username 'alice' already exists"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "already exists",
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockUserService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid}`,
			contentType:    "application/json",
			setupMock:      func(m *MockUserService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockUserService)
			tt.setupMock(mockService)

			handler := handlers.NewUserHandler(mockService)
			router := newUserRouter(handler)

			req := httptest.NewRequest("POST", "/api/users", strings.NewReader(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			mockService.AssertExpectations(t)
		})
	}
}

// null в email должен дойти до сервиса как EmailSet с пустым
// значением, отсутствие ключа — как EmailSet=false
func TestUserHandler_UpdateUser_EmailNull(t *testing.T) {
	mockService := new(MockUserService)
	mockService.On("UpdateUser", mock.Anything, int64(2),
		mock.MatchedBy(func(u service.UserUpdate) bool {
			return u.EmailSet && u.Email == nil
		})).
		Return(&models.User{ID: 2, Username: "bob"}, nil)

	handler := handlers.NewUserHandler(mockService)
	router := newUserRouter(handler)

	req := httptest.NewRequest("PUT", "/api/users/2", strings.NewReader(`{"email": null}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestTagHandler_PostTag(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTagService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success - global tag",
			requestBody: `{"name": "urgent", "color": "#e74c3c"}`,
			setupMock: func(m *MockTagService) {
				m.On("CreateTag", mock.Anything, "urgent", "#e74c3c", (*int64)(nil)).
					Return(&models.Tag{ID: 1, Name: "urgent", Color: "#e74c3c"}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"name":"urgent"`,
		},
		{
			name:        "error - duplicate in scope",
			requestBody: `{"name": "urgent"}`,
			setupMock: func(m *MockTagService) {
				m.On("CreateTag", mock.Anything, "urgent", "", (*int64)(nil)).
					Return(nil, service.NewAlreadyExists("tag", "Tag 'urgent' already exists"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Tag 'urgent' already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTagService)
			tt.setupMock(mockService)

			handler := handlers.NewTagHandler(mockService)
			router := chi.NewRouter()
			router.Post("/api/tags", handler.PostTag)

			req := httptest.NewRequest("POST", "/api/tags", strings.NewReader(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTagHandler_AttachDuplicate(t *testing.T) {
	mockService := new(MockTagService)
	mockService.On("AttachTag", mock.Anything, int64(5), int64(3)).
		Return(service.NewAlreadyExists("tag", "Tag already attached to task"))

	handler := handlers.NewTagHandler(mockService)
	router := chi.NewRouter()
	router.Post("/api/tasks/{id}/tags", handler.AttachTag)

	req := httptest.NewRequest("POST", "/api/tasks/5/tags", strings.NewReader(`{"tag_id": 3}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already attached")
	mockService.AssertExpectations(t)
}

func multipartBody(t *testing.T, filename, userID string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if userID != "" {
		require.NoError(t, writer.WriteField("user_id", userID))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestImageHandler_PostImage(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		userID         string
		setupMock      func(*MockImageService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "success - png upload",
			filename: "photo.png",
			userID:   "1",
			setupMock: func(m *MockImageService) {
				m.On("Upload", mock.Anything, int64(7), int64(1), "photo.png", mock.Anything).
					Return(&models.TaskImage{
						ID:               12,
						TaskID:           7,
						UserID:           1,
						Filename:         "3f2c9a.png",
						OriginalFilename: "photo.png",
						MimeType:         "image/png",
						FileSize:         16,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"url":"/api/images/12/download"`,
		},
		{
			name:     "error - executable rejected",
			filename: "virus.exe",
			userID:   "1",
			setupMock: func(m *MockImageService) {
				m.On("Upload", mock.Anything, int64(7), int64(1), "virus.exe", mock.Anything).
					Return(nil, service.NewValidationError("file", "Invalid file type"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid file type",
		},
		{
			name:           "error - no file",
			filename:       "",
			userID:         "1",
			setupMock:      func(m *MockImageService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "No file selected",
		},
		{
			name:           "error - missing user_id",
			filename:       "photo.png",
			userID:         "",
			setupMock:      func(m *MockImageService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "user_id required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockImageService)
			tt.setupMock(mockService)

			handler := handlers.NewImageHandler(mockService, 16<<20)
			router := chi.NewRouter()
			router.Post("/api/tasks/{id}/images", handler.PostImage)

			body, contentType := multipartBody(t, tt.filename, tt.userID)
			req := httptest.NewRequest("POST", "/api/tasks/7/images", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		optionCount    int
		expectedStatus int
	}{
		{
			name:           "status only",
			requestBody:    `{"status": "done"}`,
			optionCount:    1,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "clear assignee with null",
			requestBody:    `{"assigned_to": null, "title": "new title"}`,
			optionCount:    2,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty body changes nothing",
			requestBody:    `{}`,
			optionCount:    0,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			mockService.On("UpdateTask", mock.Anything, int64(9),
				mock.MatchedBy(func(opts []models.TaskOption) bool {
					return len(opts) == tt.optionCount
				})).
				Return(&models.Task{ID: 9, Title: "new title", Status: models.StatusDone}, nil)

			handler := handlers.NewTaskHandler(mockService)
			router := chi.NewRouter()
			router.Put("/api/tasks/{id}", handler.UpdateTaskByID)

			req := httptest.NewRequest("PUT", "/api/tasks/9", strings.NewReader(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_GetTaskNotFound(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("GetTaskByID", mock.Anything, int64(404)).
		Return(nil, service.NewNotFound("task", 404))

	handler := handlers.NewTaskHandler(mockService)
	router := chi.NewRouter()
	router.Get("/api/tasks/{id}", handler.GetTaskByID)

	req := httptest.NewRequest("GET", "/api/tasks/404", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "task not found")
	mockService.AssertExpectations(t)
}

func TestStatsHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockHealth)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockHealth) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - db down",
			setupMock: func(m *MockHealth) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockHealth := new(MockHealth)
			tt.setupMock(mockHealth)

			handler := handlers.NewStatsHandler(nil, nil, mockHealth)

			req := httptest.NewRequest("GET", "/api/health", nil)
			w := httptest.NewRecorder()
			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "ok", resp["status"])
			} else {
				assert.Equal(t, "unhealthy", resp["status"])
			}
			mockHealth.AssertExpectations(t)
		})
	}
}
