package homeassistant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"taskmaster/internal/homeassistant"
	"taskmaster/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

type capturedRequest struct {
	path   string
	auth   string
	body   map[string]any
	method string
}

func captureServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		captured = append(captured, capturedRequest{
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   body,
			method: r.Method,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestClient_Notify(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)

	client := homeassistant.New(srv.URL, "secret-token", time.Second)
	client.Notify(context.Background(), "Task completed: Fix the boiler", "Task Done!")

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "/services/persistent_notification/create", got.path)
	assert.Equal(t, "Bearer secret-token", got.auth)
	assert.Equal(t, "Task completed: Fix the boiler", got.body["message"])
	assert.Equal(t, "Task Done!", got.body["title"])
}

func TestClient_FireEvent(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)

	client := homeassistant.New(srv.URL, "secret-token", time.Second)
	client.FireEvent(context.Background(), "taskmaster_task_created", map[string]any{
		"task_id": 5,
		"title":   "New task",
	})

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	assert.Equal(t, "/events/taskmaster_task_created", got.path)
	assert.Equal(t, "New task", got.body["title"])
}

func TestClient_UpdateSensor(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)

	client := homeassistant.New(srv.URL, "secret-token", time.Second)
	client.UpdateSensor(context.Background(), "sensor.taskmaster_total_tasks", 3, nil)

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	assert.Equal(t, "/states/sensor.taskmaster_total_tasks", got.path)
	assert.Equal(t, float64(3), got.body["state"])
	// nil-аттрибуты уходят пустым объектом, не null
	assert.NotNil(t, got.body["attributes"])
}

// все ошибки глотаются: недоступный сервер и 500 не должны ронять
// вызывающий код
func TestClient_SwallowsFailures(t *testing.T) {
	client := homeassistant.New("http://127.0.0.1:1", "token", 100*time.Millisecond)
	client.Notify(context.Background(), "message", "title")

	srv, captured := captureServer(t, http.StatusInternalServerError)
	client = homeassistant.New(srv.URL, "token", time.Second)
	client.FireEvent(context.Background(), "taskmaster_test", nil)

	require.Len(t, *captured, 1)
}
