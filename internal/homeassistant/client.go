package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskmaster/internal/logger"

	"go.uber.org/zap"
)

// Client ходит в supervisor API Home Assistant. Все вызовы —
// fire-and-forget: ошибка логируется и глотается, наружу ничего не
// возвращается и на результат основной операции не влияет.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Notify создаёт постоянное уведомление в Home Assistant
func (c *Client) Notify(ctx context.Context, message, title string) {
	c.post(ctx, "/services/persistent_notification/create", map[string]any{
		"message": message,
		"title":   title,
	})
}

// FireEvent отправляет именованное событие с произвольным payload
func (c *Client) FireEvent(ctx context.Context, eventType string, data map[string]any) {
	c.post(ctx, "/events/"+eventType, data)
}

// UpdateSensor выставляет состояние сенсора
func (c *Client) UpdateSensor(ctx context.Context, entityID string, state any, attributes map[string]any) {
	if attributes == nil {
		attributes = map[string]any{}
	}
	c.post(ctx, "/states/"+entityID, map[string]any{
		"state":      state,
		"attributes": attributes,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("HomeAssistant: Ошибка сериализации payload", err, zap.String("path", path))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		logger.Error("HomeAssistant: Ошибка создания запроса", err, zap.String("path", path))
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("HomeAssistant: Запрос не прошёл", err, zap.String("path", path))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logger.Warn("HomeAssistant: Ответ с ошибкой",
			zap.String("path", path),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
	}
}
