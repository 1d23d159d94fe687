package handlers

import "net/http"
import "mime"
import "strconv"
import "encoding/json"

import "github.com/go-chi/chi/v5"

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// pathID читает числовой параметр маршрута. Ноль и мусор — ошибка.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// decodeRaw доразбирает уже прочитанное тело в целевую структуру.
// Нужен там, где приходится смотреть на сырые ключи запроса.
func decodeRaw(raw map[string]json.RawMessage, dst any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, dst)
}
