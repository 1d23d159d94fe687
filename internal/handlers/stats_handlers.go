package handlers

import (
	"net/http"
	"strconv"
	"time"

	"taskmaster/internal/logger"

	"go.uber.org/zap"
)

type StatsHandler struct {
	StatsService    StatsService
	ActivityService ActivityService
	Health          HealthChecker
}

func NewStatsHandler(statsService StatsService, activityService ActivityService, health HealthChecker) StatsHandler {
	return StatsHandler{
		StatsService:    statsService,
		ActivityService: activityService,
		Health:          health,
	}
}

func (s *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	stats, err := s.StatsService.GetStats(r.Context())
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_stats"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Статистика получена",
		zap.Int("total_tasks", stats.TotalTasks),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithObject(w, http.StatusOK, stats)
}

func (s *StatsHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			logger.Warn("HTTP: Неверное значение параметра",
				zap.String("query", "limit"),
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "неверное значение limit: "+err.Error())
			return
		}
		limit = parsed
	}

	entries, err := s.ActivityService.GetRecentActivity(r.Context(), limit)
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_activity"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Журнал активности получен",
		zap.Int("count", len(entries)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithList(w, http.StatusOK, entries)
}

func (s *StatsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.Health.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: база недоступна", err)

		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("error", err.Error()))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()))
}
