package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"taskmaster/internal/handlers/dto"
	"taskmaster/internal/logger"

	"go.uber.org/zap"
)

type ImageHandler struct {
	ImageService  ImageService
	MaxUploadSize int64
}

func NewImageHandler(imageService ImageService, maxUploadSize int64) ImageHandler {
	return ImageHandler{
		ImageService:  imageService,
		MaxUploadSize: maxUploadSize,
	}
}

func (s *ImageHandler) GetImagesByTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	taskID, err := pathID(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	images, err := s.ImageService.GetImagesByTask(r.Context(), taskID)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_images"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Изображения получены",
		zap.Int64("task_id", taskID),
		zap.Int("count", len(images)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithList(w, http.StatusOK, dto.FromImageList(images))
}

func (s *ImageHandler) PostImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	taskID, err := pathID(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSize)
	if err := r.ParseMultipartForm(s.MaxUploadSize); err != nil {
		logger.Warn("HTTP: ошибка чтения multipart",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось разобрать форму: "+err.Error())
		return
	}

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("field", "user_id"),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "user_id required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("HTTP: файл не передан",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "No file selected")
		return
	}
	defer file.Close()

	logger.Info("HTTP: Вызов сервиса загрузки изображения")

	image, err := s.ImageService.Upload(r.Context(), taskID, userID, header.Filename, file)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "upload_image"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Изображение загружено",
		zap.Int64("image_id", image.ID),
		zap.Int64("size", image.FileSize),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithObject(w, http.StatusCreated, dto.FromImage(image))
}

func (s *ImageHandler) DownloadImage(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := pathID(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	image, err := s.ImageService.Download(r.Context(), id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "download_image"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	f, err := os.Open(image.FilePath)
	if err != nil {
		logger.Error("HTTP: не удалось открыть файл", err,
			zap.Int64("image_id", id))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", image.MimeType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", image.OriginalFilename))
	http.ServeContent(w, r, image.OriginalFilename, image.CreatedAt, f)
}

func (s *ImageHandler) DeleteImageByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := pathID(r, "id")
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса удаления изображения")

	if err := s.ImageService.Delete(r.Context(), id); err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "delete_image"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Изображение удалено",
		zap.Int64("image_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
