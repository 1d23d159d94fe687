package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"taskmaster/internal/config"
	"taskmaster/internal/handlers"
	"taskmaster/internal/homeassistant"
	"taskmaster/internal/logger"
	"taskmaster/internal/middleware"
	"taskmaster/internal/repository/postgres"
	"taskmaster/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	storage   *postgres.Storage
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	storage, err := postgres.New(ctx, a.config.Database)
	if err != nil {
		return fmt.Errorf("подключение к базе: %w", err)
	}
	a.storage = storage

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие пула соединений...")
		storage.Close()
	})

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}

	if err := os.MkdirAll(a.config.Storage.UploadDir, 0o755); err != nil {
		return fmt.Errorf("каталог загрузок: %w", err)
	}

	hub := homeassistant.New(a.config.HomeAssistant.URL,
		a.config.SupervisorToken(), a.config.HomeAssistant.Timeout)

	userService := service.NewUserService(storage, storage, hub)
	projectService := service.NewProjectService(storage, storage, storage, hub)
	taskService := service.NewTaskService(storage, storage, storage, hub)
	noteService := service.NewNoteService(storage, storage, storage, hub)
	imageService := service.NewImageService(storage, storage, storage, hub, a.config.Storage.UploadDir)
	tagService := service.NewTagService(storage, storage, storage)
	assignmentService := service.NewAssignmentService(storage, storage, storage, storage, hub)
	subtaskService := service.NewSubtaskService(storage, storage)
	statsService := service.NewStatsService(storage, storage, storage)
	activityService := service.NewActivityService(storage)

	userHandler := handlers.NewUserHandler(&userService)
	projectHandler := handlers.NewProjectHandler(&projectService)
	taskHandler := handlers.NewTaskHandler(&taskService)
	noteHandler := handlers.NewNoteHandler(&noteService)
	imageHandler := handlers.NewImageHandler(&imageService, a.config.Storage.MaxUploadSize)
	tagHandler := handlers.NewTagHandler(&tagService)
	assignmentHandler := handlers.NewAssignmentHandler(&assignmentService)
	subtaskHandler := handlers.NewSubtaskHandler(&subtaskService)
	statsHandler := handlers.NewStatsHandler(&statsService, &activityService, storage)

	router := newRouter(routerDeps{
		users:       userHandler,
		projects:    projectHandler,
		tasks:       taskHandler,
		notes:       noteHandler,
		images:      imageHandler,
		tags:        tagHandler,
		assignments: assignmentHandler,
		subtasks:    subtaskHandler,
		stats:       statsHandler,
		staticDir:   a.config.Server.StaticDir,
	})

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return nil
}

type routerDeps struct {
	users       handlers.UserHandler
	projects    handlers.ProjectHandler
	tasks       handlers.TaskHandler
	notes       handlers.NoteHandler
	images      handlers.ImageHandler
	tags        handlers.TagHandler
	assignments handlers.AssignmentHandler
	subtasks    handlers.SubtaskHandler
	stats       handlers.StatsHandler
	staticDir   string
}

func newRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(300))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", deps.users.GetUsers)
			r.Post("/", deps.users.PostUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.users.GetUserByID)
				r.Put("/", deps.users.UpdateUserByID)
				r.Delete("/", deps.users.DeleteUserByID)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", deps.projects.GetProjects)
			r.Post("/", deps.projects.PostProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.projects.GetProjectByID)
				r.Put("/", deps.projects.UpdateProjectByID)
				r.Delete("/", deps.projects.DeleteProjectByID)

				r.Get("/tasks", deps.tasks.GetTasksByProject)
				r.Post("/tasks", deps.tasks.PostTask)
			})
		})

		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", deps.tasks.GetTaskByID)
			r.Put("/", deps.tasks.UpdateTaskByID)
			r.Delete("/", deps.tasks.DeleteTaskByID)

			r.Get("/notes", deps.notes.GetNotesByTask)
			r.Post("/notes", deps.notes.PostNote)

			r.Get("/images", deps.images.GetImagesByTask)
			r.Post("/images", deps.images.PostImage)

			r.Get("/tags", deps.tags.GetTagsByTask)
			r.Post("/tags", deps.tags.AttachTag)
			r.Delete("/tags/{tagId}", deps.tags.DetachTag)

			r.Get("/assignments", deps.assignments.GetAssignmentsByTask)
			r.Post("/assignments", deps.assignments.PostAssignment)

			r.Get("/subtasks", deps.subtasks.GetSubtasksByTask)
			r.Post("/subtasks", deps.subtasks.PostSubtask)
		})

		r.Route("/notes/{id}", func(r chi.Router) {
			r.Put("/", deps.notes.UpdateNoteByID)
			r.Delete("/", deps.notes.DeleteNoteByID)
		})

		r.Route("/images/{id}", func(r chi.Router) {
			r.Get("/download", deps.images.DownloadImage)
			r.Delete("/", deps.images.DeleteImageByID)
		})

		r.Route("/tags/{id}", func(r chi.Router) {
			r.Put("/", deps.tags.UpdateTagByID)
			r.Delete("/", deps.tags.DeleteTagByID)
		})
		r.Get("/tags", deps.tags.GetTags)
		r.Post("/tags", deps.tags.PostTag)

		r.Delete("/assignments/{id}", deps.assignments.DeleteAssignmentByID)

		r.Route("/subtasks/{id}", func(r chi.Router) {
			r.Put("/", deps.subtasks.UpdateSubtaskByID)
			r.Delete("/", deps.subtasks.DeleteSubtaskByID)
		})

		r.Get("/stats", deps.stats.GetStats)
		r.Get("/activity", deps.stats.GetActivity)
		r.Get("/health", deps.stats.HealthCheck)
	})

	// фронтенд отдаётся как есть, без SPA-роутинга
	r.Handle("/*", http.FileServer(http.Dir(deps.staticDir)))

	return r
}

// Run блокируется до закрытия ctx, затем гасит сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка сервера: %w", err)
	}
	return nil
}

func (a *App) Shutdown() {
	// в обратном порядке: последним гасим логгер
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
