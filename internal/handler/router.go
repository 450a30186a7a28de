package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/pkg/respond"
)

// Services - зависимости роутера.
type Services struct {
	Auth     *service.AuthService
	Tasks    *service.TaskService
	Projects *service.ProjectService
	Users    *service.UserService
}

func NewRouter(svc Services, corsOrigins []string, logger *zap.Logger) http.Handler {
	schemas := mustCompileSchemas()

	tasks := NewTaskHandler(svc.Tasks, schemas, logger)
	projects := NewProjectHandler(svc.Projects, svc.Tasks, schemas, logger)
	auth := NewAuthHandler(svc.Auth, schemas, logger)
	users := NewUserHandler(svc.Users, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(svc.Auth, logger))
			admin := RequireAdmin(logger)

			r.Get("/projects", projects.List)
			r.With(admin).Post("/projects", projects.Create)
			r.Get("/projects/{id}/tasks", projects.ListTasks)
			r.Post("/projects/{id}/tasks", projects.CreateTask)
			r.Get("/projects/{id}/stats", projects.Stats)

			r.Get("/tasks/transitions", tasks.Transitions)
			r.Get("/tasks/{id}", tasks.Get)
			r.Patch("/tasks/{id}", tasks.Update)
			r.Delete("/tasks/{id}", tasks.Delete)

			r.With(admin).Get("/users", users.List)
		})
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
