package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/todo-api/internal/api/handlers"
	"github.com/isdelr/todo-api/internal/auth"
	"github.com/isdelr/todo-api/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Deps carries everything the router wires into handlers.
type Deps struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	Tokens         auth.TokenVerifier
	Users          services.UserServiceProvider
	Todos          services.TodoServiceProvider
	Health         handlers.Pinger
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(deps.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(logRequest))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.HeaderName},
		// Browsers may only read x-auth off a response when it is exposed.
		ExposedHeaders: []string{auth.HeaderName},
		MaxAge:         300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Users)
	todoHandler := handlers.NewTodoHandler(deps.Todos)
	healthHandler := handlers.NewHealthHandler(deps.Health)
	requireAuth := auth.Middleware(deps.Tokens, deps.Users)

	r.Get("/healthz", healthHandler.Check)

	r.Route("/user", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.GetMe)
			r.Delete("/me/token", userHandler.Logout)
		})
	})

	r.Route("/todos", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", todoHandler.List)
		r.Post("/", todoHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", todoHandler.Get)
			r.Patch("/", todoHandler.Update)
			r.Delete("/", todoHandler.Delete)
		})
	})

	return r
}

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func logRequest(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
