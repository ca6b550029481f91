package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"vidshare/internal/handler"
	"vidshare/internal/httputil"
	"vidshare/internal/session"
	sessionmw "vidshare/internal/transport/http/middleware"
)

// accountRateLimit caps sign-up and sign-in attempts per client IP.
const accountRateLimit = 20

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AccountHandler *handler.AccountHandler
	PostHandler    *handler.PostHandler
	StorageHandler *handler.StorageHandler
	AvatarHandler  *handler.AvatarHandler
	DeviceHandler  *handler.DeviceHandler
	Resolver       session.Resolver
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(sessionmw.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public files: the URLs stored in post rows point here
	r.Get("/storage/buckets/{bucket}/files/{id}/view", cfg.StorageHandler.View)
	r.Get("/avatars/initials", cfg.AvatarHandler.Initials)

	r.Group(func(r chi.Router) {
		r.Use(sessionmw.Session(cfg.Resolver))

		r.Route("/account", func(r chi.Router) {
			r.With(httprate.LimitByIP(accountRateLimit, time.Minute)).Post("/", cfg.AccountHandler.Register)
			r.With(httprate.LimitByIP(accountRateLimit, time.Minute)).Post("/sessions/email", cfg.AccountHandler.Login)
			r.Delete("/sessions/current", cfg.AccountHandler.Logout)
			r.Get("/", cfg.AccountHandler.Account)
		})
		r.Get("/me", cfg.AccountHandler.Me)

		r.Get("/posts", cfg.PostHandler.List)
		r.Get("/posts/latest", cfg.PostHandler.Latest)
		r.Get("/posts/search", cfg.PostHandler.Search)
		r.Get("/users/{id}/posts", cfg.PostHandler.ByCreator)

		// Protected routes - require a signed-in user
		r.Group(func(r chi.Router) {
			r.Use(sessionmw.RequireUser(cfg.Logger))
			r.Post("/posts", cfg.PostHandler.Create)
			r.Post("/storage/buckets/{bucket}/files", cfg.StorageHandler.Upload)
			r.Post("/devices", cfg.DeviceHandler.Register)
			r.Delete("/devices", cfg.DeviceHandler.Remove)
		})
	})

	return r
}
