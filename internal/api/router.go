package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Domi-X-in/financial-ledger-app/internal/auth"
	"github.com/Domi-X-in/financial-ledger-app/internal/ledger"
	"github.com/Domi-X-in/financial-ledger-app/internal/metrics"
)

// RouterConfig holds the dependencies of the HTTP surface.
type RouterConfig struct {
	Service   *ledger.Service
	Tokens    *auth.TokenManager
	Google    *auth.GoogleVerifier
	Metrics   *metrics.Metrics
	UploadDir string
	// RequestLogging enables chi's request logger.
	RequestLogging bool
}

// NewRouter builds the application router.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Service, cfg.Tokens, cfg.Google)
	ledgersHandler := NewLedgersHandler(cfg.Service)
	transactionsHandler := NewTransactionsHandler(cfg.Service, cfg.Metrics, cfg.UploadDir)
	usersHandler := NewUsersHandler(cfg.Service)
	messagesHandler := NewMessagesHandler(cfg.Service)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cfg.Metrics.Middleware)

	// Auth endpoints (no authentication required except current).
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/signup", authHandler.Signup)
		r.Post("/google", authHandler.Google)
		r.With(AuthMiddleware(cfg.Tokens, cfg.Service)).Get("/current", authHandler.Current)
	})

	// API endpoints (authentication required).
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Service))

		// Ledgers endpoints.
		r.Route("/ledgers", func(r chi.Router) {
			r.Get("/", ledgersHandler.List)
			r.Post("/", ledgersHandler.Create)
			r.Get("/{id}", ledgersHandler.Get)
			r.Put("/{id}", ledgersHandler.Update)
			r.Put("/{id}/permissions", ledgersHandler.UpdatePermissions)
			r.Delete("/{id}", ledgersHandler.Delete)
		})

		// Transactions endpoints.
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", transactionsHandler.Create)
			r.Put("/{id}", transactionsHandler.Update)
			r.Delete("/{id}", transactionsHandler.Delete)
			r.Get("/ledger/{ledgerId}", transactionsHandler.ListByLedger)
			r.Get("/ledger/{ledgerId}/export/csv", transactionsHandler.Export)
			r.Get("/template/csv", transactionsHandler.Template)
			r.Post("/import/csv", transactionsHandler.Import)
			r.With(RequireAdmin).Post("/import/file", transactionsHandler.ImportFile)
		})

		// Users endpoints.
		r.Route("/users", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", usersHandler.List)
			r.Post("/", usersHandler.Invite)
			r.Put("/{id}", usersHandler.Update)
			r.Delete("/{id}", usersHandler.Delete)
		})

		// Messages endpoints.
		r.Route("/messages", func(r chi.Router) {
			r.Post("/", messagesHandler.Send)
			r.With(RequireAdmin).Get("/", messagesHandler.List)
			r.With(RequireAdmin).Put("/{id}/read", messagesHandler.MarkRead)
			r.With(RequireAdmin).Delete("/{id}", messagesHandler.Delete)
		})
	})

	// Health check endpoint.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Metrics endpoint.
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	return r
}
