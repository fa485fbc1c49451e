package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"portfolio.dev/chat-assistant/internal/observability"
)

type RouterOptions struct {
	AllowedOrigins []string
	RateLimiter    *RateLimiter
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

func NewRouter(apiHandler *APIHandler, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(Metrics(opts.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	limit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		limit = opts.RateLimiter.Middleware
	}

	r.Handle("/metrics", opts.Metrics.Handler())

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)
		r.Get("/profile", apiHandler.ProfileHandler)
		r.Get("/cards/{category}", apiHandler.CardHandler)
		r.Get("/suggestions", apiHandler.SuggestionsHandler)
		r.Get("/quick-actions", apiHandler.QuickActionsHandler)
		r.With(limit).Post("/chats", apiHandler.CreateChatHandler)

		// Chat-token routes
		r.Route("/chats/{chatID}", func(r chi.Router) {
			r.Use(ChatAuth(apiHandler.tokens))

			r.Get("/", apiHandler.GetChatHandler)
			r.Delete("/", apiHandler.ResetChatHandler)
			r.With(limit).Post("/messages", apiHandler.PostMessageHandler)
			r.With(limit).Post("/actions/{actionID}", apiHandler.QuickActionHandler)
		})
	})

	return r
}
