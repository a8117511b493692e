package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-helpdesk/internal/config"
	"github.com/tendant/simple-helpdesk/internal/http/features/conversations"
	"github.com/tendant/simple-helpdesk/internal/http/features/inbound"
	"github.com/tendant/simple-helpdesk/internal/http/middleware"
	"github.com/tendant/simple-helpdesk/internal/httputil"
	"github.com/tendant/simple-helpdesk/pkg/auth"
	"github.com/tendant/simple-helpdesk/pkg/conversation"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Service         *conversation.Service
	Tokens          *auth.TokenService
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	conversationsHandler := conversations.NewHandler(cfg.Logger, cfg.Service)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Tokens))
		r.Use(rateLimiters[middleware.LimiterAPI])
		r.Post("/v1/conversations", conversationsHandler.Create)
		r.Get("/v1/conversations", conversationsHandler.List)
		r.Get("/v1/conversations/{id}", conversationsHandler.Get)
		r.Delete("/v1/conversations/{id}", conversationsHandler.Delete)
		r.Put("/v1/conversations/{id}/archived", conversationsHandler.SetArchived)
		r.Get("/v1/conversations/{id}/messages", conversationsHandler.Messages)
		r.Post("/v1/conversations/{id}/messages", conversationsHandler.AddMessage)
		r.Get("/v1/conversations/{id}/messages/latest", conversationsHandler.LatestMessage)
	})

	// Inbound mail routing is called by the mail gateway with an agent token.
	inboundHandler := inbound.NewHandler(cfg.Logger, cfg.Service)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Tokens))
		r.Use(middleware.RequireAgent())
		r.Use(rateLimiters[middleware.LimiterInbound])
		r.Post("/v1/inbound/resolve", inboundHandler.Resolve)
	})

	return r
}
