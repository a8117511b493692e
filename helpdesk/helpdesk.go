// Package helpdesk embeds the conversation addressing service in another
// application.
//
// Setup:
//
//  1. Open a Postgres or SQLite database
//  2. Create a Helpdesk instance (Migrate creates the schema) and mount routes
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	desk, err := helpdesk.New(helpdesk.Config{
//	    DB:                  db,
//	    IncomingEmailDomain: "help.example.com",
//	    JWTSecret:           "your-secret-key-at-least-32-chars",
//	    Migrate:             true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", desk.Router())
//	http.ListenAndServe(":8080", r)
//
// Inbound mail can be routed without HTTP:
//
//	conv, err := desk.Service().ResolveStrict(ctx, "acme+42@help.example.com")
package helpdesk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tendant/simple-helpdesk/internal/config"
	httpserver "github.com/tendant/simple-helpdesk/internal/http"
	"github.com/tendant/simple-helpdesk/internal/http/middleware"
	"github.com/tendant/simple-helpdesk/pkg/auth"
	"github.com/tendant/simple-helpdesk/pkg/conversation"
	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/repository"
)

// Config holds the configuration for an embedded helpdesk.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// Driver selects the SQL dialect: "postgres" (default) or "sqlite3".
	// SQLite connections must enable foreign keys (e.g. repository.Config.DSN
	// or "_foreign_keys=on"); deleting a conversation relies on the cascade.
	Driver string

	// Migrate creates missing tables before the schema is checked.
	Migrate bool

	// IncomingEmailDomain is the domain of every conversation mailbox (required).
	IncomingEmailDomain string

	// JWTSecret is the secret key for verifying access tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in access tokens (default: "simple-helpdesk").
	JWTIssuer string

	// AccessTokenTTL is the lifetime of issued access tokens (default: 15 minutes).
	AccessTokenTTL time.Duration

	// Publisher receives conversation events (default: discard).
	Publisher conversation.Publisher

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Helpdesk is an embedded helpdesk instance.
type Helpdesk struct {
	config  Config
	tenants *repository.TenantsRepository
	service *conversation.Service
	tokens  *auth.TokenService
}

// New creates a Helpdesk. It fails if the schema is missing and Migrate is
// not set.
func New(cfg Config) (*Helpdesk, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	ctx := context.Background()
	if cfg.Migrate {
		if err := repository.Migrate(ctx, cfg.DB, cfg.Driver); err != nil {
			return nil, fmt.Errorf("helpdesk: migrate: %w", err)
		}
	}
	if err := validateSchema(ctx, cfg.DB); err != nil {
		return nil, err
	}
	if cfg.Driver == repository.DriverSQLite {
		if err := validateForeignKeys(ctx, cfg.DB); err != nil {
			return nil, err
		}
	}

	tenants := repository.NewTenantsRepository(cfg.DB)
	service, err := conversation.NewService(
		conversation.Config{
			IncomingEmailDomain: cfg.IncomingEmailDomain,
			Publisher:           cfg.Publisher,
			Logger:              cfg.Logger,
		},
		tenants,
		repository.NewConversationsRepository(cfg.DB),
		repository.NewMessagesRepository(cfg.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: %w", err)
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessTokenTTL: cfg.AccessTokenTTL,
		JWTSecret:      []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
	})

	return &Helpdesk{
		config:  cfg,
		tenants: tenants,
		service: service,
		tokens:  tokens,
	}, nil
}

// Router returns an http.Handler serving the helpdesk API.
//
// Routes:
//
//	GET    /health
//	POST   /v1/conversations
//	GET    /v1/conversations[?status=open]
//	GET    /v1/conversations/{id}
//	DELETE /v1/conversations/{id}
//	PUT    /v1/conversations/{id}/archived
//	GET    /v1/conversations/{id}/messages
//	POST   /v1/conversations/{id}/messages
//	GET    /v1/conversations/{id}/messages/latest
//	POST   /v1/inbound/resolve                     (agents only)
func (h *Helpdesk) Router() http.Handler {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:  h.config.Logger,
		Service: h.service,
		Tokens:  h.tokens,
		Validation: config.ValidationConfig{
			MaxRequestBodySize: 1 << 20,
		},
	})
}

// Service returns the conversation service for direct use.
func (h *Helpdesk) Service() *conversation.Service {
	return h.service
}

// Tokens returns the token service, e.g. to issue tokens for your own users.
func (h *Helpdesk) Tokens() *auth.TokenService {
	return h.tokens
}

// AuthMiddleware returns middleware that validates access tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(desk.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (h *Helpdesk) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(h.tokens)
}

// CallerFromContext returns the caller stored by AuthMiddleware.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	return middleware.GetCaller(ctx)
}

// CreateTenant registers a tenant. The slug becomes part of every mailbox
// address of the tenant and cannot be changed later.
func (h *Helpdesk) CreateTenant(ctx context.Context, slug, name string) (*domain.Tenant, error) {
	tenant := &domain.Tenant{Slug: slug, Name: name}
	if err := h.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("helpdesk: DB is required")
	}
	if strings.TrimSpace(cfg.IncomingEmailDomain) == "" {
		return errors.New("helpdesk: IncomingEmailDomain is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("helpdesk: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("helpdesk: JWTSecret must be at least 32 characters")
	}
	switch cfg.Driver {
	case "", repository.DriverPostgres, repository.DriverSQLite:
	default:
		return fmt.Errorf("helpdesk: unsupported driver %q", cfg.Driver)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Driver == "" {
		cfg.Driver = repository.DriverPostgres
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "simple-helpdesk"
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.Publisher == nil {
		cfg.Publisher = conversation.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required tables exist.
func validateSchema(ctx context.Context, db *sql.DB) error {
	checks := map[string]string{
		"tenants":       `SELECT id, slug, conversation_seq FROM tenants WHERE 1 = 0`,
		"conversations": `SELECT id, tenant_id, number, archived FROM conversations WHERE 1 = 0`,
		"messages":      `SELECT id, conversation_id, internal FROM messages WHERE 1 = 0`,
	}

	for table, query := range checks {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("helpdesk: missing or outdated table '%s' - run migrations first: %w", table, err)
		}
		rows.Close()
	}

	return nil
}

// validateForeignKeys checks that SQLite enforces foreign keys on this
// connection pool. Without them conversation deletes leave messages behind.
func validateForeignKeys(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		return fmt.Errorf("helpdesk: failed to check foreign keys: %w", err)
	}
	if enabled != 1 {
		return errors.New("helpdesk: sqlite foreign keys are off - open the database with _foreign_keys=on")
	}
	return nil
}
