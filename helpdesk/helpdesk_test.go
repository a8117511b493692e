package helpdesk

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := repository.NewDB(repository.Config{
		Driver: repository.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "helpdesk.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_ValidatesConfig(t *testing.T) {
	db := openDB(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing db", cfg: Config{IncomingEmailDomain: "help.example.com", JWTSecret: testSecret}},
		{name: "missing domain", cfg: Config{DB: db, JWTSecret: testSecret}},
		{name: "short secret", cfg: Config{DB: db, IncomingEmailDomain: "help.example.com", JWTSecret: "short"}},
		{name: "unknown driver", cfg: Config{DB: db, Driver: "mysql", IncomingEmailDomain: "help.example.com", JWTSecret: testSecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_RequiresSchema(t *testing.T) {
	_, err := New(Config{
		DB:                  openDB(t),
		Driver:              repository.DriverSQLite,
		IncomingEmailDomain: "help.example.com",
		JWTSecret:           testSecret,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run migrations")
}

func TestNew_RequiresSQLiteForeignKeys(t *testing.T) {
	db, err := sql.Open(repository.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "helpdesk.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = New(Config{
		DB:                  db,
		Driver:              repository.DriverSQLite,
		Migrate:             true,
		IncomingEmailDomain: "help.example.com",
		JWTSecret:           testSecret,
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign keys")
}

func TestHelpdesk_EndToEnd(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	desk, err := New(Config{
		DB:                  db,
		Driver:              repository.DriverSQLite,
		Migrate:             true,
		IncomingEmailDomain: "help.example.com",
		JWTSecret:           testSecret,
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	tenant, err := desk.CreateTenant(ctx, "acme", "Acme")
	require.NoError(t, err)

	conv, err := desk.Service().Create(ctx, tenant.ID)
	require.NoError(t, err)

	got, err := desk.Service().ResolveStrict(ctx, "acme+1@help.example.com")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = desk.CreateTenant(ctx, "Not A Slug", "Bad")
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)

	token, err := desk.Tokens().Issue(domain.Caller{UserID: tenant.ID, TenantID: tenant.ID, Role: domain.RoleAgent})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/"+conv.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	desk.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	agent := domain.Caller{UserID: tenant.ID, TenantID: tenant.ID, Role: domain.RoleAgent}
	_, err = desk.Service().AddMessage(ctx, agent, conv.ID, "hello", false)
	require.NoError(t, err)
	require.NoError(t, desk.Service().Delete(ctx, agent, conv.ID))

	var orphans int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conv.ID).Scan(&orphans))
	assert.Zero(t, orphans)
}
