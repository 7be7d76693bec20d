//go:build integration

package containers

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema bootstraps the tables the stores expect. Integration suites truncate
// between tests instead of recreating the container.
const schema = `
CREATE TABLE IF NOT EXISTS surveillances (
	id              UUID PRIMARY KEY,
	owner_id        UUID NOT NULL,
	siren           TEXT NOT NULL,
	company_name    TEXT NOT NULL DEFAULT '',
	watch_type      TEXT NOT NULL,
	criteria        JSONB NOT NULL,
	cadence         TEXT NOT NULL,
	email_alerts    BOOLEAN NOT NULL,
	webhook_url     TEXT NOT NULL DEFAULT '',
	active          BOOLEAN NOT NULL,
	last_checked_at TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS surveillances_owner_idx ON surveillances (owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS surveillances_active_idx ON surveillances (active) WHERE active;

CREATE TABLE IF NOT EXISTS snapshots (
	id              UUID PRIMARY KEY,
	surveillance_id UUID NOT NULL,
	siren           TEXT NOT NULL,
	taken_at        TIMESTAMPTZ NOT NULL,
	data            JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_surveillance_idx ON snapshots (surveillance_id, taken_at DESC);

CREATE TABLE IF NOT EXISTS changes (
	id              UUID PRIMARY KEY,
	surveillance_id UUID NOT NULL,
	change_type     TEXT NOT NULL,
	field           TEXT NOT NULL DEFAULT '',
	old_value       JSONB,
	new_value       JSONB,
	importance      TEXT NOT NULL,
	detected_at     TIMESTAMPTZ NOT NULL,
	notified        BOOLEAN NOT NULL DEFAULT FALSE,
	notified_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS changes_surveillance_idx ON changes (surveillance_id, detected_at DESC);

CREATE TABLE IF NOT EXISTS companies (
	siren               TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	legal_form          TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT '',
	share_capital       DOUBLE PRECISION NOT NULL DEFAULT 0,
	address_line1       TEXT NOT NULL DEFAULT '',
	address_postal_code TEXT NOT NULL DEFAULT '',
	address_city        TEXT NOT NULL DEFAULT '',
	fiscal_year_end     TEXT NOT NULL DEFAULT '',
	revenue             DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_income          DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS company_officers (
	siren      TEXT NOT NULL REFERENCES companies (siren) ON DELETE CASCADE,
	last_name  TEXT NOT NULL,
	first_name TEXT NOT NULL,
	role       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS company_documents (
	id       TEXT PRIMARY KEY,
	siren    TEXT NOT NULL REFERENCES companies (siren) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	filed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS company_proceedings (
	id         TEXT PRIMARY KEY,
	siren      TEXT NOT NULL REFERENCES companies (siren) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	court      TEXT NOT NULL,
	decided_at TEXT NOT NULL
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("vigie_test"),
		tcpostgres.WithUsername("vigie"),
		tcpostgres.WithPassword("vigie"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		URL:       url,
		DB:        db,
	}
}

// TruncateTables removes all rows from the named tables.
// Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE")
	return err
}

// Terminate closes the database handle and stops the container.
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	_ = p.DB.Close()
	return p.Container.Terminate(ctx)
}
