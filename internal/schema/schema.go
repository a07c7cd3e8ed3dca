// Package schema carries the Postgres DDL the pg stores run against.
package schema

import (
	"context"
	_ "embed"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var ddl string

// TenantTables are protected by the tenant_isolation row level policy.
var TenantTables = []string{"hr.employees", "hr.performance_reviews", "gov.sync_runs"}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func DDL() string { return ddl }

// Apply runs the DDL in one round trip. Every statement is idempotent.
func Apply(ctx context.Context, db execer) error {
	_, err := db.Exec(ctx, ddl)
	return err
}

// SeedTenant upserts a tenant row; used by local setups and smoke checks.
func SeedTenant(ctx context.Context, db execer, id string, name string, demo bool) error {
	_, err := db.Exec(ctx, `
INSERT INTO iam.tenants (id, name, is_demo)
VALUES ($1::uuid, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_demo = EXCLUDED.is_demo
`, strings.TrimSpace(id), name, demo)
	return err
}
