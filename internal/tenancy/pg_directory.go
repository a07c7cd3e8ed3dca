package tenancy

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGDirectory reads memberships and tenants from the iam schema.
type PGDirectory struct {
	q pgQuerier
}

func NewPGDirectory(q pgQuerier) *PGDirectory {
	return &PGDirectory{q: q}
}

func (d *PGDirectory) TenantForUser(ctx context.Context, userID string) (string, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", false, nil
	}
	var tenantID string
	err := d.q.QueryRow(ctx, `
SELECT m.tenant_id::text
FROM iam.tenant_members m
JOIN iam.tenants t ON t.id = m.tenant_id
WHERE m.user_id = $1
  AND m.is_active = true
  AND t.is_active = true
ORDER BY m.created_at
LIMIT 1
`, userID).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return tenantID, true, nil
}

func (d *PGDirectory) DemoTenantID(ctx context.Context) (string, bool, error) {
	var tenantID string
	err := d.q.QueryRow(ctx, `
SELECT id::text
FROM iam.tenants
WHERE is_demo = true
  AND is_active = true
ORDER BY created_at
LIMIT 1
`).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return tenantID, true, nil
}

func (d *PGDirectory) ListTenants(ctx context.Context) ([]Record, error) {
	rows, err := d.q.Query(ctx, `
SELECT id::text, name, is_demo, is_active
FROM iam.tenants
ORDER BY id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Demo, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping reports whether the directory's database answers.
func (d *PGDirectory) Ping(ctx context.Context) error {
	_, err := d.q.Exec(ctx, `SELECT 1`)
	return err
}
