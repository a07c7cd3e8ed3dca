package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type querierStub struct {
	row      pgx.Row
	rows     pgx.Rows
	queryErr error
	execErr  error
	lastArgs []any
}

func (q *querierStub) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	q.lastArgs = args
	if q.row != nil {
		return q.row
	}
	return stubRow{err: errors.New("row not mocked")}
}

func (q *querierStub) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func (q *querierStub) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, q.execErr
}

type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i >= len(r.vals) {
			continue
		}
		switch d := dest[i].(type) {
		case *string:
			*d = r.vals[i].(string)
		case *bool:
			*d = r.vals[i].(bool)
		}
	}
	return nil
}

type stubRows struct {
	rows    [][]any
	idx     int
	scanErr error
	err     error
}

func (r *stubRows) Close()                        {}
func (r *stubRows) Err() error                    { return r.err }
func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}
func (r *stubRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}
func (r *stubRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	return stubRow{vals: r.rows[r.idx-1]}.Scan(dest...)
}
func (r *stubRows) Values() ([]any, error) { return nil, nil }
func (r *stubRows) RawValues() [][]byte    { return nil }
func (r *stubRows) Conn() *pgx.Conn        { return nil }

func TestPGDirectory_TenantForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	q := &querierStub{row: stubRow{vals: []any{"t1"}}}
	got, ok, err := NewPGDirectory(q).TenantForUser(ctx, " u1 ")
	if err != nil || !ok || got != "t1" {
		t.Fatalf("got=%q ok=%v err=%v", got, ok, err)
	}
	if len(q.lastArgs) != 1 || q.lastArgs[0] != "u1" {
		t.Fatalf("args=%v", q.lastArgs)
	}

	if _, ok, err := NewPGDirectory(&querierStub{row: stubRow{err: pgx.ErrNoRows}}).TenantForUser(ctx, "u1"); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, _, err := NewPGDirectory(&querierStub{row: stubRow{err: errors.New("boom")}}).TenantForUser(ctx, "u1"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok, err := NewPGDirectory(&querierStub{}).TenantForUser(ctx, ""); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestPGDirectory_DemoTenantID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if got, ok, err := NewPGDirectory(&querierStub{row: stubRow{vals: []any{"demo"}}}).DemoTenantID(ctx); err != nil || !ok || got != "demo" {
		t.Fatalf("got=%q ok=%v err=%v", got, ok, err)
	}
	if _, ok, err := NewPGDirectory(&querierStub{row: stubRow{err: pgx.ErrNoRows}}).DemoTenantID(ctx); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, _, err := NewPGDirectory(&querierStub{row: stubRow{err: errors.New("boom")}}).DemoTenantID(ctx); err == nil {
		t.Fatal("expected error")
	}
}

func TestPGDirectory_ListTenants(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rows := &stubRows{rows: [][]any{{"t1", "Acme", false, true}, {"t2", "Demo", true, true}}}
	got, err := NewPGDirectory(&querierStub{rows: rows}).ListTenants(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].ID != "t2" || !got[1].Demo || got[0].Name != "Acme" {
		t.Fatalf("got=%+v", got)
	}

	if _, err := NewPGDirectory(&querierStub{queryErr: errors.New("q")}).ListTenants(ctx); err == nil {
		t.Fatal("expected query error")
	}
	if _, err := NewPGDirectory(&querierStub{rows: &stubRows{rows: [][]any{{"t1"}}, scanErr: errors.New("scan")}}).ListTenants(ctx); err == nil {
		t.Fatal("expected scan error")
	}
	if _, err := NewPGDirectory(&querierStub{rows: &stubRows{err: errors.New("rows")}}).ListTenants(ctx); err == nil {
		t.Fatal("expected rows error")
	}
}

func TestPGDirectory_Ping(t *testing.T) {
	t.Parallel()

	if err := NewPGDirectory(&querierStub{}).Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := NewPGDirectory(&querierStub{execErr: errors.New("down")}).Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
