package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type EmployeePGStore struct {
	pool pgBeginner
}

func NewEmployeePGStore(pool pgBeginner) *EmployeePGStore {
	return &EmployeePGStore{pool: pool}
}

var _ ports.EmployeeStore = (*EmployeePGStore)(nil)

const employeeColumns = `
  id::text,
  tenant_id::text,
  employee_number,
  full_name,
  COALESCE(full_name_ar, ''),
  email,
  COALESCE(phone, ''),
  COALESCE(national_id, ''),
  COALESCE(nationality, ''),
  is_saudi,
  COALESCE(department_id::text, ''),
  COALESCE(manager_id::text, ''),
  COALESCE(position, ''),
  status,
  COALESCE(hire_date::text, ''),
  salary::float8,
  COALESCE(iban, '')`

func scanEmployee(row pgx.Row, e *types.Employee) error {
	return row.Scan(
		&e.ID, &e.TenantID, &e.EmployeeNumber, &e.FullName, &e.FullNameAr,
		&e.Email, &e.Phone, &e.NationalID, &e.Nationality, &e.IsSaudi,
		&e.DepartmentID, &e.ManagerID, &e.Position, &e.Status, &e.HireDate,
		&e.Salary, &e.IBAN,
	)
}

// begin opens a transaction bound to tenantID so row level security applies.
func (s *EmployeePGStore) begin(ctx context.Context, tenantID string) (pgx.Tx, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ports.ErrTenantRequired
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		_ = tx.Rollback(context.Background())
		return nil, err
	}
	return tx, nil
}

// validID reports whether s can be bound as a uuid. Ids that cannot match
// any row are answered without a round trip instead of failing the cast.
func validID(s string) bool {
	return uuid.Validate(s) == nil
}

func filterIDsValid(q ports.Query) bool {
	for _, id := range []string{q.EmployeeID, q.ManagerID, q.DepartmentID} {
		if id != "" && !validID(id) {
			return false
		}
	}
	return true
}

func inputIDsValid(in types.EmployeeInput) error {
	for name, v := range map[string]*string{"department_id": in.DepartmentID, "manager_id": in.ManagerID} {
		if v != nil && *v != "" && !validID(*v) {
			return httperr.NewBadRequest(name + " must be a uuid")
		}
	}
	return nil
}

func buildWhere(q ports.Query) (string, []any) {
	conds := []string{"tenant_id = $1::uuid"}
	args := []any{q.TenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.EmployeeID != "" {
		add("id = $%d::uuid", q.EmployeeID)
	}
	if q.ManagerID != "" {
		args = append(args, q.ManagerID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(manager_id = $%d::uuid OR id = $%d::uuid)", n, n))
	}
	if q.DepartmentID != "" {
		add("department_id = $%d::uuid", q.DepartmentID)
	}
	if q.Status != "" {
		add("status = $%d", q.Status)
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(full_name ILIKE $%d OR full_name_ar ILIKE $%d OR employee_number ILIKE $%d OR email ILIKE $%d)", n, n, n, n))
	}
	return strings.Join(conds, " AND "), args
}

func (s *EmployeePGStore) List(ctx context.Context, q ports.Query) ([]types.Employee, int, error) {
	if strings.TrimSpace(q.TenantID) == "" {
		return nil, 0, ports.ErrTenantRequired
	}
	if !filterIDsValid(q) {
		return []types.Employee{}, 0, nil
	}
	tx, err := s.begin(ctx, q.TenantID)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	where, args := buildWhere(q)

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM hr.employees WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset())
	rows, err := tx.Query(ctx, fmt.Sprintf(`
SELECT %s
FROM hr.employees
WHERE %s
ORDER BY employee_number ASC, id ASC
LIMIT $%d OFFSET $%d
`, employeeColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []types.Employee{}
	for rows.Next() {
		var e types.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *EmployeePGStore) Get(ctx context.Context, tenantID string, id string) (types.Employee, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Employee{}, ports.ErrTenantRequired
	}
	if !validID(id) {
		return types.Employee{}, httperr.NewNotFound("employee", id)
	}
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return types.Employee{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var e types.Employee
	err = scanEmployee(tx.QueryRow(ctx, `SELECT `+employeeColumns+`
FROM hr.employees
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, tenantID, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Employee{}, httperr.NewNotFound("employee", id)
		}
		return types.Employee{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Employee{}, err
	}
	return e, nil
}

func (s *EmployeePGStore) Create(ctx context.Context, tenantID string, in types.EmployeeInput) (types.Employee, error) {
	if err := inputIDsValid(in); err != nil {
		return types.Employee{}, err
	}
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return types.Employee{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	id, err := uuid.NewV7()
	if err != nil {
		return types.Employee{}, err
	}
	e := types.Employee{ID: id.String(), TenantID: tenantID, Status: types.StatusActive}
	in.Apply(&e)

	var out types.Employee
	err = scanEmployee(tx.QueryRow(ctx, `
INSERT INTO hr.employees (
  id, tenant_id, employee_number, full_name, full_name_ar, email, phone,
  national_id, nationality, is_saudi, department_id, manager_id, position,
  status, hire_date, salary, iban
) VALUES (
  $1::uuid, $2::uuid, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''),
  NULLIF($8, ''), NULLIF($9, ''), $10, NULLIF($11, '')::uuid, NULLIF($12, '')::uuid, NULLIF($13, ''),
  $14, NULLIF($15, '')::date, $16, NULLIF($17, '')
)
RETURNING `+employeeColumns,
		e.ID, e.TenantID, e.EmployeeNumber, e.FullName, e.FullNameAr, e.Email, e.Phone,
		e.NationalID, e.Nationality, e.IsSaudi, e.DepartmentID, e.ManagerID, e.Position,
		e.Status, e.HireDate, e.Salary, e.IBAN,
	), &out)
	if err != nil {
		return types.Employee{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Employee{}, err
	}
	return out, nil
}

func (s *EmployeePGStore) Update(ctx context.Context, tenantID string, id string, in types.EmployeeInput) (types.Employee, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Employee{}, ports.ErrTenantRequired
	}
	if !validID(id) {
		return types.Employee{}, httperr.NewNotFound("employee", id)
	}
	if err := inputIDsValid(in); err != nil {
		return types.Employee{}, err
	}
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return types.Employee{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var e types.Employee
	err = scanEmployee(tx.QueryRow(ctx, `SELECT `+employeeColumns+`
FROM hr.employees
WHERE tenant_id = $1::uuid AND id = $2::uuid
FOR UPDATE
`, tenantID, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Employee{}, httperr.NewNotFound("employee", id)
		}
		return types.Employee{}, err
	}
	in.Apply(&e)

	if _, err := tx.Exec(ctx, `
UPDATE hr.employees SET
  employee_number = $3,
  full_name = $4,
  full_name_ar = NULLIF($5, ''),
  email = $6,
  phone = NULLIF($7, ''),
  national_id = NULLIF($8, ''),
  nationality = NULLIF($9, ''),
  is_saudi = $10,
  department_id = NULLIF($11, '')::uuid,
  manager_id = NULLIF($12, '')::uuid,
  position = NULLIF($13, ''),
  status = $14,
  hire_date = NULLIF($15, '')::date,
  salary = $16,
  iban = NULLIF($17, ''),
  updated_at = now()
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, tenantID, id, e.EmployeeNumber, e.FullName, e.FullNameAr, e.Email, e.Phone,
		e.NationalID, e.Nationality, e.IsSaudi, e.DepartmentID, e.ManagerID, e.Position,
		e.Status, e.HireDate, e.Salary, e.IBAN); err != nil {
		return types.Employee{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.Employee{}, err
	}
	return e, nil
}

func (s *EmployeePGStore) Delete(ctx context.Context, tenantID string, id string) error {
	if strings.TrimSpace(tenantID) == "" {
		return ports.ErrTenantRequired
	}
	if !validID(id) {
		return httperr.NewNotFound("employee", id)
	}
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	tag, err := tx.Exec(ctx, `DELETE FROM hr.employees WHERE tenant_id = $1::uuid AND id = $2::uuid`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NewNotFound("employee", id)
	}
	return tx.Commit(ctx)
}
