package stores

import (
	"context"
	"fmt"

	"github.com/oarkflow/squealx"

	"github.com/matterdesk/scopeauth"
)

// SQLEmployeeStore persists the employee directory in SQL (squealx)
type SQLEmployeeStore struct {
	db *squealx.DB
}

func NewSQLEmployeeStore(db *squealx.DB) *SQLEmployeeStore {
	return &SQLEmployeeStore{db: db}
}

func (s *SQLEmployeeStore) UpsertEmployee(ctx context.Context, e *scopeauth.Employee) error {
	q := `INSERT INTO employees(id, manager_id, active, tenant_id) VALUES(:id, :manager_id, :active, :tenant_id)
		ON CONFLICT(id) DO UPDATE SET manager_id=:manager_id, active=:active, tenant_id=:tenant_id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": e.ID, "manager_id": e.ManagerID, "active": boolToInt(e.Active), "tenant_id": e.TenantID})
	return err
}

func (s *SQLEmployeeStore) DeleteEmployee(ctx context.Context, id string) error {
	q := `DELETE FROM employees WHERE id = :id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": id})
	return err
}

func (s *SQLEmployeeStore) GetEmployee(ctx context.Context, id string) (*scopeauth.Employee, error) {
	q := `SELECT id, manager_id, active, tenant_id FROM employees WHERE id = :id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, fmt.Errorf("employee not found: %s", id)
	}
	return scanEmployee(r)
}

func (s *SQLEmployeeStore) ListEmployees(ctx context.Context) ([]*scopeauth.Employee, error) {
	q := `SELECT id, manager_id, active, tenant_id FROM employees`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*scopeauth.Employee, 0)
	for r.Next() {
		e, err := scanEmployee(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func scanEmployee(r rowScanner) (*scopeauth.Employee, error) {
	var id, managerID, tenantID string
	var active int
	if err := r.Scan(&id, &managerID, &active, &tenantID); err != nil {
		return nil, err
	}
	return &scopeauth.Employee{ID: id, ManagerID: managerID, Active: active == 1, TenantID: tenantID}, nil
}
