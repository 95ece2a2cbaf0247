package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oarkflow/squealx"

	"github.com/matterdesk/scopeauth"
)

// SQLRoleStore persists roles in SQL (squealx)
type SQLRoleStore struct {
	db *squealx.DB
}

func NewSQLRoleStore(db *squealx.DB) *SQLRoleStore {
	return &SQLRoleStore{db: db}
}

func (s *SQLRoleStore) CreateRole(ctx context.Context, r *scopeauth.Role) error {
	grantIDs, _ := json.Marshal(r.GrantIDs)
	q := `INSERT INTO roles(id, tenant_id, name, grant_ids_json, created_at) VALUES(:id, :tenant_id, :name, :grant_ids_json, :created_at)`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": r.ID, "tenant_id": r.TenantID, "name": r.Name, "grant_ids_json": string(grantIDs), "created_at": time.Now()})
	return err
}

func (s *SQLRoleStore) UpdateRole(ctx context.Context, r *scopeauth.Role) error {
	grantIDs, _ := json.Marshal(r.GrantIDs)
	q := `UPDATE roles SET tenant_id=:tenant_id, name=:name, grant_ids_json=:grant_ids_json WHERE id=:id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": r.ID, "tenant_id": r.TenantID, "name": r.Name, "grant_ids_json": string(grantIDs)})
	return err
}

func (s *SQLRoleStore) DeleteRole(ctx context.Context, id string) error {
	q := `DELETE FROM roles WHERE id = :id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": id})
	return err
}

func (s *SQLRoleStore) GetRole(ctx context.Context, id string) (*scopeauth.Role, error) {
	q := `SELECT id, tenant_id, name, grant_ids_json, created_at FROM roles WHERE id = :id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, fmt.Errorf("role not found: %s", id)
	}
	var idv, tenant, name, grantIDsJSON string
	var createdRaw interface{}
	if err := r.Scan(&idv, &tenant, &name, &grantIDsJSON, &createdRaw); err != nil {
		return nil, err
	}
	role := &scopeauth.Role{ID: idv, TenantID: tenant, Name: name}
	var grantIDs []string
	_ = json.Unmarshal([]byte(grantIDsJSON), &grantIDs)
	role.GrantIDs = grantIDs
	role.CreatedAt = scanTime(createdRaw)
	return role, nil
}

func (s *SQLRoleStore) ListRoles(ctx context.Context, tenantID string) ([]*scopeauth.Role, error) {
	q := `SELECT id FROM roles WHERE tenant_id = :tenant_id OR tenant_id = ''`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	ids := make([]string, 0)
	for r.Next() {
		var id string
		if err := r.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	out := make([]*scopeauth.Role, 0, len(ids))
	for _, id := range ids {
		if rr, err := s.GetRole(ctx, id); err == nil {
			out = append(out, rr)
		}
	}
	return out, nil
}
