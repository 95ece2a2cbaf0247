package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oarkflow/squealx"

	"github.com/matterdesk/scopeauth"
)

// SQLGrantStore persists the grant catalogue in SQL (squealx)
type SQLGrantStore struct {
	db *squealx.DB
}

func NewSQLGrantStore(db *squealx.DB) *SQLGrantStore {
	return &SQLGrantStore{db: db}
}

func (s *SQLGrantStore) CreateGrant(ctx context.Context, g *scopeauth.Grant) error {
	conds, _ := json.Marshal(g.Conditions)
	now := time.Now()
	q := `INSERT INTO grants(id, resource, action, effect, scope, conditions_json, created_at, updated_at) VALUES(:id, :resource, :action, :effect, :scope, :conditions_json, :created_at, :updated_at)`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": g.ID, "resource": g.Resource, "action": string(g.Action), "effect": string(g.Effect), "scope": string(g.Scope), "conditions_json": string(conds), "created_at": now, "updated_at": now})
	return err
}

func (s *SQLGrantStore) UpdateGrant(ctx context.Context, g *scopeauth.Grant) error {
	conds, _ := json.Marshal(g.Conditions)
	q := `UPDATE grants SET resource=:resource, action=:action, effect=:effect, scope=:scope, conditions_json=:conditions_json, updated_at=:updated_at WHERE id=:id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": g.ID, "resource": g.Resource, "action": string(g.Action), "effect": string(g.Effect), "scope": string(g.Scope), "conditions_json": string(conds), "updated_at": time.Now()})
	return err
}

func (s *SQLGrantStore) DeleteGrant(ctx context.Context, id string) error {
	q := `DELETE FROM grants WHERE id = :id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"id": id})
	return err
}

func (s *SQLGrantStore) GetGrant(ctx context.Context, id string) (*scopeauth.Grant, error) {
	q := `SELECT id, resource, action, effect, scope, conditions_json, created_at, updated_at FROM grants WHERE id = :id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, fmt.Errorf("grant not found: %s", id)
	}
	return scanGrant(r)
}

func (s *SQLGrantStore) ListGrants(ctx context.Context) ([]*scopeauth.Grant, error) {
	q := `SELECT id, resource, action, effect, scope, conditions_json, created_at, updated_at FROM grants`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out := make([]*scopeauth.Grant, 0)
	for r.Next() {
		g, err := scanGrant(r)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(r rowScanner) (*scopeauth.Grant, error) {
	var id, resource, action, effect, scope, condsJSON string
	var createdRaw, updatedRaw interface{}
	if err := r.Scan(&id, &resource, &action, &effect, &scope, &condsJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	g := &scopeauth.Grant{
		ID:       id,
		Resource: resource,
		Action:   scopeauth.Action(action),
		Effect:   scopeauth.Effect(effect),
		Scope:    scopeauth.Scope(scope),
	}
	var conds []scopeauth.Condition
	_ = json.Unmarshal([]byte(condsJSON), &conds)
	g.Conditions = conds
	g.CreatedAt = scanTime(createdRaw)
	g.UpdatedAt = scanTime(updatedRaw)
	return g, nil
}
