package scopeauth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ============================================================================
// STORAGE INTERFACES
// ============================================================================

// GrantStore manages the permission-grant catalogue
type GrantStore interface {
	CreateGrant(ctx context.Context, g *Grant) error
	UpdateGrant(ctx context.Context, g *Grant) error
	DeleteGrant(ctx context.Context, id string) error
	GetGrant(ctx context.Context, id string) (*Grant, error)
	ListGrants(ctx context.Context) ([]*Grant, error)
}

// RoleStore manages role persistence
type RoleStore interface {
	CreateRole(ctx context.Context, r *Role) error
	UpdateRole(ctx context.Context, r *Role) error
	DeleteRole(ctx context.Context, id string) error
	GetRole(ctx context.Context, id string) (*Role, error)
	ListRoles(ctx context.Context, tenantID string) ([]*Role, error)
}

// RoleAssignmentStore resolves which roles a subject holds. ListRoleIDs must
// not fail for unknown subjects; it returns an empty result instead.
type RoleAssignmentStore interface {
	AssignRole(ctx context.Context, subjectID, roleID string) error
	RevokeRole(ctx context.Context, subjectID, roleID string) error
	ListRoleIDs(ctx context.Context, subjectID string) ([]string, error)
}

// EmployeeStore supplies the organizational hierarchy. The engine only
// reads; writes exist for the admin surface and fixtures.
type EmployeeStore interface {
	UpsertEmployee(ctx context.Context, e *Employee) error
	DeleteEmployee(ctx context.Context, id string) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)
}

// ============================================================================
// IN-MEMORY STORES
// ============================================================================

type MemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[string]*Grant
}

func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{grants: make(map[string]*Grant)}
}

func (s *MemoryGrantStore) CreateGrant(ctx context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	s.grants[g.ID] = g
	return nil
}

func (s *MemoryGrantStore) UpdateGrant(ctx context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.UpdatedAt = time.Now()
	s.grants[g.ID] = g
	return nil
}

func (s *MemoryGrantStore) DeleteGrant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, id)
	return nil
}

func (s *MemoryGrantStore) GetGrant(ctx context.Context, id string) (*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant not found: %s", id)
	}
	return g, nil
}

func (s *MemoryGrantStore) ListGrants(ctx context.Context) ([]*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Grant, 0, len(s.grants))
	for _, g := range s.grants {
		result = append(result, g)
	}
	return result, nil
}

type MemoryRoleStore struct {
	mu    sync.RWMutex
	roles map[string]*Role
}

func NewMemoryRoleStore() *MemoryRoleStore {
	return &MemoryRoleStore{roles: make(map[string]*Role)}
}

func (s *MemoryRoleStore) CreateRole(ctx context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CreatedAt = time.Now()
	s.roles[r.ID] = r
	return nil
}

func (s *MemoryRoleStore) UpdateRole(ctx context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
	return nil
}

func (s *MemoryRoleStore) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, id)
	return nil
}

func (s *MemoryRoleStore) GetRole(ctx context.Context, id string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, fmt.Errorf("role not found: %s", id)
	}
	return r, nil
}

func (s *MemoryRoleStore) ListRoles(ctx context.Context, tenantID string) ([]*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Role, 0)
	for _, r := range s.roles {
		if tenantID == "" || r.TenantID == tenantID || r.TenantID == "" {
			result = append(result, r)
		}
	}
	return result, nil
}

type MemoryRoleAssignmentStore struct {
	mu    sync.RWMutex
	roles map[string][]string // subjectID -> role ids
}

func NewMemoryRoleAssignmentStore() *MemoryRoleAssignmentStore {
	return &MemoryRoleAssignmentStore{roles: make(map[string][]string)}
}

func (s *MemoryRoleAssignmentStore) AssignRole(ctx context.Context, subjectID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles[subjectID] {
		if r == roleID {
			return nil
		}
	}
	s.roles[subjectID] = append(s.roles[subjectID], roleID)
	return nil
}

func (s *MemoryRoleAssignmentStore) RevokeRole(ctx context.Context, subjectID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]string, 0)
	for _, r := range s.roles[subjectID] {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	s.roles[subjectID] = kept
	return nil
}

// ListRoleIDs returns an empty slice for unknown subjects, never an error.
func (s *MemoryRoleAssignmentStore) ListRoleIDs(ctx context.Context, subjectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.roles[subjectID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

type MemoryEmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]*Employee
}

func NewMemoryEmployeeStore() *MemoryEmployeeStore {
	return &MemoryEmployeeStore{employees: make(map[string]*Employee)}
}

func (s *MemoryEmployeeStore) UpsertEmployee(ctx context.Context, e *Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

func (s *MemoryEmployeeStore) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.employees, id)
	return nil
}

func (s *MemoryEmployeeStore) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee not found: %s", id)
	}
	return e, nil
}

func (s *MemoryEmployeeStore) ListEmployees(ctx context.Context) ([]*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Employee, 0, len(s.employees))
	for _, e := range s.employees {
		result = append(result, e)
	}
	return result, nil
}
