package scopeauth

import (
	"context"
	"sync"
	"time"

	"github.com/matterdesk/scopeauth/logger"
)

// ============================================================================
// POLICY ENGINE
// ============================================================================

// DefaultContextTTL bounds how long a resolved ScopeContext may be served
// from cache. Hierarchy changes made without explicit invalidation can be
// invisible for up to this window.
const DefaultContextTTL = 5 * time.Minute

type contextCacheEntry struct {
	ctx       *ScopeContext
	expiresAt time.Time
}

// Engine evaluates role/permission grants with record-level visibility
// scopes and builds per-user organizational context from the employee
// hierarchy. Construct one instance at application start and share it; the
// only mutable state it owns is the context cache.
type Engine struct {
	grantStore      GrantStore
	roleStore       RoleStore
	assignmentStore RoleAssignmentStore
	employeeStore   EmployeeStore

	ctxCacheMu  sync.RWMutex
	ctxCache    map[string]*contextCacheEntry
	ctxCacheTTL time.Duration

	logger      logger.Logger
	traceIDFunc logger.TraceIDFunc
}

// EngineOption configures an Engine at construction time
type EngineOption func(*Engine) error

// WithContextTTL overrides the context cache TTL
func WithContextTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) error {
		e.ctxCacheTTL = ttl
		return nil
	}
}

func NewEngine(
	grantStore GrantStore,
	roleStore RoleStore,
	assignmentStore RoleAssignmentStore,
	employeeStore EmployeeStore,
	opts ...EngineOption,
) (*Engine, error) {
	e := &Engine{
		grantStore:      grantStore,
		roleStore:       roleStore,
		assignmentStore: assignmentStore,
		employeeStore:   employeeStore,
		ctxCache:        make(map[string]*contextCacheEntry),
		ctxCacheTTL:     DefaultContextTTL,
		logger:          logger.NewPhusluLogger(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) traceID() string {
	if e.traceIDFunc == nil {
		return ""
	}
	return e.traceIDFunc()
}

// ============================================================================
// CONTEXT CACHE
// ============================================================================

func (e *Engine) cachedContext(userID string) (*ScopeContext, bool) {
	e.ctxCacheMu.RLock()
	entry, ok := e.ctxCache[userID]
	e.ctxCacheMu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		e.ctxCacheMu.Lock()
		delete(e.ctxCache, userID)
		e.ctxCacheMu.Unlock()
		return nil, false
	}
	return entry.ctx, true
}

func (e *Engine) storeContext(userID string, sc *ScopeContext) {
	entry := &contextCacheEntry{ctx: sc, expiresAt: time.Now().Add(e.ctxCacheTTL)}
	e.ctxCacheMu.Lock()
	e.ctxCache[userID] = entry
	e.ctxCacheMu.Unlock()
}

// ClearUserCache drops the cached context for one user. Any caller that
// mutates role assignments or the hierarchy for a user outside the engine's
// own admin methods must invoke this, or stale visibility persists for up to
// the TTL window.
func (e *Engine) ClearUserCache(userID string) {
	e.ctxCacheMu.Lock()
	delete(e.ctxCache, userID)
	e.ctxCacheMu.Unlock()
}

// ClearCache drops every cached context
func (e *Engine) ClearCache() {
	e.ctxCacheMu.Lock()
	for k := range e.ctxCache {
		delete(e.ctxCache, k)
	}
	e.ctxCacheMu.Unlock()
}

// CacheStats is a diagnostic snapshot of the context cache
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

func (e *Engine) GetCacheStats() CacheStats {
	e.ctxCacheMu.RLock()
	defer e.ctxCacheMu.RUnlock()
	keys := make([]string, 0, len(e.ctxCache))
	for k := range e.ctxCache {
		keys = append(keys, k)
	}
	return CacheStats{Size: len(keys), Keys: keys}
}

// ============================================================================
// ADMIN SURFACE
// ============================================================================

// The write wrappers below invalidate the affected context cache entries so
// that mutations routed through the engine are immediately visible. Grant
// and role-definition changes do not touch the cache: only hierarchy and
// assignment data is cached, evaluations always read the stores fresh.

func (e *Engine) CreateGrant(ctx context.Context, g *Grant) error {
	return e.grantStore.CreateGrant(ctx, g)
}

func (e *Engine) UpdateGrant(ctx context.Context, g *Grant) error {
	return e.grantStore.UpdateGrant(ctx, g)
}

func (e *Engine) DeleteGrant(ctx context.Context, id string) error {
	return e.grantStore.DeleteGrant(ctx, id)
}

func (e *Engine) CreateRole(ctx context.Context, r *Role) error {
	return e.roleStore.CreateRole(ctx, r)
}

func (e *Engine) UpdateRole(ctx context.Context, r *Role) error {
	return e.roleStore.UpdateRole(ctx, r)
}

func (e *Engine) DeleteRole(ctx context.Context, id string) error {
	return e.roleStore.DeleteRole(ctx, id)
}

func (e *Engine) AssignRole(ctx context.Context, subjectID, roleID string) error {
	err := e.assignmentStore.AssignRole(ctx, subjectID, roleID)
	if err == nil {
		e.ClearUserCache(subjectID)
	}
	return err
}

func (e *Engine) RevokeRole(ctx context.Context, subjectID, roleID string) error {
	err := e.assignmentStore.RevokeRole(ctx, subjectID, roleID)
	if err == nil {
		e.ClearUserCache(subjectID)
	}
	return err
}

// UpsertEmployee flushes the whole context cache: a hierarchy edit can move
// manager chains and reportee sets for users far from the edited record.
func (e *Engine) UpsertEmployee(ctx context.Context, emp *Employee) error {
	err := e.employeeStore.UpsertEmployee(ctx, emp)
	if err == nil {
		e.ClearCache()
	}
	return err
}

func (e *Engine) DeleteEmployee(ctx context.Context, id string) error {
	err := e.employeeStore.DeleteEmployee(ctx, id)
	if err == nil {
		e.ClearCache()
	}
	return err
}
