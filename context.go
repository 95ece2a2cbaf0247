package scopeauth

import (
	"context"
	"fmt"
)

// ============================================================================
// CONTEXT RESOLVER
// ============================================================================

// UserContext returns the organizational context for a user. It is total: on
// any lookup failure it logs a warning and returns a minimal degraded
// context (empty chain, no reportees, no tenant), which downstream filtering
// treats as scope-restrictive. Results are cached per user for the engine's
// context TTL; see ClearUserCache for the invalidation contract.
func (e *Engine) UserContext(ctx context.Context, userID string) *ScopeContext {
	if sc, ok := e.cachedContext(userID); ok {
		return sc.snapshot()
	}
	sc, err := e.resolveUserContext(ctx, userID)
	if err != nil {
		e.logger.Error("user context resolution failed",
			"user", userID, "trace_id", e.traceID(), "error", err.Error())
		return degradedContext(userID)
	}
	e.storeContext(userID, sc)
	return sc.snapshot()
}

// snapshot returns a copy of the context so the cached original cannot be
// corrupted through the returned pointer. The slices are shared with the
// cache and must be treated as read-only.
func (sc *ScopeContext) snapshot() *ScopeContext {
	dup := *sc
	return &dup
}

func degradedContext(userID string) *ScopeContext {
	return &ScopeContext{
		UserID:       userID,
		EmployeeID:   userID,
		ManagerChain: []string{},
		ReporteeIDs:  []string{},
	}
}

// resolveUserContext performs the actual hierarchy walks. Failures propagate
// as LookupError; the collapse to a degraded context happens only in
// UserContext so this path stays testable for its real failure modes.
func (e *Engine) resolveUserContext(ctx context.Context, userID string) (*ScopeContext, error) {
	employees, err := e.employeeStore.ListEmployees(ctx)
	if err != nil {
		return nil, &LookupError{Op: "list employees", UserID: userID, Err: err}
	}

	byID := make(map[string]*Employee, len(employees))
	children := make(map[string][]*Employee)
	for _, emp := range employees {
		byID[emp.ID] = emp
		if emp.ManagerID != "" {
			children[emp.ManagerID] = append(children[emp.ManagerID], emp)
		}
	}

	self, ok := byID[userID]
	if !ok {
		return nil, &LookupError{Op: "employee lookup", UserID: userID, Err: fmt.Errorf("no employee record")}
	}

	return &ScopeContext{
		UserID:       userID,
		EmployeeID:   self.ID,
		ManagerChain: managerChain(self, byID),
		ReporteeIDs:  reporteeIDs(self.ID, children),
		TenantID:     self.TenantID,
	}, nil
}

// managerChain walks the manager references upward, nearest first. The
// visited set is seeded with the employee's own id so a self-referential
// manager terminates immediately; revisiting any id truncates the chain at
// the cycle rather than erroring. A manager id that points at a deleted or
// inactive record is still included once, then the walk ends: ancestors
// above an inactive manager are not visible, mirroring how inactive
// subtrees are invisible to the reportee walk.
func managerChain(self *Employee, byID map[string]*Employee) []string {
	chain := make([]string, 0)
	visited := map[string]bool{self.ID: true}
	cur := self.ManagerID
	for cur != "" && !visited[cur] {
		visited[cur] = true
		chain = append(chain, cur)
		mgr, ok := byID[cur]
		if !ok || !mgr.Active {
			break
		}
		cur = mgr.ManagerID
	}
	return chain
}

// reporteeIDs collects every transitive subordinate via the inverse
// relation, iteratively with an explicit stack. Only active employees are
// included, and inactive employees are not traversed through: their subtrees
// stay invisible to team scope.
func reporteeIDs(rootID string, children map[string][]*Employee) []string {
	ids := make([]string, 0)
	visited := map[string]bool{rootID: true}
	stack := []string{rootID}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[n] {
			if visited[child.ID] || !child.Active {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			stack = append(stack, child.ID)
		}
	}
	return ids
}
