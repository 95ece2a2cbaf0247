package scopeauth

import (
	"fmt"
	"time"
)

// ============================================================================
// DOMAIN OBJECTS
// ============================================================================

// Action represents how a resource is being accessed
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionAdmin  Action = "admin"
)

// Scope represents the breadth of record visibility a grant confers.
// Strength is totally ordered: own < team < org.
type Scope string

const (
	ScopeOwn  Scope = "own"
	ScopeTeam Scope = "team"
	ScopeOrg  Scope = "org"
)

// scopeRank returns the strength index of a scope within the fixed ordering
// own < team < org. A scope outside the set is a Grant Store contract
// violation and is reported as an error rather than silently coerced.
func scopeRank(s Scope) (int, error) {
	switch s {
	case ScopeOwn:
		return 0, nil
	case ScopeTeam:
		return 1, nil
	case ScopeOrg:
		return 2, nil
	}
	return -1, fmt.Errorf("invalid scope value: %q", string(s))
}

// Stronger reports whether s is strictly stronger than other. Unknown scope
// values are never stronger than anything.
func (s Scope) Stronger(other Scope) bool {
	a, errA := scopeRank(s)
	b, errB := scopeRank(other)
	if errA != nil || errB != nil {
		return false
	}
	return a > b
}

// Effect represents the outcome a grant contributes
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Condition is a field-level restriction attached to a grant. Conditions are
// carried through evaluation untouched; interpreting them is the caller's
// concern.
type Condition struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// Grant represents one authorization rule bound to a role. Resource and
// action must match a request verbatim; there is no wildcard or hierarchical
// resource matching. Scope is meaningful only when Effect is allow.
type Grant struct {
	ID         string      `json:"id" yaml:"id"`
	Resource   string      `json:"resource" yaml:"resource"`
	Action     Action      `json:"action" yaml:"action"`
	Effect     Effect      `json:"effect" yaml:"effect"`
	Scope      Scope       `json:"scope" yaml:"scope"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	CreatedAt  time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Role is a named collection of grant references
type Role struct {
	ID        string    `json:"id" yaml:"id"`
	TenantID  string    `json:"tenant_id" yaml:"tenant_id"`
	Name      string    `json:"name" yaml:"name"`
	GrantIDs  []string  `json:"grant_ids" yaml:"grant_ids"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Employee represents an organizational actor. The manager-reference graph
// is owned by an external HR collaborator and may contain cycles in
// corrupted data; all traversal in this package carries a visited set.
type Employee struct {
	ID        string `json:"id" yaml:"id"`
	ManagerID string `json:"manager_id,omitempty" yaml:"manager_id,omitempty"`
	Active    bool   `json:"active" yaml:"active"`
	TenantID  string `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
}

// ScopeContext is the resolved per-user organizational snapshot used to
// build scope filters. ManagerChain is ordered nearest-manager-first.
type ScopeContext struct {
	UserID       string   `json:"user_id"`
	EmployeeID   string   `json:"employee_id"`
	ManagerChain []string `json:"manager_chain"`
	ReporteeIDs  []string `json:"reportee_ids"`
	TenantID     string   `json:"tenant_id,omitempty"`
}

// PolicyEvaluation is the result of a permission evaluation. It is produced
// fresh per call and never cached.
type PolicyEvaluation struct {
	Allowed    bool        `json:"allowed"`
	Scope      Scope       `json:"scope,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
	Reason     string      `json:"reason"`
}

// Evaluation reasons surfaced to callers. Diagnostic detail beyond these
// strings is available only via logs.
const (
	ReasonNoMatch    = "No matching permissions found"
	ReasonDenied     = "Explicitly denied by policy"
	ReasonEvalError  = "Evaluation error"
	reasonAllowedFmt = "Allowed with %s scope"
)

// FilterOp is a predicate operator in a scope filter
type FilterOp string

const (
	OpEq       FilterOp = "eq"
	OpIn       FilterOp = "in"
	OpNe       FilterOp = "ne"
	OpIncludes FilterOp = "includes"
)

// FilterPredicate is one field-based predicate of a scope filter
type FilterPredicate struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

// ScopeFilter is an ordered list of predicates. Application semantics are
// OR across predicates; see ApplyScopeFilter.
type ScopeFilter []FilterPredicate

// Record is an arbitrary entity row supplied by the caller. The engine never
// fetches records itself; it only filters what it is handed.
type Record = map[string]any

// Conventional ownership field names checked by own/team scope filters.
// A record is visible if it matches on any of them, so callers supplying raw
// rows must not reuse these names for unrelated data.
var ownershipFields = []string{"ownerId", "assigned_to", "assignedToId"}

// tenantField is the field an org-scope filter pins when the context
// carries a tenant.
const tenantField = "tenantId"

// LookupError wraps a failed store lookup with the operation and user it was
// performed for. It never crosses the public API boundary; public operations
// collapse it into the safe default (degraded context or deny).
type LookupError struct {
	Op     string
	UserID string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s for user %s: %v", e.Op, e.UserID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
