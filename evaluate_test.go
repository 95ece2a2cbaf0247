package scopeauth

import (
	"context"
	"fmt"
	"testing"

	"github.com/matterdesk/scopeauth/logger"
)

func newTestEngine(t testing.TB, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithLogger(logger.NewNullLogger())}, opts...)
	eng, err := NewEngine(
		NewMemoryGrantStore(),
		NewMemoryRoleStore(),
		NewMemoryRoleAssignmentStore(),
		NewMemoryEmployeeStore(),
		opts...,
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func TestDenyOverridesAllow(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_ = eng.CreateGrant(ctx, &Grant{ID: "g-allow", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeOrg})
	_ = eng.CreateGrant(ctx, &Grant{ID: "g-deny", Resource: "matter", Action: ActionRead, Effect: EffectDeny, Scope: ScopeOwn})
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "paralegal", GrantIDs: []string{"g-allow", "g-deny"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if ev.Allowed {
		t.Fatalf("expected deny to override allow, got %+v", ev)
	}
	if ev.Reason != ReasonDenied {
		t.Fatalf("expected reason %q, got %q", ReasonDenied, ev.Reason)
	}
	if ev.Scope != ScopeOwn {
		t.Fatalf("deny must surface the denying grant's scope, got %s", ev.Scope)
	}
}

func TestStrongestScopeWins(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_ = eng.CreateGrant(ctx, &Grant{ID: "g-own", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeOwn})
	_ = eng.CreateGrant(ctx, &Grant{ID: "g-team", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeTeam})
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "associate", GrantIDs: []string{"g-own", "g-team"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if !ev.Allowed {
		t.Fatalf("expected allow, got %+v", ev)
	}
	if ev.Scope != ScopeTeam {
		t.Fatalf("expected team scope to win over own, got %s", ev.Scope)
	}
	if ev.Reason != fmt.Sprintf("Allowed with %s scope", ScopeTeam) {
		t.Fatalf("unexpected reason: %q", ev.Reason)
	}

	_ = eng.CreateGrant(ctx, &Grant{ID: "g-org", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeOrg})
	_ = eng.CreateRole(ctx, &Role{ID: "role-2", Name: "partner", GrantIDs: []string{"g-org"}})
	_ = eng.AssignRole(ctx, "u1", "role-2")

	ev = eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if !ev.Allowed || ev.Scope != ScopeOrg {
		t.Fatalf("expected org to win over own and team, got %+v", ev)
	}
}

func TestNoMatchingGrantDenies(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_ = eng.CreateGrant(ctx, &Grant{ID: "g1", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeOrg})
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "reader", GrantIDs: []string{"g1"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	// Different action on the same resource is not a match.
	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionDelete)
	if ev.Allowed || ev.Reason != ReasonNoMatch {
		t.Fatalf("expected no-match deny, got %+v", ev)
	}

	// Resource matching is verbatim: no prefix or wildcard semantics.
	ev = eng.EvaluatePermission(ctx, "u1", "matters", ActionRead)
	if ev.Allowed || ev.Reason != ReasonNoMatch {
		t.Fatalf("expected no-match deny for different resource, got %+v", ev)
	}
}

func TestUnknownUserDeniesWithoutError(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	ev := eng.EvaluatePermission(ctx, "nobody", "matter", ActionRead)
	if ev.Allowed {
		t.Fatalf("expected deny for unknown user")
	}
	if ev.Reason != ReasonNoMatch {
		t.Fatalf("unknown user should look like no-match, got %q", ev.Reason)
	}
}

func TestFirstGrantAtStrongestScopeKeepsSlot(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	condA := []Condition{{Field: "practice_area", Operator: "eq", Value: "litigation"}}
	condB := []Condition{{Field: "practice_area", Operator: "eq", Value: "tax"}}
	_ = eng.CreateGrant(ctx, &Grant{ID: "g-a", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeTeam, Conditions: condA})
	_ = eng.CreateGrant(ctx, &Grant{ID: "g-b", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeTeam, Conditions: condB})
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "dual", GrantIDs: []string{"g-a", "g-b"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	// Ties are broken by encounter order: a later equal-strength grant must
	// not displace the winner, so the surfaced conditions stay stable.
	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if !ev.Allowed || ev.Scope != ScopeTeam {
		t.Fatalf("expected team allow, got %+v", ev)
	}
	if len(ev.Conditions) != 1 {
		t.Fatalf("expected exactly one condition set carried, got %d", len(ev.Conditions))
	}
}

func TestMalformedScopeGrantSkipped(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_ = eng.CreateGrant(ctx, &Grant{ID: "g-bad", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: Scope("galaxy")})
	_ = eng.CreateGrant(ctx, &Grant{ID: "g-own", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeOwn})
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "reader", GrantIDs: []string{"g-bad", "g-own"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if !ev.Allowed {
		t.Fatalf("expected allow from the well-formed grant, got %+v", ev)
	}
	if ev.Scope != ScopeOwn {
		t.Fatalf("malformed scope must not win, got %s", ev.Scope)
	}
}

func TestMalformedScopeDenyStillDenies(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_ = eng.CreateGrant(ctx, &Grant{ID: "g-allow", Resource: "matter", Action: ActionRead, Effect: EffectAllow, Scope: ScopeOrg})
	_ = eng.CreateGrant(ctx, &Grant{ID: "g-deny", Resource: "matter", Action: ActionRead, Effect: EffectDeny, Scope: Scope("bogus")})
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "reader", GrantIDs: []string{"g-allow", "g-deny"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	// Deny precedence is scope-independent.
	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if ev.Allowed {
		t.Fatalf("deny with malformed scope must still deny, got %+v", ev)
	}
}

type failingAssignmentStore struct{}

func (failingAssignmentStore) AssignRole(ctx context.Context, subjectID, roleID string) error {
	return fmt.Errorf("assignment backend down")
}
func (failingAssignmentStore) RevokeRole(ctx context.Context, subjectID, roleID string) error {
	return fmt.Errorf("assignment backend down")
}
func (failingAssignmentStore) ListRoleIDs(ctx context.Context, subjectID string) ([]string, error) {
	return nil, fmt.Errorf("assignment backend down")
}

func TestEvaluationErrorCollapsesToDeny(t *testing.T) {
	ctx := context.Background()
	eng, err := NewEngine(
		NewMemoryGrantStore(),
		NewMemoryRoleStore(),
		failingAssignmentStore{},
		NewMemoryEmployeeStore(),
		WithLogger(logger.NewNullLogger()),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ev := eng.EvaluatePermission(ctx, "u1", "matter", ActionRead)
	if ev.Allowed {
		t.Fatalf("expected fail-closed deny")
	}
	if ev.Reason != ReasonEvalError {
		t.Fatalf("expected reason %q, got %q", ReasonEvalError, ev.Reason)
	}
	if ev.Scope != "" {
		t.Fatalf("error deny must not carry a scope, got %s", ev.Scope)
	}
}

func BenchmarkEvaluatePermission(b *testing.B) {
	ctx := context.Background()
	eng := newTestEngine(b)

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("g-%d", i)
		_ = eng.CreateGrant(ctx, &Grant{ID: id, Resource: fmt.Sprintf("res-%d", i%10), Action: ActionRead, Effect: EffectAllow, Scope: ScopeTeam})
	}
	_ = eng.CreateRole(ctx, &Role{ID: "role-1", Name: "bench", GrantIDs: []string{"g-1", "g-11", "g-21"}})
	_ = eng.AssignRole(ctx, "u1", "role-1")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.EvaluatePermission(ctx, "u1", "res-1", ActionRead)
	}
}
