package scopeauth

import (
	"testing"
)

func TestBuildScopeFilterOwn(t *testing.T) {
	sc := &ScopeContext{UserID: "u1", EmployeeID: "u1"}
	filters := BuildScopeFilter("matter", ScopeOwn, sc)
	if len(filters) != 3 {
		t.Fatalf("expected one predicate per ownership field, got %d", len(filters))
	}
	for _, f := range filters {
		if f.Op != OpEq || f.Value != "u1" {
			t.Fatalf("own predicates must be eq against the employee id, got %+v", f)
		}
	}
}

func TestBuildScopeFilterTeam(t *testing.T) {
	sc := &ScopeContext{UserID: "u1", EmployeeID: "u1", ReporteeIDs: []string{"r1", "r2"}}
	filters := BuildScopeFilter("matter", ScopeTeam, sc)
	if len(filters) != 3 {
		t.Fatalf("expected one predicate per ownership field, got %d", len(filters))
	}
	for _, f := range filters {
		if f.Op != OpIn {
			t.Fatalf("team predicates must use in, got %+v", f)
		}
		team, ok := f.Value.([]string)
		if !ok || len(team) != 3 || team[0] != "u1" {
			t.Fatalf("team membership must be self plus reportees, got %v", f.Value)
		}
	}
}

func TestBuildScopeFilterOrg(t *testing.T) {
	withTenant := BuildScopeFilter("matter", ScopeOrg, &ScopeContext{EmployeeID: "u1", TenantID: "firm"})
	if len(withTenant) != 1 || withTenant[0].Field != "tenantId" || withTenant[0].Value != "firm" {
		t.Fatalf("org scope with tenant should pin tenantId, got %+v", withTenant)
	}

	noTenant := BuildScopeFilter("matter", ScopeOrg, &ScopeContext{EmployeeID: "u1"})
	if len(noTenant) != 0 {
		t.Fatalf("org scope without tenant must be unrestricted, got %+v", noTenant)
	}
}

func TestApplyScopeFilterEmptyPassthrough(t *testing.T) {
	records := []Record{{"id": 1}, {"id": 2}}
	out := ApplyScopeFilter(records, ScopeFilter{})
	if len(out) != 2 {
		t.Fatalf("empty filter must pass every record, got %d", len(out))
	}
}

func TestApplyScopeFilterOwn(t *testing.T) {
	sc := &ScopeContext{UserID: "u1", EmployeeID: "u1"}
	filters := BuildScopeFilter("matter", ScopeOwn, sc)
	records := []Record{
		{"id": 1, "ownerId": "u1"},
		{"id": 2, "ownerId": "u2"},
		{"id": 3, "assigned_to": "u1"},
		{"id": 4, "assignedToId": "u1"},
		{"id": 5},
	}
	out := ApplyScopeFilter(records, filters)
	if len(out) != 3 {
		t.Fatalf("expected 3 visible records, got %d: %v", len(out), out)
	}
}

func TestApplyScopeFilterTeam(t *testing.T) {
	sc := &ScopeContext{UserID: "mgr", EmployeeID: "mgr", ReporteeIDs: []string{"r1"}}
	filters := BuildScopeFilter("matter", ScopeTeam, sc)
	records := []Record{
		{"id": 1, "ownerId": "mgr"},
		{"id": 2, "ownerId": "r1"},
		{"id": 3, "ownerId": "outsider"},
	}
	out := ApplyScopeFilter(records, filters)
	if len(out) != 2 {
		t.Fatalf("expected manager and reportee records, got %d", len(out))
	}
}

func TestApplyScopeFilterOperators(t *testing.T) {
	recs := []Record{{"status": "open", "tags": []string{"urgent", "litigation"}, "count": 3}}

	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "status", Op: OpEq, Value: "open"}}); len(out) != 1 {
		t.Fatalf("eq should match")
	}
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "status", Op: OpNe, Value: "closed"}}); len(out) != 1 {
		t.Fatalf("ne should match differing value")
	}
	// ne matches when the field is absent entirely.
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "missing", Op: OpNe, Value: "x"}}); len(out) != 1 {
		t.Fatalf("ne should match absent field")
	}
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "tags", Op: OpIncludes, Value: "urgent"}}); len(out) != 1 {
		t.Fatalf("includes should match collection membership")
	}
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "count", Op: OpIncludes, Value: 3}}); len(out) != 0 {
		t.Fatalf("includes on a non-collection field must not match")
	}
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "status", Op: OpIn, Value: []string{"open", "pending"}}}); len(out) != 1 {
		t.Fatalf("in should match collection filter value")
	}
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "status", Op: OpIn, Value: "open"}}); len(out) != 0 {
		t.Fatalf("in with a scalar filter value must not match")
	}
	if out := ApplyScopeFilter(recs, ScopeFilter{{Field: "count", Op: OpEq, Value: 3.0}}); len(out) != 1 {
		t.Fatalf("numeric eq should compare across numeric types")
	}
}

func TestApplyScopeFilterCrossFieldOr(t *testing.T) {
	sc := &ScopeContext{UserID: "u1", EmployeeID: "u1"}
	filters := BuildScopeFilter("matter", ScopeOwn, sc)
	// A record owned by someone else but assigned to u1 is visible: the
	// predicates are OR'd across ownership fields.
	records := []Record{{"id": 1, "ownerId": "u2", "assigned_to": "u1"}}
	out := ApplyScopeFilter(records, filters)
	if len(out) != 1 {
		t.Fatalf("expected cross-field match to pass, got %d", len(out))
	}
}
