package scopeauth

import (
	"github.com/matterdesk/scopeauth/utils"
)

// ============================================================================
// SCOPE FILTER BUILDER / APPLIER
// ============================================================================

// BuildScopeFilter translates a resolved scope into concrete field
// predicates for the given context. Pure function of its inputs.
//
// own checks equality against the context's employee id on each
// conventional ownership field; team widens the same fields to membership in
// {employee} ∪ reportees; org emits a tenant predicate when the context
// carries a tenant and nothing otherwise (unrestricted).
func BuildScopeFilter(resource string, scope Scope, sc *ScopeContext) ScopeFilter {
	switch scope {
	case ScopeOwn:
		filters := make(ScopeFilter, 0, len(ownershipFields))
		for _, f := range ownershipFields {
			filters = append(filters, FilterPredicate{Field: f, Op: OpEq, Value: sc.EmployeeID})
		}
		return filters
	case ScopeTeam:
		team := make([]string, 0, len(sc.ReporteeIDs)+1)
		team = append(team, sc.EmployeeID)
		team = append(team, sc.ReporteeIDs...)
		filters := make(ScopeFilter, 0, len(ownershipFields))
		for _, f := range ownershipFields {
			filters = append(filters, FilterPredicate{Field: f, Op: OpIn, Value: team})
		}
		return filters
	case ScopeOrg:
		if sc.TenantID != "" {
			return ScopeFilter{{Field: tenantField, Op: OpEq, Value: sc.TenantID}}
		}
		return ScopeFilter{}
	}
	return ScopeFilter{}
}

// ApplyScopeFilter keeps the records matching ANY of the given predicates.
// An empty filter set returns the input unchanged (the org-scope-no-tenant
// case: fully unrestricted).
//
// The OR semantics exist to tolerate differing ownership field names across
// entity types; the flip side is that a record matching on an unrelated
// field with a coincidentally equal value also passes. Callers providing raw
// rows own the field-name hygiene.
func ApplyScopeFilter(records []Record, filters ScopeFilter) []Record {
	if len(filters) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		for _, f := range filters {
			if matchPredicate(rec, f) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func matchPredicate(rec Record, f FilterPredicate) bool {
	val, present := rec[f.Field]
	switch f.Op {
	case OpEq:
		return present && utils.Equal(val, f.Value)
	case OpIn:
		// false when the filter value is not a collection
		return present && utils.Contains(f.Value, val)
	case OpNe:
		return !present || !utils.Equal(val, f.Value)
	case OpIncludes:
		return present && utils.IsCollection(val) && utils.Contains(val, f.Value)
	}
	return false
}
