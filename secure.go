package scopeauth

import "context"

// ============================================================================
// SECURE ACCESS FACADE
// ============================================================================

// FetchListFunc supplies the raw rows for a list access pattern
type FetchListFunc func(ctx context.Context) ([]Record, error)

// FetchOneFunc supplies a single raw row; nil means absent
type FetchOneFunc func(ctx context.Context) (Record, error)

// SecureList is the standard list-with-scoping access pattern. A denied
// evaluation, a fetch failure and genuinely empty data all yield an empty
// collection; callers cannot tell them apart, which avoids leaking what
// exists. Org scope returns the fetched rows unfiltered (tenant isolation is
// the fetcher's concern at the storage layer).
func (e *Engine) SecureList(ctx context.Context, userID, resource string, fetch FetchListFunc) []Record {
	ev := e.EvaluatePermission(ctx, userID, resource, ActionRead)
	if !ev.Allowed {
		return []Record{}
	}
	records, err := fetch(ctx)
	if err != nil {
		e.logger.Error("secure list fetch failed",
			"user", userID, "resource", resource, "trace_id", e.traceID(), "error", err.Error())
		return []Record{}
	}
	if records == nil {
		return []Record{}
	}
	if ev.Scope == ScopeOrg {
		return records
	}
	sc := e.UserContext(ctx, userID)
	filters := BuildScopeFilter(resource, ev.Scope, sc)
	return ApplyScopeFilter(records, filters)
}

// SecureGet is the get-single-with-scope-check pattern. The fetched record
// is wrapped in a one-element collection and run through the same filter
// machinery as SecureList rather than a bespoke single-record check. Denied,
// absent and failed all yield nil.
func (e *Engine) SecureGet(ctx context.Context, userID, resource, id string, fetch FetchOneFunc) Record {
	ev := e.EvaluatePermission(ctx, userID, resource, ActionRead)
	if !ev.Allowed {
		return nil
	}
	record, err := fetch(ctx)
	if err != nil {
		e.logger.Error("secure get fetch failed",
			"user", userID, "resource", resource, "id", id, "trace_id", e.traceID(), "error", err.Error())
		return nil
	}
	if record == nil {
		return nil
	}
	if ev.Scope == ScopeOrg {
		return record
	}
	sc := e.UserContext(ctx, userID)
	filters := BuildScopeFilter(resource, ev.Scope, sc)
	kept := ApplyScopeFilter([]Record{record}, filters)
	if len(kept) == 0 {
		return nil
	}
	return kept[0]
}
