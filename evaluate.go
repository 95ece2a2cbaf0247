package scopeauth

import (
	"context"
	"fmt"
)

// ============================================================================
// PERMISSION EVALUATOR
// ============================================================================

// EvaluatePermission resolves the effective decision and strongest
// applicable scope for (userID, resource, action). It is total: lookup
// failures collapse to a deny with reason "Evaluation error" (details in
// logs only, so callers cannot distinguish failure from denial). Results are
// never cached.
//
// Resource and action matching is verbatim; deny grants override any number
// of allow grants; among allows the strongest scope wins (own < team < org),
// first grant at the maximum keeping the slot.
func (e *Engine) EvaluatePermission(ctx context.Context, userID, resource string, action Action) *PolicyEvaluation {
	ev, err := e.evaluatePermission(ctx, userID, resource, action)
	if err != nil {
		e.logger.Error("permission evaluation failed",
			"user", userID, "resource", resource, "action", string(action),
			"trace_id", e.traceID(), "error", err.Error())
		return &PolicyEvaluation{Allowed: false, Reason: ReasonEvalError}
	}
	e.logger.Debug("permission evaluated",
		"user", userID, "resource", resource, "action", string(action),
		"allowed", ev.Allowed, "scope", string(ev.Scope), "reason", ev.Reason)
	return ev
}

func (e *Engine) evaluatePermission(ctx context.Context, userID, resource string, action Action) (*PolicyEvaluation, error) {
	grantIDs, err := e.resolveGrantIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalogue, err := e.grantStore.ListGrants(ctx)
	if err != nil {
		return nil, &LookupError{Op: "list grants", UserID: userID, Err: err}
	}

	matching := make([]*Grant, 0)
	for _, g := range catalogue {
		if !grantIDs[g.ID] {
			continue
		}
		if g.Resource != resource || g.Action != action {
			continue
		}
		matching = append(matching, g)
	}

	if len(matching) == 0 {
		return &PolicyEvaluation{Allowed: false, Reason: ReasonNoMatch}, nil
	}

	// Deny overrides allow, regardless of scope or count.
	for _, g := range matching {
		if g.Effect == EffectDeny {
			return &PolicyEvaluation{Allowed: false, Scope: g.Scope, Reason: ReasonDenied}, nil
		}
	}

	var best *Grant
	for _, g := range matching {
		if g.Effect != EffectAllow {
			continue
		}
		if _, rankErr := scopeRank(g.Scope); rankErr != nil {
			// Grant Store contract violation: skip this grant, keep evaluating.
			e.logger.Error("grant has invalid scope, skipping",
				"user", userID, "grant", g.ID, "scope", string(g.Scope))
			continue
		}
		if best == nil || g.Scope.Stronger(best.Scope) {
			best = g
		}
	}
	if best == nil {
		return &PolicyEvaluation{Allowed: false, Reason: ReasonNoMatch}, nil
	}

	return &PolicyEvaluation{
		Allowed:    true,
		Scope:      best.Scope,
		Conditions: best.Conditions,
		Reason:     fmt.Sprintf(reasonAllowedFmt, best.Scope),
	}, nil
}

// resolveGrantIDs flattens the user's roles into the union of grant ids
// they reference. Unknown users resolve to an empty set, not an error.
func (e *Engine) resolveGrantIDs(ctx context.Context, userID string) (map[string]bool, error) {
	roleIDs, err := e.assignmentStore.ListRoleIDs(ctx, userID)
	if err != nil {
		return nil, &LookupError{Op: "list role assignments", UserID: userID, Err: err}
	}
	grantIDs := make(map[string]bool)
	for _, roleID := range roleIDs {
		role, err := e.roleStore.GetRole(ctx, roleID)
		if err != nil {
			return nil, &LookupError{Op: "role lookup", UserID: userID, Err: err}
		}
		for _, gid := range role.GrantIDs {
			grantIDs[gid] = true
		}
	}
	return grantIDs, nil
}
