package scopeauth

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/matterdesk/scopeauth/logger"
)

func seedEmployees(t *testing.T, eng *Engine, emps ...*Employee) {
	t.Helper()
	ctx := context.Background()
	for _, e := range emps {
		if err := eng.UpsertEmployee(ctx, e); err != nil {
			t.Fatalf("seed employee %s: %v", e.ID, err)
		}
	}
}

func TestManagerChainNearestFirst(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedEmployees(t, eng,
		&Employee{ID: "ceo", Active: true, TenantID: "firm"},
		&Employee{ID: "partner", ManagerID: "ceo", Active: true, TenantID: "firm"},
		&Employee{ID: "assoc", ManagerID: "partner", Active: true, TenantID: "firm"},
	)

	sc := eng.UserContext(ctx, "assoc")
	if sc.EmployeeID != "assoc" || sc.TenantID != "firm" {
		t.Fatalf("unexpected context: %+v", sc)
	}
	if len(sc.ManagerChain) != 2 || sc.ManagerChain[0] != "partner" || sc.ManagerChain[1] != "ceo" {
		t.Fatalf("expected chain [partner ceo], got %v", sc.ManagerChain)
	}
}

func TestManagerCycleTerminates(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	// a -> b -> c -> a: corrupted data must not loop.
	seedEmployees(t, eng,
		&Employee{ID: "a", ManagerID: "b", Active: true},
		&Employee{ID: "b", ManagerID: "c", Active: true},
		&Employee{ID: "c", ManagerID: "a", Active: true},
	)

	sc := eng.UserContext(ctx, "a")
	if len(sc.ManagerChain) != 2 || sc.ManagerChain[0] != "b" || sc.ManagerChain[1] != "c" {
		t.Fatalf("expected chain truncated at cycle [b c], got %v", sc.ManagerChain)
	}
}

func TestSelfManagerYieldsEmptyChain(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedEmployees(t, eng, &Employee{ID: "solo", ManagerID: "solo", Active: true})

	sc := eng.UserContext(ctx, "solo")
	if len(sc.ManagerChain) != 0 {
		t.Fatalf("self-referential manager should yield empty chain, got %v", sc.ManagerChain)
	}
}

func TestDanglingManagerIncludedOnce(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedEmployees(t, eng, &Employee{ID: "emp", ManagerID: "ghost", Active: true})

	sc := eng.UserContext(ctx, "emp")
	if len(sc.ManagerChain) != 1 || sc.ManagerChain[0] != "ghost" {
		t.Fatalf("dangling manager id should appear once, got %v", sc.ManagerChain)
	}
}

func TestInactiveManagerEndsChain(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedEmployees(t, eng,
		&Employee{ID: "ceo", Active: true},
		&Employee{ID: "mid", ManagerID: "ceo", Active: false},
		&Employee{ID: "emp", ManagerID: "mid", Active: true},
	)

	// The inactive manager appears once; the walk does not continue above it.
	sc := eng.UserContext(ctx, "emp")
	if len(sc.ManagerChain) != 1 || sc.ManagerChain[0] != "mid" {
		t.Fatalf("expected chain to stop at inactive manager [mid], got %v", sc.ManagerChain)
	}
}

func TestReporteesTransitiveActiveOnly(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	seedEmployees(t, eng,
		&Employee{ID: "mgr", Active: true},
		&Employee{ID: "r1", ManagerID: "mgr", Active: true},
		&Employee{ID: "r2", ManagerID: "mgr", Active: false},
		&Employee{ID: "r1a", ManagerID: "r1", Active: true},
		// r2a reports to an inactive manager: invisible even though active.
		&Employee{ID: "r2a", ManagerID: "r2", Active: true},
	)

	sc := eng.UserContext(ctx, "mgr")
	got := append([]string{}, sc.ReporteeIDs...)
	sort.Strings(got)
	want := []string{"r1", "r1a"}
	if len(got) != len(want) {
		t.Fatalf("expected reportees %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected reportees %v, got %v", want, got)
		}
	}
}

func TestMissingEmployeeDegradesContext(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	sc := eng.UserContext(ctx, "unknown")
	if sc.UserID != "unknown" || sc.EmployeeID != "unknown" {
		t.Fatalf("degraded context should echo the user id, got %+v", sc)
	}
	if len(sc.ManagerChain) != 0 || len(sc.ReporteeIDs) != 0 || sc.TenantID != "" {
		t.Fatalf("degraded context must be minimal, got %+v", sc)
	}
}

type failingEmployeeStore struct{}

func (failingEmployeeStore) UpsertEmployee(ctx context.Context, e *Employee) error {
	return fmt.Errorf("hr backend down")
}
func (failingEmployeeStore) DeleteEmployee(ctx context.Context, id string) error {
	return fmt.Errorf("hr backend down")
}
func (failingEmployeeStore) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return nil, fmt.Errorf("hr backend down")
}
func (failingEmployeeStore) ListEmployees(ctx context.Context) ([]*Employee, error) {
	return nil, fmt.Errorf("hr backend down")
}

func TestStoreFailureDegradesContext(t *testing.T) {
	ctx := context.Background()
	eng, err := NewEngine(
		NewMemoryGrantStore(),
		NewMemoryRoleStore(),
		NewMemoryRoleAssignmentStore(),
		failingEmployeeStore{},
		WithLogger(logger.NewNullLogger()),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	sc := eng.UserContext(ctx, "u1")
	if sc == nil {
		t.Fatalf("UserContext must be total")
	}
	if sc.EmployeeID != "u1" || len(sc.ReporteeIDs) != 0 {
		t.Fatalf("expected degraded context, got %+v", sc)
	}

	// Degraded contexts are not cached; a recovered store is picked up on
	// the next call.
	if stats := eng.GetCacheStats(); stats.Size != 0 {
		t.Fatalf("degraded context must not be cached, stats=%+v", stats)
	}
}
