package store

import (
	"errors"
	"testing"
	"time"
)

// newTestStore creates a new Store backed by a temporary database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestVisitRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Visits()

	v := &Visit{Name: "alice", Known: true, Distance: 0.31}
	if err := repo.Create(v); err != nil {
		t.Fatalf("failed to create visit: %v", err)
	}

	if v.ID == "" {
		t.Error("ID should be generated")
	}
	if v.SeenAt.IsZero() {
		t.Error("SeenAt should be set")
	}

	got, err := repo.GetByID(v.ID)
	if err != nil {
		t.Fatalf("failed to get visit: %v", err)
	}
	if got.Name != "alice" || !got.Known {
		t.Errorf("got %+v", got)
	}
	if got.Distance != 0.31 {
		t.Errorf("Distance = %f, want 0.31", got.Distance)
	}
}

func TestVisitRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Visits().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVisitRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Visits()

	base := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	names := []string{"alice", "unknown", "bob", "alice"}
	for i, name := range names {
		v := &Visit{Name: name, Known: name != "unknown", SeenAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(v); err != nil {
			t.Fatalf("failed to create visit: %v", err)
		}
	}

	tests := []struct {
		name      string
		limit     int
		wantCount int
		wantFirst string
	}{
		{name: "all", limit: 0, wantCount: 4, wantFirst: "alice"},
		{name: "limited", limit: 2, wantCount: 2, wantFirst: "alice"},
		{name: "over limit", limit: 10, wantCount: 4, wantFirst: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visits, err := repo.List(tt.limit)
			if err != nil {
				t.Fatalf("failed to list visits: %v", err)
			}
			if len(visits) != tt.wantCount {
				t.Fatalf("expected %d visits, got %d", tt.wantCount, len(visits))
			}
			if visits[0].Name != tt.wantFirst {
				t.Errorf("first visit = %s, want %s", visits[0].Name, tt.wantFirst)
			}
		})
	}

	visits, _ := repo.List(2)
	if visits[1].Name != "bob" {
		t.Errorf("second newest = %s, want bob", visits[1].Name)
	}
}

func TestVisitRepository_CountByName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Visits()

	for _, name := range []string{"bob", "alice", "alice", "unknown", "alice", "bob"} {
		if err := repo.Create(&Visit{Name: name}); err != nil {
			t.Fatalf("failed to create visit: %v", err)
		}
	}

	counts, err := repo.CountByName()
	if err != nil {
		t.Fatalf("CountByName() error = %v", err)
	}

	want := []VisitCount{{"alice", 3}, {"bob", 2}, {"unknown", 1}}
	if len(counts) != len(want) {
		t.Fatalf("expected %d counts, got %d", len(want), len(counts))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}

func TestVisitRepository_DeleteBefore(t *testing.T) {
	s := newTestStore(t)
	repo := s.Visits()

	now := time.Now()
	old := &Visit{Name: "old", SeenAt: now.Add(-48 * time.Hour)}
	recent := &Visit{Name: "recent", SeenAt: now}
	for _, v := range []*Visit{old, recent} {
		if err := repo.Create(v); err != nil {
			t.Fatal(err)
		}
	}

	// Hook runs of the deleted visit go with it.
	if err := s.HookRuns().Create(&HookRun{VisitID: old.ID, PluginName: "announce", Success: true}); err != nil {
		t.Fatal(err)
	}

	n, err := repo.DeleteBefore(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}

	if _, err := repo.GetByID(old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("old visit should be gone")
	}
	runs, err := s.HookRuns().ListByVisit(old.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("hook runs should cascade, got %d", len(runs))
	}
}

func TestHookRunRepository(t *testing.T) {
	s := newTestStore(t)

	v := &Visit{Name: "alice", Known: true}
	if err := s.Visits().Create(v); err != nil {
		t.Fatal(err)
	}

	runs := []*HookRun{
		{VisitID: v.ID, PluginName: "announce", Success: true},
		{VisitID: v.ID, PluginName: "door", Success: false, Error: "timeout"},
	}
	for _, h := range runs {
		if err := s.HookRuns().Create(h); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if h.ID == 0 {
			t.Error("ID should be assigned")
		}
	}

	got, err := s.HookRuns().ListByVisit(v.ID)
	if err != nil {
		t.Fatalf("ListByVisit() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[1].PluginName != "door" || got[1].Success || got[1].Error != "timeout" {
		t.Errorf("second run = %+v", got[1])
	}
}

func TestHookRunRepository_RequiresVisit(t *testing.T) {
	s := newTestStore(t)

	err := s.HookRuns().Create(&HookRun{VisitID: "missing", PluginName: "announce"})
	if err == nil {
		t.Error("expected foreign key violation")
	}
}
