package engine

import (
	"context"
	"testing"

	"github.com/noted-app/noted-api/internal/models"
	"github.com/noted-app/noted-api/internal/storage"
)

// storeWithoutMigration hides the fake's migration capability.
type storeWithoutMigration struct {
	storage.Store
}

func TestMigrateStandaloneTasks(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.CreateStandaloneTask(ctx, "old task one"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.CreateStandaloneTask(ctx, "old task two"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.MigrateStandaloneTasks(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if got := e.StandaloneTasks(); len(got) != 0 {
		t.Errorf("standalone tasks = %d, want all migrated away", len(got))
	}
	notes := e.Notes()
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want one per migrated task", len(notes))
	}
	for _, n := range notes {
		if n.PrimaryFormat != models.FormatTask {
			t.Errorf("note %q primary format = %q, want task", n.Title, n.PrimaryFormat)
		}
		if len(n.Entries) != 1 || !n.Entries[0].HasFormat(models.FormatTask) {
			t.Errorf("note %q should carry one task-formatted entry", n.Title)
		}
		if len(n.Tasks) != 1 {
			t.Errorf("note %q tasks = %d, want 1", n.Title, len(n.Tasks))
		}
	}

	// Second run finds nothing to convert.
	if err := e.MigrateStandaloneTasks(ctx); err != nil {
		t.Fatalf("repeat migrate: %v", err)
	}
	if got := e.Notes(); len(got) != 2 {
		t.Errorf("notes = %d after repeat run, want still 2", len(got))
	}
}

func TestMigrateStandaloneTasks_UnsupportedBackendIsNoOp(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	e := New(storeWithoutMigration{store}, nil)
	e.SetClock(store.now)
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := e.CreateStandaloneTask(ctx, "stays put"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.MigrateStandaloneTasks(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if got := e.StandaloneTasks(); len(got) != 1 {
		t.Errorf("standalone tasks = %d, want untouched", len(got))
	}
	if got := e.Notes(); len(got) != 0 {
		t.Errorf("notes = %d, want none created", len(got))
	}
}
