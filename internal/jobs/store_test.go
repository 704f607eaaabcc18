package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xushun007/agentcore/internal/model"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestStoreCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			job := &Job{ID: "job-1", ToolName: "task", ToolCallID: "call-1", Status: StatusQueued, CreatedAt: time.Now()}
			if err := store.Create(ctx, job); err != nil {
				t.Fatalf("create: %v", err)
			}

			got, err := store.Get(ctx, "job-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got == nil || got.Status != StatusQueued {
				t.Fatalf("expected queued job, got %+v", got)
			}

			got.Status = StatusSucceeded
			got.Result = &model.ToolResult{Success: true, Output: "done"}
			got.FinishedAt = time.Now()
			if err := store.Update(ctx, got); err != nil {
				t.Fatalf("update: %v", err)
			}

			updated, err := store.Get(ctx, "job-1")
			if err != nil {
				t.Fatalf("get after update: %v", err)
			}
			if updated.Status != StatusSucceeded || updated.Result == nil || updated.Result.Output != "done" {
				t.Fatalf("expected succeeded job with result, got %+v", updated)
			}
		})
	}
}

func TestStoreGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			job, err := store.Get(ctx, "missing")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if job != nil {
				t.Fatalf("expected nil for missing job, got %+v", job)
			}
		})
	}
}

func TestStoreListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			older := &Job{ID: "old", ToolName: "task", Status: StatusQueued, CreatedAt: time.Now().Add(-time.Hour)}
			newer := &Job{ID: "new", ToolName: "task", Status: StatusQueued, CreatedAt: time.Now()}
			if err := store.Create(ctx, older); err != nil {
				t.Fatalf("create older: %v", err)
			}
			if err := store.Create(ctx, newer); err != nil {
				t.Fatalf("create newer: %v", err)
			}

			jobs, err := store.List(ctx, 10, 0)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(jobs) != 2 {
				t.Fatalf("expected 2 jobs, got %d", len(jobs))
			}
			if jobs[0].ID != "new" {
				t.Fatalf("expected newest job first, got %q", jobs[0].ID)
			}
		})
	}
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			stale := &Job{ID: "stale", ToolName: "task", Status: StatusSucceeded, CreatedAt: time.Now().Add(-48 * time.Hour)}
			fresh := &Job{ID: "fresh", ToolName: "task", Status: StatusSucceeded, CreatedAt: time.Now()}
			store.Create(ctx, stale)
			store.Create(ctx, fresh)

			pruned, err := store.Prune(ctx, 24*time.Hour)
			if err != nil {
				t.Fatalf("prune: %v", err)
			}
			if pruned != 1 {
				t.Fatalf("expected 1 job pruned, got %d", pruned)
			}

			remaining, _ := store.List(ctx, 10, 0)
			if len(remaining) != 1 || remaining[0].ID != "fresh" {
				t.Fatalf("expected only fresh job to remain, got %+v", remaining)
			}
		})
	}
}

func TestStoreCancel(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			job := &Job{ID: "running", ToolName: "task", Status: StatusRunning, CreatedAt: time.Now()}
			store.Create(ctx, job)

			if err := store.Cancel(ctx, "running"); err != nil {
				t.Fatalf("cancel: %v", err)
			}

			got, err := store.Get(ctx, "running")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != StatusFailed {
				t.Fatalf("expected cancelled job to be failed, got %q", got.Status)
			}
		})
	}
}
