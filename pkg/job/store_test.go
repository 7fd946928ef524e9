package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	j := model.NewAsyncJob("clinic-nord", []byte(`{}`))
	if err := s.Create(ctx, j); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != model.JobQueued || got.Environment != "clinic-nord" {
		t.Errorf("Unexpected job: %+v", got)
	}

	got.Status = model.JobCompleted
	got.Result = []byte(`{"ok":true}`)
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	again, _ := s.Get(ctx, j.ID)
	if again.Status != model.JobCompleted || string(again.Result) != `{"ok":true}` {
		t.Errorf("Update not persisted: %+v", again)
	}

	// 存储返回副本，外部修改不应穿透
	again.Status = model.JobFailed
	fresh, _ := s.Get(ctx, j.ID)
	if fresh.Status != model.JobCompleted {
		t.Error("Store should return copies, not shared pointers")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	if !errors.Is(err, errors.CodeJobNotFound) {
		t.Errorf("Expected JOB_NOT_FOUND, got %v", err)
	}

	j := model.NewAsyncJob("x", nil)
	if err := s.Update(context.Background(), j); !errors.Is(err, errors.CodeJobNotFound) {
		t.Errorf("Update of missing job should fail, got %v", err)
	}
}

func TestMemoryStore_ResetStale(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	stale := model.NewAsyncJob("a", nil)
	stale.Status = model.JobProcessing
	stale.UpdatedAt = time.Now().Add(-10 * time.Minute)
	s.Create(ctx, stale)

	fresh := model.NewAsyncJob("b", nil)
	fresh.Status = model.JobProcessing
	s.Create(ctx, fresh)

	done := model.NewAsyncJob("c", nil)
	done.Status = model.JobCompleted
	done.UpdatedAt = time.Now().Add(-10 * time.Minute)
	s.Create(ctx, done)

	n, err := s.ResetStale(ctx, model.JobStaleThreshold)
	if err != nil {
		t.Fatalf("ResetStale failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 reset, got %d", n)
	}

	got, _ := s.Get(ctx, stale.ID)
	if got.Status != model.JobFailed || got.Error == "" {
		t.Errorf("Stale job should be failed with a reason, got %+v", got)
	}
	if got, _ := s.Get(ctx, fresh.ID); got.Status != model.JobProcessing {
		t.Error("Recent processing job should be untouched")
	}
	if got, _ := s.Get(ctx, done.ID); got.Status != model.JobCompleted {
		t.Error("Terminal job should be untouched")
	}
}

func TestMemoryFlag(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFlag()

	ok, err := f.TryAcquire(ctx, time.Minute)
	if err != nil || !ok {
		t.Fatalf("First acquire should succeed, got %v/%v", ok, err)
	}

	if ok, _ := f.TryAcquire(ctx, time.Minute); ok {
		t.Error("Held flag should reject second acquire")
	}

	if err := f.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if ok, _ := f.TryAcquire(ctx, time.Minute); !ok {
		t.Error("Released flag should be acquirable")
	}

	// 陈旧标志可被直接覆盖
	if ok, _ := f.TryAcquire(ctx, 0); !ok {
		t.Error("Stale flag should be overridable")
	}

	if err := f.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if ok, _ := f.TryAcquire(ctx, time.Minute); !ok {
		t.Error("Cleared flag should be acquirable")
	}
}
