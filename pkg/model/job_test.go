package model

import (
	"testing"
	"time"
)

func TestAsyncJob_Lifecycle(t *testing.T) {
	j := NewAsyncJob("clinic-nord", []byte(`{}`))

	if j.Status != JobQueued {
		t.Errorf("New job should be queued, got %s", j.Status)
	}
	if j.Terminal() {
		t.Error("Queued job is not terminal")
	}

	j.Status = JobProcessing
	if j.Terminal() {
		t.Error("Processing job is not terminal")
	}

	j.Status = JobCompleted
	if !j.Terminal() {
		t.Error("Completed job is terminal")
	}

	j.Status = JobFailed
	if !j.Terminal() {
		t.Error("Failed job is terminal")
	}
}

func TestAsyncJob_Stale(t *testing.T) {
	j := NewAsyncJob("clinic-nord", nil)
	j.Status = JobProcessing
	j.UpdatedAt = time.Now().Add(-JobStaleThreshold - time.Minute)

	if !j.Stale(time.Now()) {
		t.Error("Job past the stale threshold should be stale")
	}

	j.UpdatedAt = time.Now()
	if j.Stale(time.Now()) {
		t.Error("Recently updated job should not be stale")
	}
}
