package engine

import (
	"fmt"
	"testing"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

func testWorker(id, role string) *model.Worker {
	return &model.Worker{ID: id, Name: id, Role: role}
}

func testShift(id, date, start, end, role string) *model.ShiftRequirement {
	return &model.ShiftRequirement{ID: id, Date: date, StartTime: start, EndTime: end, Role: role}
}

func TestBuildArena_RoleAndContract(t *testing.T) {
	workers := []*model.Worker{
		testWorker("w1", "护士"),
		testWorker("w2", "司机"),
		testWorker("w3", "WORKER"),
		{ID: "w4", Name: "w4", Role: "护士", DismissedDate: "2026-01-01"},
	}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "16:00", "护士"),
	}

	arena, err := BuildArena(workers, shifts, 0)
	if err != nil {
		t.Fatalf("BuildArena failed: %v", err)
	}

	// w1 角色匹配、w3 通配；w2 角色不符、w4 已离职
	if len(arena.Pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(arena.Pairs))
	}
	if _, ok := arena.Lookup(0, 0); !ok {
		t.Error("Expected pair for w1")
	}
	if _, ok := arena.Lookup(2, 0); !ok {
		t.Error("Expected pair for wildcard worker w3")
	}
	if _, ok := arena.Lookup(1, 0); ok {
		t.Error("Role-mismatched worker should have no pair")
	}
	if _, ok := arena.Lookup(3, 0); ok {
		t.Error("Dismissed worker should have no pair")
	}
}

func TestBuildArena_WildcardShift(t *testing.T) {
	workers := []*model.Worker{
		testWorker("w1", "护士"),
		testWorker("w2", "司机"),
	}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "16:00", "WORKER"),
	}

	arena, err := BuildArena(workers, shifts, 0)
	if err != nil {
		t.Fatalf("BuildArena failed: %v", err)
	}
	if len(arena.Pairs) != 2 {
		t.Errorf("Wildcard shift should pair with every worker, got %d pairs", len(arena.Pairs))
	}
}

func TestBuildArena_CapacityExceeded(t *testing.T) {
	workers := make([]*model.Worker, 40)
	for i := range workers {
		workers[i] = testWorker(fmt.Sprintf("w%d", i), "护士")
	}
	shifts := make([]*model.ShiftRequirement, 30)
	for i := range shifts {
		shifts[i] = testShift(fmt.Sprintf("s%d", i), "2026-01-12", "08:00", "16:00", "护士")
	}

	_, err := BuildArena(workers, shifts, 1000)
	if err == nil {
		t.Fatal("Expected capacity error for 1200 pair product over limit 1000")
	}
	if !errors.Is(err, errors.CodeCapacityExceeded) {
		t.Errorf("Expected CAPACITY_EXCEEDED, got %v", errors.GetCode(err))
	}
}

func TestBuildArena_ByIndexGrouping(t *testing.T) {
	workers := []*model.Worker{
		testWorker("w1", "护士"),
		testWorker("w2", "护士"),
	}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "12:00", "护士"),
		testShift("s2", "2026-01-12", "13:00", "17:00", "护士"),
	}

	arena, err := BuildArena(workers, shifts, 0)
	if err != nil {
		t.Fatalf("BuildArena failed: %v", err)
	}

	if len(arena.ByShift[0]) != 2 || len(arena.ByShift[1]) != 2 {
		t.Errorf("Each shift should have 2 candidates, got %d/%d", len(arena.ByShift[0]), len(arena.ByShift[1]))
	}
	if len(arena.ByWorker[0]) != 2 || len(arena.ByWorker[1]) != 2 {
		t.Errorf("Each worker should have 2 candidates, got %d/%d", len(arena.ByWorker[0]), len(arena.ByWorker[1]))
	}
}

func TestArena_EligibleCount(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "12:00", "护士"),
		testShift("s2", "2026-01-13", "08:00", "12:00", "护士"),
	}

	arena, err := BuildArena(workers, shifts, 0)
	if err != nil {
		t.Fatalf("BuildArena failed: %v", err)
	}
	if arena.EligibleCount() != 2 {
		t.Fatalf("Expected 2 eligible pairs, got %d", arena.EligibleCount())
	}

	arena.Pairs[0].Blocked = true
	if arena.EligibleCount() != 1 {
		t.Errorf("Blocked pair should not count, got %d", arena.EligibleCount())
	}
}
