package engine

import (
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func buildTestProblem(t *testing.T, workers []*model.Worker, shifts []*model.ShiftRequirement, unavails []*model.Unavailability, profiles []*model.LaborProfile) *Problem {
	t.Helper()
	arena, err := BuildArena(workers, shifts, 0)
	if err != nil {
		t.Fatalf("BuildArena failed: %v", err)
	}
	return BuildProblem(arena, workers, shifts, unavails, profiles, model.DefaultSolveOptions())
}

func TestBuildProblem_Geometry(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "16:00", "护士"),
		testShift("s2", "2026-01-12", "22:00", "06:00", "护士"), // 跨午夜
		testShift("s3", "2026-01-19", "08:00", "16:00", "护士"), // 下一个ISO周
	}

	p := buildTestProblem(t, workers, shifts, nil, nil)

	if p.Duration[0] != 480 {
		t.Errorf("Expected 480 min, got %d", p.Duration[0])
	}
	if p.Duration[1] != 480 {
		t.Errorf("Cross-midnight shift should be 480 min, got %d", p.Duration[1])
	}
	if p.AbsEnd[1]-p.AbsStart[1] != 480 {
		t.Errorf("Absolute minutes should span midnight, got %d", p.AbsEnd[1]-p.AbsStart[1])
	}

	if p.DayCount != 2 {
		t.Errorf("Expected 2 distinct days, got %d", p.DayCount)
	}
	if p.WeekCount != 2 {
		t.Errorf("Expected 2 distinct ISO weeks, got %d", p.WeekCount)
	}
	if p.DayIdx[0] != p.DayIdx[1] {
		t.Error("Same-date shifts should share a day index")
	}
	if p.WeekIdx[0] == p.WeekIdx[2] {
		t.Error("Shifts a week apart should not share a week index")
	}
}

func TestBuildProblem_ProfileFallback(t *testing.T) {
	workers := []*model.Worker{
		testWorker("w1", "护士"),
		testWorker("w2", "护士"),
	}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "16:00", "护士"),
	}
	profiles := []*model.LaborProfile{
		{ID: "part-time", MaxWeeklyHours: 24, MaxDailyHours: 8, MinRestHours: 12},
		nil, // 回退到租户默认
	}

	p := buildTestProblem(t, workers, shifts, nil, profiles)

	if p.WeeklyCapMin[0] != 24*60 {
		t.Errorf("Expected 1440 weekly cap for profile, got %d", p.WeeklyCapMin[0])
	}
	if p.MinRestMin[0] != 12*60 {
		t.Errorf("Expected 720 rest min for profile, got %d", p.MinRestMin[0])
	}
	if p.WeeklyCapMin[1] != int(model.DefaultMaxWeeklyHours*60) {
		t.Errorf("Expected tenant default weekly cap, got %d", p.WeeklyCapMin[1])
	}
	if p.MinRestMin[1] != model.DefaultLaborProfile().MinRestMinutes() {
		t.Errorf("Expected default rest minutes, got %d", p.MinRestMin[1])
	}
}

func TestBuildProblem_UnavailabilityBlocking(t *testing.T) {
	workers := []*model.Worker{
		testWorker("w1", "护士"),
		{ID: "w2", Name: "张伟", Role: "护士"},
	}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "12:00", "护士"),
		testShift("s2", "2026-01-12", "14:00", "18:00", "护士"),
		testShift("s3", "2026-01-13", "08:00", "12:00", "护士"),
	}
	unavails := []*model.Unavailability{
		// w1 按ID，12日上午时间窗
		{WorkerID: "w1", Date: "2026-01-12", StartTime: "09:00", EndTime: "11:00"},
		// w2 按归一化姓名，13日全天
		{WorkerName: " 张伟 ", Date: "2026-01-13"},
	}

	p := buildTestProblem(t, workers, shifts, unavails, nil)

	blocked := func(wi, si int) bool {
		t.Helper()
		idx, ok := p.Arena.Lookup(wi, si)
		if !ok {
			t.Fatalf("Missing pair (%d,%d)", wi, si)
		}
		return p.Arena.Pairs[idx].Blocked
	}

	if !blocked(0, 0) {
		t.Error("Overlapping window should block w1 morning shift")
	}
	if blocked(0, 1) {
		t.Error("Non-overlapping window should not block w1 afternoon shift")
	}
	if blocked(0, 2) {
		t.Error("Different date should not block w1")
	}
	if !blocked(1, 2) {
		t.Error("All-day record matched by name should block w2")
	}
	if blocked(1, 0) {
		t.Error("w2 should be free on the 12th")
	}
}

func TestBuildProblem_SameDayConflicts(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "14:00", "护士"),
		testShift("s2", "2026-01-12", "12:00", "18:00", "护士"), // 与s1重叠
		testShift("s3", "2026-01-12", "14:30", "20:00", "护士"), // 与s1不重叠
	}

	p := buildTestProblem(t, workers, shifts, nil, nil)

	p0, _ := p.Arena.Lookup(0, 0)
	p1, _ := p.Arena.Lookup(0, 1)
	p2, _ := p.Arena.Lookup(0, 2)

	if !containsInt(p.Conflicts[p0], p1) {
		t.Error("Overlapping same-day shifts should conflict")
	}
	if containsInt(p.Conflicts[p0], p2) {
		t.Error("Non-overlapping same-day shifts should not conflict")
	}
	// s2与s3也重叠（14:30 < 18:00）
	if !containsInt(p.Conflicts[p1], p2) {
		t.Error("s2/s3 overlap should conflict")
	}
}

func TestBuildProblem_RestConflicts(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "14:00", "23:00", "护士"),
		testShift("s2", "2026-01-13", "06:00", "14:00", "护士"), // 间隔7小时 < 默认11小时
		testShift("s3", "2026-01-14", "12:00", "20:00", "护士"), // 距s2有22小时
	}

	p := buildTestProblem(t, workers, shifts, nil, nil)

	p0, _ := p.Arena.Lookup(0, 0)
	p1, _ := p.Arena.Lookup(0, 1)
	p2, _ := p.Arena.Lookup(0, 2)

	if !containsInt(p.Conflicts[p0], p1) {
		t.Error("7h gap across midnight should violate 11h rest")
	}
	if containsInt(p.Conflicts[p1], p2) {
		t.Error("22h gap should satisfy rest rule")
	}
}

func TestBuildProblem_Adjacency(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "12:00", "护士"),
		testShift("s2", "2026-01-12", "12:20", "16:00", "护士"), // 间隔20分钟，连片
		testShift("s3", "2026-01-12", "17:00", "17:30", "护士"), // 间隔60分钟，孤立短班
	}

	p := buildTestProblem(t, workers, shifts, nil, nil)

	p0, _ := p.Arena.Lookup(0, 0)
	p1, _ := p.Arena.Lookup(0, 1)
	p2, _ := p.Arena.Lookup(0, 2)

	if !containsInt(p.Adjacent[p0], p1) {
		t.Error("20-minute gap should be adjacent")
	}
	if containsInt(p.Adjacent[p1], p2) {
		t.Error("60-minute gap should not be adjacent")
	}
	if !p.HasNeighbor[p0] || !p.HasNeighbor[p1] {
		t.Error("Adjacent pairs should have neighbors")
	}
	if p.HasNeighbor[p2] {
		t.Error("Isolated pair should have no neighbor")
	}

	if p.ShortShift[0] {
		t.Error("4h shift should not be short")
	}
	if !p.ShortShift[2] {
		t.Error("30-minute shift should be short")
	}
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
