package engine

import (
	"math/rand"
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestObjective_PairValueBounds(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "16:00", "护士"),
	}
	p := buildTestProblem(t, workers, shifts, nil, nil)
	p.Arena.Pairs[0].Affinity = 50

	obj := NewObjective(p, rand.New(rand.NewSource(1)))

	if obj.UnassignedCost != 500*ObjectiveScale {
		t.Errorf("Expected unassigned cost 5000, got %d", obj.UnassignedCost)
	}

	// 适配度 50×1.0×10 + 填坑 500×10 − 公平负载 80×10/120×480，扰动 ∈ [0,30]
	base := int64(500 + 5000 - 3200)
	v := obj.PairValue[0]
	if v < base || v > base+30 {
		t.Errorf("PairValue %d outside [%d,%d]", v, base, base+30)
	}
}

func TestObjective_RiskPenalty(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "16:00", "护士"),
	}
	p := buildTestProblem(t, workers, shifts, nil, nil)
	p.Arena.Pairs[0].Risk = 0.5

	obj := NewObjective(p, rand.New(rand.NewSource(1)))

	// 风险项 0.5×200×10 = 1000
	base := int64(5000 - 3200 - 1000)
	v := obj.PairValue[0]
	if v < base || v > base+30 {
		t.Errorf("PairValue with risk %d outside [%d,%d]", v, base, base+30)
	}
}

func TestObjective_Evaluate(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "12:00", "护士"),
		testShift("s2", "2026-01-12", "12:15", "16:00", "护士"), // 与s1连片
	}
	p := buildTestProblem(t, workers, shifts, nil, nil)
	obj := NewObjective(p, rand.New(rand.NewSource(1)))

	p0, _ := p.Arena.Lookup(0, 0)
	p1, _ := p.Arena.Lookup(0, 1)

	// 全部未指派
	empty := obj.Evaluate([]int{-1, -1}, make([]bool, len(p.Arena.Pairs)))
	if empty != -2*obj.UnassignedCost {
		t.Errorf("Expected %d for empty schedule, got %d", -2*obj.UnassignedCost, empty)
	}

	// 两班连片指派：对价值之和 + 一次连片奖励
	assigned := make([]bool, len(p.Arena.Pairs))
	assigned[p0] = true
	assigned[p1] = true
	full := obj.Evaluate([]int{p0, p1}, assigned)
	want := obj.PairValue[p0] + obj.PairValue[p1] + ContiguityBonus
	if full != want {
		t.Errorf("Expected %d, got %d", want, full)
	}
}

func TestObjective_FragmentPenalties(t *testing.T) {
	workers := []*model.Worker{testWorker("w1", "护士")}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "09:00", "护士"), // 孤立短班
		testShift("s2", "2026-01-13", "08:00", "09:00", "护士"), // 短班，有连片伙伴
		testShift("s3", "2026-01-13", "09:10", "13:00", "护士"),
	}
	p := buildTestProblem(t, workers, shifts, nil, nil)
	obj := NewObjective(p, rand.New(rand.NewSource(1)))

	p0, _ := p.Arena.Lookup(0, 0)
	p1, _ := p.Arena.Lookup(0, 1)
	p2, _ := p.Arena.Lookup(0, 2)

	assigned := make([]bool, len(p.Arena.Pairs))

	// 无任何可能邻居的短班：最高惩罚
	assigned[p0] = true
	got := obj.Evaluate([]int{p0, -1, -1}, assigned)
	want := obj.PairValue[p0] - FragmentMaxSeverity - 2*obj.UnassignedCost
	if got != want {
		t.Errorf("Isolated short shift: expected %d, got %d", want, got)
	}

	// 有伙伴但伙伴未指派：普通碎片惩罚
	assigned[p0] = false
	assigned[p1] = true
	got = obj.Evaluate([]int{-1, p1, -1}, assigned)
	want = obj.PairValue[p1] - FragmentPenalty - 2*obj.UnassignedCost
	if got != want {
		t.Errorf("Lonely short shift: expected %d, got %d", want, got)
	}

	// 伙伴已指派：惩罚解除，获得连片奖励
	assigned[p2] = true
	got = obj.Evaluate([]int{-1, p1, p2}, assigned)
	want = obj.PairValue[p1] + obj.PairValue[p2] + ContiguityBonus - obj.UnassignedCost
	if got != want {
		t.Errorf("Paired short shift: expected %d, got %d", want, got)
	}
}

// 增量更新与全量计算必须一致
func TestSearchState_IncrementalScore(t *testing.T) {
	workers := []*model.Worker{
		testWorker("w1", "护士"),
		testWorker("w2", "护士"),
	}
	shifts := []*model.ShiftRequirement{
		testShift("s1", "2026-01-12", "08:00", "09:00", "护士"),
		testShift("s2", "2026-01-12", "09:15", "13:00", "护士"),
		testShift("s3", "2026-01-13", "08:00", "16:00", "护士"),
	}
	p := buildTestProblem(t, workers, shifts, nil, nil)
	obj := NewObjective(p, rand.New(rand.NewSource(7)))

	st := newSearchState(p, obj)
	if st.score != obj.Evaluate(st.choice, st.assigned) {
		t.Fatalf("Initial score mismatch: %d vs %d", st.score, obj.Evaluate(st.choice, st.assigned))
	}

	var picked []int
	for si := range shifts {
		for _, pi := range p.Arena.ByShift[si] {
			if st.canAssign(pi) {
				st.assign(pi)
				picked = append(picked, pi)
				break
			}
		}
		if st.score != obj.Evaluate(st.choice, st.assigned) {
			t.Fatalf("Score diverged after assign: %d vs %d", st.score, obj.Evaluate(st.choice, st.assigned))
		}
	}

	for _, pi := range picked {
		st.unassign(pi)
		if st.score != obj.Evaluate(st.choice, st.assigned) {
			t.Fatalf("Score diverged after unassign: %d vs %d", st.score, obj.Evaluate(st.choice, st.assigned))
		}
	}
}
