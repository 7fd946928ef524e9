package engine

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/zhipai/zhipai/pkg/logger"
)

// SolverConfig 求解器配置
type SolverConfig struct {
	Workers     int           // 并行搜索协程数
	Budget      time.Duration // 墙钟时间预算，唯一的取消机制
	InitialTemp float64       // 模拟退火初始温度
	CoolingRate float64       // 冷却速率
	TabuSize    int           // 禁忌表大小
}

// DefaultSolverConfig 默认求解器配置
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Workers:     8,
		Budget:      60 * time.Second,
		InitialTemp: 5000.0,
		CoolingRate: 0.9995,
		TabuSize:    64,
	}
}

// Solution 求解结果
type Solution struct {
	Choice   []int  // 班次下标 → 候选对下标，-1 表示未指派
	Assigned []bool // 对下标 → 是否被选中
	Score    int64
	Elapsed  time.Duration
	Degraded bool // 降级兜底：全部未指派
}

// Solver 时间受限的并行求解器
// 每次调用使用按当前时刻派生的随机种子，相同输入的重复求解
// 会产生有差异的排班方案，这是有意的行为
type Solver struct {
	cfg SolverConfig
	log *logger.SolverLogger
}

// NewSolver 创建求解器
func NewSolver(cfg SolverConfig) *Solver {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 60 * time.Second
	}
	if cfg.InitialTemp <= 0 {
		cfg.InitialTemp = 5000.0
	}
	if cfg.CoolingRate <= 0 || cfg.CoolingRate >= 1 {
		cfg.CoolingRate = 0.9995
	}
	if cfg.TabuSize <= 0 {
		cfg.TabuSize = 64
	}
	return &Solver{cfg: cfg, log: logger.NewSolverLogger()}
}

// Solve 求解约束模型
// 贪心构造初始解后由多个独立搜索协程并行退火，定期汇聚最优解；
// 无法产出可读方案时降级为全部未指派而非报错
func (s *Solver) Solve(ctx context.Context, p *Problem) *Solution {
	start := time.Now()

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	obj := NewObjective(p, rng)

	deadline := start.Add(s.cfg.Budget)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	initial := newSearchState(p, obj)
	greedyConstruct(initial, rng)

	if p.Arena.EligibleCount() == 0 {
		sol := initial.snapshot()
		sol.Elapsed = time.Since(start)
		sol.Degraded = true
		s.log.Degraded("无可行候选对")
		return sol
	}

	// 岛屿式并行搜索：各协程独立退火，结束后取全局最优
	results := make([]*searchState, s.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(island int) {
			defer wg.Done()
			st := initial.clone()
			islandRng := rand.New(rand.NewSource(seed + int64(island)*7919))
			s.anneal(ctx, st, islandRng)
			results[island] = st
		}(i)
	}
	wg.Wait()

	best := initial
	for _, st := range results {
		if st != nil && st.score > best.score {
			best = st
		}
	}

	best.enforceMinDailyPresence()

	sol := best.snapshot()
	sol.Score = obj.Evaluate(sol.Choice, sol.Assigned)
	sol.Elapsed = time.Since(start)

	assigned, unassigned := sol.counts()
	s.log.SolveComplete("", sol.Elapsed, assigned, unassigned, sol.Score)

	return sol
}

// anneal 单协程模拟退火搜索
func (s *Solver) anneal(ctx context.Context, st *searchState, rng *rand.Rand) {
	temp := s.cfg.InitialTemp
	tabu := newTabuList(s.cfg.TabuSize)
	bestScore := st.score
	bestChoice := append([]int(nil), st.choice...)

	for i := 0; ; i++ {
		// 每轮抽样检查取消，避免热路径频繁进系统调用
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				st.restore(bestChoice)
				return
			default:
			}
		}

		delta, apply := st.randomMove(rng)
		if apply == nil {
			temp *= s.cfg.CoolingRate
			continue
		}

		accept := delta > 0
		if !accept && temp > 0 {
			if rng.Float64() < math.Exp(float64(delta)/temp) {
				accept = true
			}
		}

		if accept {
			apply()
			key := st.hash()
			if st.score > bestScore && !tabu.contains(key) {
				bestScore = st.score
				bestChoice = append(bestChoice[:0], st.choice...)
			}
			tabu.add(key)
		}

		temp *= s.cfg.CoolingRate
	}
}

// searchState 可变搜索状态，增量维护目标值与负载
type searchState struct {
	p   *Problem
	obj *Objective

	choice      []int   // 班次 → 对下标或-1
	assigned    []bool  // 对 → 已选中
	weekLoad    [][]int // 员工 × 周 → 已指派分钟
	dayLoad     [][]int // 员工 × 日 → 已指派分钟
	nbrAssigned []int   // 对 → 已指派连片伙伴数
	score       int64
}

func newSearchState(p *Problem, obj *Objective) *searchState {
	st := &searchState{
		p:           p,
		obj:         obj,
		choice:      make([]int, len(p.Shifts)),
		assigned:    make([]bool, len(p.Arena.Pairs)),
		weekLoad:    make([][]int, len(p.Workers)),
		dayLoad:     make([][]int, len(p.Workers)),
		nbrAssigned: make([]int, len(p.Arena.Pairs)),
	}
	for i := range st.choice {
		st.choice[i] = -1
	}
	for w := range st.weekLoad {
		st.weekLoad[w] = make([]int, p.WeekCount)
		st.dayLoad[w] = make([]int, p.DayCount)
	}
	st.score = -int64(len(p.Shifts)) * obj.UnassignedCost
	return st
}

func (st *searchState) clone() *searchState {
	c := &searchState{
		p:           st.p,
		obj:         st.obj,
		choice:      append([]int(nil), st.choice...),
		assigned:    append([]bool(nil), st.assigned...),
		weekLoad:    make([][]int, len(st.weekLoad)),
		dayLoad:     make([][]int, len(st.dayLoad)),
		nbrAssigned: append([]int(nil), st.nbrAssigned...),
		score:       st.score,
	}
	for w := range st.weekLoad {
		c.weekLoad[w] = append([]int(nil), st.weekLoad[w]...)
		c.dayLoad[w] = append([]int(nil), st.dayLoad[w]...)
	}
	return c
}

// canAssign 判断候选对能否加入当前状态
// 屏蔽、同员工冲突、周上限在此处硬性保证，产出方案不会违反
func (st *searchState) canAssign(pi int) bool {
	pair := &st.p.Arena.Pairs[pi]
	if pair.Blocked || st.choice[pair.Shift] >= 0 {
		return false
	}
	for _, q := range st.p.Conflicts[pi] {
		if st.assigned[q] {
			return false
		}
	}
	w := pair.Worker
	wk := st.p.WeekIdx[pair.Shift]
	if st.weekLoad[w][wk]+st.p.Duration[pair.Shift] > st.p.WeeklyCapMin[w] {
		return false
	}
	return true
}

// assignDelta 指派该对的目标增量
func (st *searchState) assignDelta(pi int) int64 {
	p := st.p
	delta := st.obj.PairValue[pi] + st.obj.UnassignedCost

	shift := p.Arena.Pairs[pi].Shift
	if p.ShortShift[shift] {
		if !p.HasNeighbor[pi] {
			delta -= FragmentMaxSeverity
		} else if st.nbrAssigned[pi] == 0 {
			delta -= FragmentPenalty
		}
	}

	for _, q := range p.Adjacent[pi] {
		if !st.assigned[q] {
			continue
		}
		delta += ContiguityBonus
		// 伙伴的孤立惩罚随本次指派解除
		if p.ShortShift[p.Arena.Pairs[q].Shift] && p.HasNeighbor[q] && st.nbrAssigned[q] == 0 {
			delta += FragmentPenalty
		}
	}

	return delta
}

// unassignDelta 撤销该对的目标增量
func (st *searchState) unassignDelta(pi int) int64 {
	p := st.p
	delta := -st.obj.PairValue[pi] - st.obj.UnassignedCost

	shift := p.Arena.Pairs[pi].Shift
	if p.ShortShift[shift] {
		if !p.HasNeighbor[pi] {
			delta += FragmentMaxSeverity
		} else if st.nbrAssigned[pi] == 0 {
			delta += FragmentPenalty
		}
	}

	for _, q := range p.Adjacent[pi] {
		if !st.assigned[q] {
			continue
		}
		delta -= ContiguityBonus
		if p.ShortShift[p.Arena.Pairs[q].Shift] && p.HasNeighbor[q] && st.nbrAssigned[q] == 1 {
			delta -= FragmentPenalty
		}
	}

	return delta
}

// assign 执行指派，调用前须通过 canAssign
func (st *searchState) assign(pi int) {
	st.score += st.assignDelta(pi)

	pair := &st.p.Arena.Pairs[pi]
	st.choice[pair.Shift] = pi
	st.assigned[pi] = true
	st.weekLoad[pair.Worker][st.p.WeekIdx[pair.Shift]] += st.p.Duration[pair.Shift]
	st.dayLoad[pair.Worker][st.p.DayIdx[pair.Shift]] += st.p.Duration[pair.Shift]
	for _, q := range st.p.Adjacent[pi] {
		st.nbrAssigned[q]++
	}
}

// unassign 撤销指派
func (st *searchState) unassign(pi int) {
	st.score += st.unassignDelta(pi)

	pair := &st.p.Arena.Pairs[pi]
	st.choice[pair.Shift] = -1
	st.assigned[pi] = false
	st.weekLoad[pair.Worker][st.p.WeekIdx[pair.Shift]] -= st.p.Duration[pair.Shift]
	st.dayLoad[pair.Worker][st.p.DayIdx[pair.Shift]] -= st.p.Duration[pair.Shift]
	for _, q := range st.p.Adjacent[pi] {
		st.nbrAssigned[q]--
	}
}

// randomMove 产生一个随机移动
// 返回目标增量和执行闭包；无可行移动时 apply 为 nil
func (st *searchState) randomMove(rng *rand.Rand) (delta int64, apply func()) {
	if len(st.p.Shifts) == 0 {
		return 0, nil
	}
	si := rng.Intn(len(st.p.Shifts))
	cands := st.p.Arena.ByShift[si]
	cur := st.choice[si]

	if cur >= 0 {
		// 已指派班次：改派其它候选或撤销
		if rng.Intn(3) == 0 || len(cands) < 2 {
			delta = st.unassignDelta(cur)
			pi := cur
			return delta, func() { st.unassign(pi) }
		}
		next := cands[rng.Intn(len(cands))]
		if next == cur {
			return 0, nil
		}
		// 改派 = 撤销+指派，增量分两步算
		d1 := st.unassignDelta(cur)
		st.unassign(cur)
		if !st.canAssign(next) {
			st.assign(cur) // 回滚
			return 0, nil
		}
		d2 := st.assignDelta(next)
		st.assign(cur) // 回滚到原状态，仅报告增量
		prev := cur
		return d1 + d2, func() {
			st.unassign(prev)
			st.assign(next)
		}
	}

	// 未指派班次：尝试随机候选
	if len(cands) == 0 {
		return 0, nil
	}
	pi := cands[rng.Intn(len(cands))]
	if !st.canAssign(pi) {
		return 0, nil
	}
	return st.assignDelta(pi), func() { st.assign(pi) }
}

// restore 恢复到记录的最优选择
func (st *searchState) restore(choice []int) {
	for si, pi := range st.choice {
		if pi >= 0 && choice[si] != pi {
			st.unassign(pi)
		}
	}
	for si, pi := range choice {
		if pi >= 0 && st.choice[si] != pi && st.canAssign(pi) {
			st.assign(pi)
		}
	}
}

// enforceMinDailyPresence 撤销低于每日最低出勤的孤立指派
// 员工某日总时长不足60分钟时整日撤销，避免接受孤立的零碎片段
func (st *searchState) enforceMinDailyPresence() {
	for w := range st.p.Workers {
		for day := 0; day < st.p.DayCount; day++ {
			load := st.dayLoad[w][day]
			if load == 0 || load >= MinDailyMinutes {
				continue
			}
			for _, pi := range st.p.Arena.ByWorker[w] {
				if st.assigned[pi] && st.p.DayIdx[st.p.Arena.Pairs[pi].Shift] == day {
					st.unassign(pi)
				}
			}
		}
	}
}

// hash 当前指派的FNV-1a哈希，用作禁忌表键
func (st *searchState) hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, pi := range st.choice {
		v := uint64(pi + 1)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

// snapshot 导出不可变结果
func (st *searchState) snapshot() *Solution {
	return &Solution{
		Choice:   append([]int(nil), st.choice...),
		Assigned: append([]bool(nil), st.assigned...),
		Score:    st.score,
	}
}

// counts 已指派/未指派班次数
func (s *Solution) counts() (assigned, unassigned int) {
	for _, pi := range s.Choice {
		if pi >= 0 {
			assigned++
		} else {
			unassigned++
		}
	}
	return
}

// greedyConstruct 贪心构造初始解
// 候选最少的班次优先，每个班次选增量收益最大的可行候选
func greedyConstruct(st *searchState, rng *rand.Rand) {
	order := make([]int, len(st.p.Shifts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return len(st.p.Arena.ByShift[order[a]]) < len(st.p.Arena.ByShift[order[b]])
	})

	for _, si := range order {
		bestPair := -1
		var bestDelta int64
		for _, pi := range st.p.Arena.ByShift[si] {
			if !st.canAssign(pi) {
				continue
			}
			d := st.assignDelta(pi)
			if bestPair < 0 || d > bestDelta {
				bestPair = pi
				bestDelta = d
			}
		}
		if bestPair >= 0 && bestDelta > 0 {
			st.assign(bestPair)
		}
	}
}

// tabuList 禁忌表，FNV哈希为键
type tabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
}

func newTabuList(size int) *tabuList {
	return &tabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

func (t *tabuList) add(key uint64) {
	if _, exists := t.items[key]; exists {
		return
	}
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}
	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

func (t *tabuList) contains(key uint64) bool {
	_, exists := t.items[key]
	return exists
}
