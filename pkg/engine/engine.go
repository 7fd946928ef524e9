package engine

import (
	"context"
	"time"

	"github.com/zhipai/zhipai/pkg/affinity"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
)

// Request 一次求解的完整输入，求解期间不可变
type Request struct {
	Environment      string
	Workers          []*model.Worker
	Shifts           []*model.ShiftRequirement
	Unavailabilities []*model.Unavailability
	Profiles         []*model.LaborProfile // 与 Workers 对齐，nil 表示用租户默认
	AbsenceRisk      map[string]map[string]float64 // 日期 → 员工ID → 缺勤概率
	Options          model.SolveOptions
}

// Result 一次求解的完整输出
type Result struct {
	Schedule   []*model.ResultRecord `json:"schedule"`
	Assigned   int                   `json:"assigned"`
	Unassigned int                   `json:"unassigned"`
	Objective  int64                 `json:"objective"`
	ElapsedMS  int64                 `json:"elapsed_ms"`
	Degraded   bool                  `json:"degraded,omitempty"`

	// EligiblePairs 过滤后进入评分与求解的候选对数量
	EligiblePairs int `json:"eligible_pairs"`
}

// Engine 排班求解引擎
// 流水线：可行性过滤 → 适配度批量评分 → 约束建模 → 求解 → 物化
type Engine struct {
	model          *affinity.Model
	solverCfg      SolverConfig
	maxPairProduct int
	largeShifts    int
	extendedBudget time.Duration
	log            *logger.SolverLogger
}

// NewEngine 创建求解引擎
func NewEngine(affinityModel *affinity.Model, solverCfg SolverConfig, maxPairProduct int) *Engine {
	if maxPairProduct <= 0 {
		maxPairProduct = DefaultMaxPairProduct
	}
	return &Engine{
		model:          affinityModel,
		solverCfg:      solverCfg,
		maxPairProduct: maxPairProduct,
		largeShifts:    1000,
		extendedBudget: 2 * solverCfg.Budget,
		log:            logger.NewSolverLogger(),
	}
}

// SetBudgetScaling 覆盖大规模实例的预算切换阈值
func (e *Engine) SetBudgetScaling(largeShifts int, extendedBudget time.Duration) {
	if largeShifts > 0 {
		e.largeShifts = largeShifts
	}
	if extendedBudget > 0 {
		e.extendedBudget = extendedBudget
	}
}

// Generate 执行一次完整求解
// 零员工或零可行对时正常完成并返回全部未指派，不报错
func (e *Engine) Generate(ctx context.Context, req *Request) (*Result, error) {
	e.log.StartSolve(req.Environment, len(req.Workers), len(req.Shifts))

	arena, err := BuildArena(req.Workers, req.Shifts, e.maxPairProduct)
	if err != nil {
		return nil, err
	}
	e.log.PairsGenerated(len(arena.Pairs), len(req.Workers)*len(req.Shifts))

	// 求解前强制刷新一次权重
	if e.model != nil {
		_ = e.model.Refresh(ctx, true)
	}

	e.scorePairs(arena, req)

	problem := BuildProblem(arena, req.Workers, req.Shifts, req.Unavailabilities, req.Profiles, req.Options)

	cfg := e.solverCfg
	if len(req.Shifts) > e.largeShifts {
		cfg.Budget = e.extendedBudget
	}
	solver := NewSolver(cfg)
	sol := solver.Solve(ctx, problem)

	schedule := Materialize(problem, sol)
	assigned, unassigned := sol.counts()

	return &Result{
		Schedule:   schedule,
		Assigned:   assigned,
		Unassigned: unassigned,
		Objective:  sol.Score,
		ElapsedMS:  sol.Elapsed.Milliseconds(),
		Degraded:   sol.Degraded,

		EligiblePairs: len(arena.Pairs),
	}, nil
}

// scorePairs 批量计算适配度并写回候选对
// 单次前向遍历全部可行对，不逐对调用
func (e *Engine) scorePairs(arena *Arena, req *Request) {
	if len(arena.Pairs) == 0 {
		return
	}

	now := time.Now()
	features := make([]affinity.FeatureVector, len(arena.Pairs))
	for i, pair := range arena.Pairs {
		features[i] = affinity.ExtractFeatures(req.Workers[pair.Worker], req.Shifts[pair.Shift], now)
	}

	var scores []float64
	if e.model != nil {
		scores = e.model.ScoreBatch(features)
	} else {
		scores = make([]float64, len(features))
		for i, fv := range features {
			scores[i] = affinity.Heuristic(fv)
		}
	}

	for i := range arena.Pairs {
		arena.Pairs[i].Affinity = int(scores[i] * 100)
		arena.Pairs[i].Risk = e.riskFor(req, &arena.Pairs[i])
	}
}

// riskFor 查找候选对的缺勤风险，缺数据按零风险处理
func (e *Engine) riskFor(req *Request, pair *Pair) float64 {
	if req.AbsenceRisk == nil {
		return 0
	}
	date, _ := model.NormalizeDate(req.Shifts[pair.Shift].Date)
	byWorker, ok := req.AbsenceRisk[date]
	if !ok {
		byWorker, ok = req.AbsenceRisk[req.Shifts[pair.Shift].Date]
		if !ok {
			return 0
		}
	}
	return byWorker[req.Workers[pair.Worker].ID]
}
