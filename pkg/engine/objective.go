package engine

import (
	"math/rand"
)

// ObjectiveScale 目标函数统一放大系数
// 整数目标配合小数权重时保留精度
const ObjectiveScale = 10

// 目标函数经验常数
const (
	jitterMax = 30 // 每对随机扰动上限，打破平局并避免重复输入产生单调输出

	ContiguityBonus     = 200 * ObjectiveScale // 连片指派奖励
	FragmentPenalty     = 400 * ObjectiveScale // 孤立短班惩罚
	FragmentMaxSeverity = 800 * ObjectiveScale // 无任何可能邻居的短班最高惩罚
)

// Objective 整数目标函数
// 与指派状态无关的项（适配度、填坑价值、缺勤风险、公平负载、扰动）
// 预折算为每对常量，连片/碎片项依赖状态在求解时增量计算
type Objective struct {
	p *Problem

	PairValue      []int64 // 对下标 → 指派该对的固定收益
	UnassignedCost int64   // 未指派班次的固定损失
}

// NewObjective 构建目标函数，扰动项由本次求解的随机源生成
func NewObjective(p *Problem, rng *rand.Rand) *Objective {
	o := &Objective{
		p:              p,
		PairValue:      make([]int64, len(p.Arena.Pairs)),
		UnassignedCost: int64(p.Options.PenaltyUnassigned) * ObjectiveScale,
	}

	for pi, pair := range p.Arena.Pairs {
		dur := p.Duration[pair.Shift]

		v := int64(float64(pair.Affinity) * p.Options.AffinityWeight * ObjectiveScale)
		v += rng.Int63n(jitterMax + 1)
		v += int64(p.Options.PenaltyUnassigned) * ObjectiveScale
		v -= int64(pair.Risk * float64(p.Options.PenaltyAbsenceRisk) * ObjectiveScale)
		v -= int64(p.Options.FairnessWeight * ObjectiveScale / 120.0 * float64(dur))

		o.PairValue[pi] = v
	}

	return o
}

// Evaluate 全量计算指派状态的目标值
// 求解器内部使用增量更新，此函数用于最终校验与统计
func (o *Objective) Evaluate(choice []int, assigned []bool) int64 {
	var total int64

	for _, pi := range choice {
		if pi < 0 {
			total -= o.UnassignedCost
			continue
		}
		total += o.PairValue[pi]
		total += o.fragmentTerm(pi, assigned)
	}

	// 连片奖励：每个互相指派的连片伙伴对计一次
	for pi := range o.p.Arena.Pairs {
		if !assigned[pi] {
			continue
		}
		for _, q := range o.p.Adjacent[pi] {
			if q > pi && assigned[q] {
				total += ContiguityBonus
			}
		}
	}

	return total
}

// fragmentTerm 单个已指派对的碎片化惩罚
func (o *Objective) fragmentTerm(pi int, assigned []bool) int64 {
	if !o.p.ShortShift[o.p.Arena.Pairs[pi].Shift] {
		return 0
	}
	if !o.p.HasNeighbor[pi] {
		return -FragmentMaxSeverity
	}
	for _, q := range o.p.Adjacent[pi] {
		if assigned[q] {
			return 0
		}
	}
	return -FragmentPenalty
}
