// Package engine 实现排班求解引擎
package engine

import (
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// DefaultMaxPairProduct 员工数×班次数的安全上限，超限直接拒绝
const DefaultMaxPairProduct = 1_000_000

// Pair 一个可行的（员工, 班次）候选对
type Pair struct {
	Worker int // workers 下标
	Shift  int // shifts 下标

	Affinity int     // 适配度评分 [0,100]，求解期间视为常量系数
	Risk     float64 // 缺勤风险 [0,1]
	Blocked  bool    // 被不可用记录屏蔽
}

// Arena 稀疏候选对竞技场
// 只为可行对分配稠密下标，避免全叉积的稠密数组
type Arena struct {
	Pairs []Pair

	ByShift  [][]int // 班次下标 → 候选对下标列表
	ByWorker [][]int // 员工下标 → 候选对下标列表

	index map[[2]int]int // (员工下标, 班次下标) → 候选对下标
}

// BuildArena 构建候选对竞技场
// 可行性规则：角色模糊匹配 + 合同有效期覆盖班次日期
// workers×shifts 超过 maxProduct 时快速失败，绝不静默截断
func BuildArena(workers []*model.Worker, shifts []*model.ShiftRequirement, maxProduct int) (*Arena, error) {
	if maxProduct <= 0 {
		maxProduct = DefaultMaxPairProduct
	}
	if product := len(workers) * len(shifts); product > maxProduct {
		return nil, errors.CapacityExceeded(product, maxProduct)
	}

	a := &Arena{
		ByShift:  make([][]int, len(shifts)),
		ByWorker: make([][]int, len(workers)),
		index:    make(map[[2]int]int),
	}

	for si, s := range shifts {
		for wi, w := range workers {
			if !model.RolesCompatible(w.Role, s.Role) {
				continue
			}
			if !w.ActiveOn(s.Date) {
				continue
			}
			idx := len(a.Pairs)
			a.Pairs = append(a.Pairs, Pair{Worker: wi, Shift: si})
			a.ByShift[si] = append(a.ByShift[si], idx)
			a.ByWorker[wi] = append(a.ByWorker[wi], idx)
			a.index[[2]int{wi, si}] = idx
		}
	}

	return a, nil
}

// Lookup 按（员工, 班次）下标查找候选对
func (a *Arena) Lookup(worker, shift int) (int, bool) {
	idx, ok := a.index[[2]int{worker, shift}]
	return idx, ok
}

// EligibleCount 可行候选对总数（不含被屏蔽的对）
func (a *Arena) EligibleCount() int {
	n := 0
	for _, p := range a.Pairs {
		if !p.Blocked {
			n++
		}
	}
	return n
}
