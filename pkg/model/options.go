// Package model 定义排班分配引擎的核心数据模型
package model

// 目标函数调优参数的默认值与下限
// 下限是经验值：过低的取值会产生退化（空排班或极不公平）的方案
const (
	DefaultAffinityWeight     = 1.0
	MinPenaltyUnassigned      = 500
	DefaultPenaltyAbsenceRisk = 200
	MinFairnessWeight         = 80.0
	DefaultMaxWeeklyHours     = 40.0
)

// SolveOptions 单次求解的租户调优参数
type SolveOptions struct {
	AffinityWeight     float64 `json:"affinity_weight"`
	PenaltyUnassigned  int     `json:"penalty_unassigned"`
	PenaltyAbsenceRisk int     `json:"penalty_absence_risk"`
	FairnessWeight     float64 `json:"fairness_weight"`
	MaxWeeklyHours     float64 `json:"max_hours_weekly"`
}

// DefaultSolveOptions 返回默认调优参数
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		AffinityWeight:     DefaultAffinityWeight,
		PenaltyUnassigned:  MinPenaltyUnassigned,
		PenaltyAbsenceRisk: DefaultPenaltyAbsenceRisk,
		FairnessWeight:     MinFairnessWeight,
		MaxWeeklyHours:     DefaultMaxWeeklyHours,
	}
}

// ParseSolveOptions 从请求的 constraints 映射解析调优参数
// 未识别的键忽略；低于下限的取值提升到下限
func ParseSolveOptions(raw map[string]interface{}) SolveOptions {
	opts := DefaultSolveOptions()
	if raw == nil {
		return opts
	}

	if v, ok := toFloat(raw["affinity_weight"]); ok && v > 0 {
		opts.AffinityWeight = v
	}
	if v, ok := toFloat(raw["penalty_unassigned"]); ok {
		opts.PenaltyUnassigned = int(v)
	}
	if v, ok := toFloat(raw["penalty_absence_risk"]); ok && v >= 0 {
		opts.PenaltyAbsenceRisk = int(v)
	}
	if v, ok := toFloat(raw["fairness_weight"]); ok {
		opts.FairnessWeight = v
	}
	if v, ok := toFloat(raw["max_hours_weekly"]); ok && v > 0 {
		opts.MaxWeeklyHours = v
	}

	return opts.Clamped()
}

// Clamped 返回应用下限后的参数副本
func (o SolveOptions) Clamped() SolveOptions {
	if o.PenaltyUnassigned < MinPenaltyUnassigned {
		o.PenaltyUnassigned = MinPenaltyUnassigned
	}
	if o.FairnessWeight < MinFairnessWeight {
		o.FairnessWeight = MinFairnessWeight
	}
	if o.AffinityWeight <= 0 {
		o.AffinityWeight = DefaultAffinityWeight
	}
	if o.PenaltyAbsenceRisk < 0 {
		o.PenaltyAbsenceRisk = DefaultPenaltyAbsenceRisk
	}
	if o.MaxWeeklyHours <= 0 {
		o.MaxWeeklyHours = DefaultMaxWeeklyHours
	}
	return o
}

// toFloat 宽松的数值转换（JSON 解码后数值可能是 float64 或 int）
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
