package stats

import (
	"math"
	"sort"
	"time"

	"github.com/zhipai/zhipai/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	WorkloadGini      float64 `json:"workload_gini"` // 0=完全公平, 1=完全不公平
	WorkloadStdDev    float64 `json:"workload_std_dev"`
	AvgHoursPerWorker float64 `json:"avg_hours_per_worker"`
	MaxHours          float64 `json:"max_hours"`
	MinHours          float64 `json:"min_hours"`

	WeekendShiftGini float64 `json:"weekend_shift_gini"`

	WorkerStats []WorkerStat `json:"worker_stats"`

	// 综合公平性评分 (0-100)
	OverallScore float64 `json:"overall_score"`
}

// WorkerStat 员工级别统计
type WorkerStat struct {
	WorkerID      string  `json:"worker_id"`
	WorkerName    string  `json:"worker_name"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	WeekendShifts int     `json:"weekend_shifts"`
	Deviation     float64 `json:"deviation"` // 与平均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析排班结果的工时公平性
// 只统计已指派的记录；未出现在结果中的员工按零工时计入，
// 否则闲置员工会被基尼系数忽略
func (f *FairnessAnalyzer) Analyze(records []*model.ResultRecord, workers []*model.Worker) *FairnessMetrics {
	m := &FairnessMetrics{}
	if len(workers) == 0 {
		m.OverallScore = 100
		return m
	}

	statMap := make(map[string]*WorkerStat, len(workers))
	for _, w := range workers {
		statMap[w.ID] = &WorkerStat{WorkerID: w.ID, WorkerName: w.DisplayName()}
	}

	for _, r := range records {
		if r.IsUnassigned {
			continue
		}
		stat, ok := statMap[r.EmployeeID]
		if !ok {
			stat = &WorkerStat{WorkerID: r.EmployeeID, WorkerName: r.EmployeeName}
			statMap[r.EmployeeID] = stat
		}
		stat.TotalHours += float64(shiftMinutes(r)) / 60
		stat.ShiftCount++
		if isWeekend(r.Date) {
			stat.WeekendShifts++
		}
	}

	hours := make([]float64, 0, len(statMap))
	weekend := make([]float64, 0, len(statMap))
	for _, stat := range statMap {
		hours = append(hours, stat.TotalHours)
		weekend = append(weekend, float64(stat.WeekendShifts))
	}

	avg := mean(hours)
	stdDev := math.Sqrt(variance(hours, avg))
	maxH, minH := extrema(hours)

	m.WorkerStats = make([]WorkerStat, 0, len(statMap))
	for _, stat := range statMap {
		if avg > 0 {
			stat.Deviation = (stat.TotalHours - avg) / avg * 100
		}
		m.WorkerStats = append(m.WorkerStats, *stat)
	}
	sort.Slice(m.WorkerStats, func(i, j int) bool {
		return m.WorkerStats[i].TotalHours > m.WorkerStats[j].TotalHours
	})

	m.WorkloadGini = gini(hours)
	m.WeekendShiftGini = gini(weekend)
	m.WorkloadStdDev = stdDev
	m.AvgHoursPerWorker = avg
	m.MaxHours = maxH
	m.MinHours = minH
	m.OverallScore = overallScore(m.WorkloadGini, m.WeekendShiftGini, stdDev, avg)

	return m
}

func isWeekend(dateStr string) bool {
	date, ok := model.ParseDate(dateStr)
	if !ok {
		return false
	}
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func extrema(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数，全零取值视为完全公平
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 综合公平性评分
func overallScore(workloadGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.6
		weekendWeight  = 0.25
		cvWeight       = 0.15
	)

	workloadScore := (1 - workloadGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore + weekendWeight*weekendScore + cvWeight*cvScore
	return math.Max(0, math.Min(100, score))
}
