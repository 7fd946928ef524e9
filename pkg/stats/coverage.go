// Package stats 提供排班结果的统计分析
package stats

import (
	"github.com/zhipai/zhipai/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalShifts     int     `json:"total_shifts"`
	AssignedShifts  int     `json:"assigned_shifts"`
	OverallCoverage float64 `json:"overall_coverage"` // 百分比

	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`
	RoleCoverage  map[string]float64     `json:"role_coverage"` // 按岗位覆盖率

	UncoveredShifts []UncoveredShift `json:"uncovered_shifts"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalShifts  int     `json:"total_shifts"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalMinutes int     `json:"total_minutes"`
}

// UncoveredShift 未指派班次
type UncoveredShift struct {
	ShiftID   string `json:"shift_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Role      string `json:"role,omitempty"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析一份排班结果的覆盖情况
// 结果集中每个班次恰好一条记录，未指派记录计入未覆盖
func (c *CoverageAnalyzer) Analyze(records []*model.ResultRecord) *CoverageMetrics {
	m := &CoverageMetrics{
		DailyCoverage: make(map[string]DayCoverage),
		RoleCoverage:  make(map[string]float64),
	}
	if len(records) == 0 {
		m.OverallCoverage = 100
		return m
	}

	roleTotals := make(map[string]int)
	roleAssigned := make(map[string]int)

	for _, r := range records {
		m.TotalShifts++

		day := m.DailyCoverage[r.Date]
		day.Date = r.Date
		day.TotalShifts++

		roleTotals[r.Role]++

		if r.IsUnassigned {
			m.UncoveredShifts = append(m.UncoveredShifts, UncoveredShift{
				ShiftID:   r.ShiftID,
				Date:      r.Date,
				StartTime: r.StartTime,
				EndTime:   r.EndTime,
				Role:      r.Role,
			})
		} else {
			m.AssignedShifts++
			day.Assigned++
			day.TotalMinutes += shiftMinutes(r)
			roleAssigned[r.Role]++
		}

		m.DailyCoverage[r.Date] = day
	}

	m.OverallCoverage = float64(m.AssignedShifts) / float64(m.TotalShifts) * 100

	for date, day := range m.DailyCoverage {
		if day.TotalShifts > 0 {
			day.CoverageRate = float64(day.Assigned) / float64(day.TotalShifts) * 100
		}
		m.DailyCoverage[date] = day
	}

	for role, total := range roleTotals {
		if total > 0 {
			m.RoleCoverage[role] = float64(roleAssigned[role]) / float64(total) * 100
		}
	}

	return m
}

// shiftMinutes 计算记录的工作分钟数，跨午夜按次日计
func shiftMinutes(r *model.ResultRecord) int {
	start, ok1 := model.MinutesOfDay(r.StartTime)
	end, ok2 := model.MinutesOfDay(r.EndTime)
	if !ok1 || !ok2 {
		return 0
	}
	if end <= start {
		end += 24 * 60
	}
	return end - start
}
