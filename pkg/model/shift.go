// Package model 定义排班分配引擎的核心数据模型
package model

// ShiftRequirement 班次需求
// 由调用方直接提供，或由需求预测转换生成；一次求解周期内不可变
type ShiftRequirement struct {
	ID         string `json:"id"`
	Date       string `json:"date"`       // YYYY-MM-DD
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
	Role       string `json:"role"`
	ActivityID string `json:"activity_id,omitempty"`
	Project    string `json:"project,omitempty"`

	RequiresVehicle bool `json:"requires_vehicle,omitempty"`
}

// StartMinutes 返回开始时刻的当日分钟数
func (s *ShiftRequirement) StartMinutes() int {
	m, _ := MinutesOfDay(s.StartTime)
	return m
}

// EndMinutes 返回结束时刻的当日分钟数
// 跨午夜班次（end <= start）按次日计算
func (s *ShiftRequirement) EndMinutes() int {
	start, _ := MinutesOfDay(s.StartTime)
	end, ok := MinutesOfDay(s.EndTime)
	if !ok {
		return start
	}
	if end <= start {
		end += 24 * 60
	}
	return end
}

// DurationMinutes 返回班次时长（分钟）
func (s *ShiftRequirement) DurationMinutes() int {
	return s.EndMinutes() - s.StartMinutes()
}

// Overlaps 判断同一天的两个班次时间区间 [start,end) 是否重叠
func (s *ShiftRequirement) Overlaps(other *ShiftRequirement) bool {
	if s.Date != other.Date {
		return false
	}
	return s.StartMinutes() < other.EndMinutes() && other.StartMinutes() < s.EndMinutes()
}

// GapMinutes 返回同一天两个班次间的间隔分钟数（重叠时为负）
func (s *ShiftRequirement) GapMinutes(other *ShiftRequirement) int {
	if s.EndMinutes() <= other.StartMinutes() {
		return other.StartMinutes() - s.EndMinutes()
	}
	if other.EndMinutes() <= s.StartMinutes() {
		return s.StartMinutes() - other.EndMinutes()
	}
	return -1
}

// Activity 活动/项目
// 仅为需求预测生成班次时的关联引用
type Activity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RoleRequired string `json:"role_required,omitempty"`
	Project      string `json:"project,omitempty"`
}

// ResultRecord 排班结果记录
// 每个输入班次恰好产生一条记录：指派给唯一员工，或标记未指派
type ResultRecord struct {
	ShiftID      string  `json:"shift_id"`
	Date         string  `json:"date"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Role         string  `json:"role"`
	ActivityID   string  `json:"activity_id,omitempty"`
	Project      string  `json:"project,omitempty"`
	Affinity     float64 `json:"affinity"`
	AbsenceRisk  float64 `json:"absence_risk"`
	IsUnassigned bool    `json:"is_unassigned"`
}

// UnassignedEmployeeID 未指派记录的员工ID占位值
const UnassignedEmployeeID = "unassigned"

// DemandBlock 需求预测输出的单日活动需求块
type DemandBlock struct {
	Date             string  `json:"date"`
	ActivityID       string  `json:"activity_id"`
	PredictedHours   float64 `json:"predicted_hours"`
	TypicalStartHour float64 `json:"typical_start_hour"`
	TypicalDuration  float64 `json:"typical_duration"`
}
