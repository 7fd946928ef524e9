// Package model 定义排班分配引擎的核心数据模型
package model

import "strings"

// Worker 员工
// 一次求解周期内视为不可变
type Worker struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`

	// 合同有效期 [hired, dismissed]，dismissed 为空表示在职
	HiredDate     string `json:"hired_date,omitempty"`
	DismissedDate string `json:"dismissed_date,omitempty"`

	// 历史亲和度输入
	Address          string   `json:"address,omitempty"`
	BornDate         string   `json:"born_date,omitempty"`
	ProjectIDs       []string `json:"project_ids,omitempty"`
	CustomerKeywords []string `json:"customer_keywords,omitempty"`
	HasVehicle       bool     `json:"has_vehicle,omitempty"`

	// 劳动规则档案引用，为空时使用租户默认档案
	LaborProfileID string `json:"labor_profile_id,omitempty"`
}

// DisplayName 返回用于输出和匹配的姓名
func (w *Worker) DisplayName() string {
	if w.FullName != "" {
		return w.FullName
	}
	return w.Name
}

// NormalizedName 返回归一化姓名（用于无ID数据源的请假匹配）
func (w *Worker) NormalizedName() string {
	return strings.ToUpper(strings.TrimSpace(w.DisplayName()))
}

// ActiveOn 判断员工在指定日期是否处于合同有效期内
func (w *Worker) ActiveOn(date string) bool {
	d, ok := ParseDate(date)
	if !ok {
		return false
	}
	if w.HiredDate != "" {
		if hired, ok := ParseDate(w.HiredDate); ok && d.Before(hired) {
			return false
		}
	}
	if w.DismissedDate != "" {
		if dismissed, ok := ParseDate(w.DismissedDate); ok && d.After(dismissed) {
			return false
		}
	}
	return true
}

// HasProject 判断员工历史项目中是否包含指定项目
func (w *Worker) HasProject(projectID string) bool {
	if projectID == "" {
		return false
	}
	for _, p := range w.ProjectIDs {
		if p == projectID {
			return true
		}
	}
	return false
}

// Unavailability 请假/不可用记录
// 无时间窗表示全天不可用
type Unavailability struct {
	WorkerID   string `json:"employee_id"`
	WorkerName string `json:"employee_name,omitempty"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// AllDay 判断是否全天不可用
func (u *Unavailability) AllDay() bool {
	return u.StartTime == "" || u.EndTime == ""
}

// Matches 判断记录是否命中指定员工
// 数据源的标识符不一致：优先按ID匹配，其次按归一化全名匹配
func (u *Unavailability) Matches(w *Worker) bool {
	if u.WorkerID != "" && u.WorkerID == w.ID {
		return true
	}
	name := strings.ToUpper(strings.TrimSpace(u.WorkerName))
	return name != "" && name == w.NormalizedName()
}

// LaborProfile 劳动规则档案
// 按员工或按租户限定周工时、日工时、连续天数与最小休息
type LaborProfile struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	MaxWeeklyHours     float64 `json:"max_weekly_hours"`
	MaxDailyHours      float64 `json:"max_daily_hours"`
	MaxConsecutiveDays int     `json:"max_consecutive_days"`
	MinRestHours       float64 `json:"min_rest_hours"`
	IsDefault          bool    `json:"is_default"`
}

// DefaultLaborProfile 返回租户默认档案
func DefaultLaborProfile() *LaborProfile {
	return &LaborProfile{
		ID:                 "default",
		Name:               "默认档案",
		MaxWeeklyHours:     40,
		MaxDailyHours:      8,
		MaxConsecutiveDays: 6,
		MinRestHours:       11,
		IsDefault:          true,
	}
}

// MinRestMinutes 返回班次间最小休息分钟数
func (p *LaborProfile) MinRestMinutes() int {
	if p.MinRestHours <= 0 {
		return 660
	}
	return int(p.MinRestHours * 60)
}

// MaxWeeklyMinutes 返回周最大工作分钟数
func (p *LaborProfile) MaxWeeklyMinutes() int {
	if p.MaxWeeklyHours <= 0 {
		return 40 * 60
	}
	return int(p.MaxWeeklyHours * 60)
}
