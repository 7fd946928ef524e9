// Package validator 提供排班结果的合法性校验
package validator

import (
	"fmt"
	"sort"

	"github.com/zhipai/zhipai/pkg/model"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationTotality    ViolationType = "totality"     // 班次与结果记录不一一对应
	ViolationDoubleBook  ViolationType = "double_book"  // 同一员工时间重叠
	ViolationRestTime    ViolationType = "rest_time"    // 跨日休息不足
	ViolationWeeklyCap   ViolationType = "weekly_cap"   // 超过周工时上限
	ViolationRole        ViolationType = "role"         // 岗位不匹配
	ViolationContract    ViolationType = "contract"     // 合同期外指派
	ViolationUnknownID   ViolationType = "unknown_id"   // 指派了未知员工
)

// Violation 违规信息
type Violation struct {
	Type       ViolationType `json:"type"`
	EmployeeID string        `json:"employee_id,omitempty"`
	Date       string        `json:"date,omitempty"`
	ShiftIDs   []string      `json:"shift_ids,omitempty"`
	Message    string        `json:"message"`
}

// ResultValidator 结果校验器
// 对求解器输出做独立复核：每条性质违反都产出一条违规记录
type ResultValidator struct{}

// NewResultValidator 创建结果校验器
func NewResultValidator() *ResultValidator {
	return &ResultValidator{}
}

// Validate 校验一份排班结果
// profiles 与 workers 对齐，nil 时全员使用租户默认档案
func (v *ResultValidator) Validate(
	records []*model.ResultRecord,
	shifts []*model.ShiftRequirement,
	workers []*model.Worker,
	profiles []*model.LaborProfile,
) []Violation {
	var out []Violation

	out = append(out, v.checkTotality(records, shifts)...)

	workerIdx := make(map[string]int, len(workers))
	for i, w := range workers {
		workerIdx[w.ID] = i
	}

	byWorker := make(map[string][]*model.ResultRecord)
	for _, r := range records {
		if r.IsUnassigned {
			continue
		}
		if _, ok := workerIdx[r.EmployeeID]; !ok {
			out = append(out, Violation{
				Type:       ViolationUnknownID,
				EmployeeID: r.EmployeeID,
				Date:       r.Date,
				ShiftIDs:   []string{r.ShiftID},
				Message:    fmt.Sprintf("结果引用了未知员工 %s", r.EmployeeID),
			})
			continue
		}
		byWorker[r.EmployeeID] = append(byWorker[r.EmployeeID], r)

		w := workers[workerIdx[r.EmployeeID]]
		out = append(out, v.checkEligibility(r, w)...)
	}

	for id, recs := range byWorker {
		profile := model.DefaultLaborProfile()
		if i := workerIdx[id]; profiles != nil && i < len(profiles) && profiles[i] != nil {
			profile = profiles[i]
		}
		out = append(out, v.checkOverlaps(id, recs)...)
		out = append(out, v.checkRest(id, recs, profile)...)
		out = append(out, v.checkWeeklyCap(id, recs, profile)...)
	}

	return out
}

// checkTotality 每个输入班次必须恰好对应一条结果记录
func (v *ResultValidator) checkTotality(records []*model.ResultRecord, shifts []*model.ShiftRequirement) []Violation {
	var out []Violation

	seen := make(map[string]int, len(records))
	for _, r := range records {
		seen[r.ShiftID]++
	}

	for _, s := range shifts {
		switch n := seen[s.ID]; {
		case n == 0:
			out = append(out, Violation{
				Type:     ViolationTotality,
				Date:     s.Date,
				ShiftIDs: []string{s.ID},
				Message:  fmt.Sprintf("班次 %s 没有结果记录", s.ID),
			})
		case n > 1:
			out = append(out, Violation{
				Type:     ViolationTotality,
				Date:     s.Date,
				ShiftIDs: []string{s.ID},
				Message:  fmt.Sprintf("班次 %s 出现 %d 条结果记录", s.ID, n),
			})
		}
	}

	return out
}

// checkEligibility 岗位匹配与合同有效期
func (v *ResultValidator) checkEligibility(r *model.ResultRecord, w *model.Worker) []Violation {
	var out []Violation

	if !model.RolesCompatible(w.Role, r.Role) {
		out = append(out, Violation{
			Type:       ViolationRole,
			EmployeeID: w.ID,
			Date:       r.Date,
			ShiftIDs:   []string{r.ShiftID},
			Message:    fmt.Sprintf("员工岗位 %q 与班次岗位 %q 不匹配", w.Role, r.Role),
		})
	}
	if !w.ActiveOn(r.Date) {
		out = append(out, Violation{
			Type:       ViolationContract,
			EmployeeID: w.ID,
			Date:       r.Date,
			ShiftIDs:   []string{r.ShiftID},
			Message:    fmt.Sprintf("员工 %s 在 %s 不在合同期内", w.DisplayName(), r.Date),
		})
	}

	return out
}

// checkOverlaps 同一员工同日时间重叠
func (v *ResultValidator) checkOverlaps(id string, recs []*model.ResultRecord) []Violation {
	var out []Violation

	sorted := sortByAbsStart(recs)
	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if absEnd(a) > absStart(b) {
			out = append(out, Violation{
				Type:       ViolationDoubleBook,
				EmployeeID: id,
				Date:       a.Date,
				ShiftIDs:   []string{a.ShiftID, b.ShiftID},
				Message:    fmt.Sprintf("员工 %s 存在时间重叠的班次", id),
			})
		}
	}

	return out
}

// checkRest 跨日班次间隔不得低于档案的最小休息时间
func (v *ResultValidator) checkRest(id string, recs []*model.ResultRecord, profile *model.LaborProfile) []Violation {
	var out []Violation
	minRest := profile.MinRestMinutes()

	sorted := sortByAbsStart(recs)
	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if a.Date == b.Date {
			continue
		}
		gap := absStart(b) - absEnd(a)
		if gap >= 0 && gap < minRest {
			out = append(out, Violation{
				Type:       ViolationRestTime,
				EmployeeID: id,
				Date:       b.Date,
				ShiftIDs:   []string{a.ShiftID, b.ShiftID},
				Message:    fmt.Sprintf("班次间休息 %d 分钟，低于要求的 %d 分钟", gap, minRest),
			})
		}
	}

	return out
}

// checkWeeklyCap 按ISO周统计工时
func (v *ResultValidator) checkWeeklyCap(id string, recs []*model.ResultRecord, profile *model.LaborProfile) []Violation {
	var out []Violation
	capMin := profile.MaxWeeklyMinutes()

	weekly := make(map[string]int)
	for _, r := range recs {
		week, ok := model.ISOWeek(r.Date)
		if !ok {
			continue
		}
		weekly[week] += recMinutes(r)
	}

	weeks := make([]string, 0, len(weekly))
	for w := range weekly {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	for _, week := range weeks {
		if weekly[week] > capMin {
			out = append(out, Violation{
				Type:       ViolationWeeklyCap,
				EmployeeID: id,
				Message:    fmt.Sprintf("员工 %s 在 %s 周工作 %d 分钟，超过上限 %d 分钟", id, week, weekly[week], capMin),
			})
		}
	}

	return out
}

// absStart 记录的绝对开始分钟（纪元日×1440 + 当日分钟）
func absStart(r *model.ResultRecord) int {
	t, ok := model.ParseDate(r.Date)
	if !ok {
		return 0
	}
	m, _ := model.MinutesOfDay(r.StartTime)
	return int(t.Unix()/86400)*24*60 + m
}

func absEnd(r *model.ResultRecord) int {
	return absStart(r) + recMinutes(r)
}

// recMinutes 记录时长，跨午夜按次日计
func recMinutes(r *model.ResultRecord) int {
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

func sortByAbsStart(recs []*model.ResultRecord) []*model.ResultRecord {
	sorted := make([]*model.ResultRecord, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool {
		return absStart(sorted[i]) < absStart(sorted[j])
	})
	return sorted
}
