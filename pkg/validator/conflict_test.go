package validator

import (
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func hasViolation(vs []Violation, typ ViolationType) bool {
	for _, v := range vs {
		if v.Type == typ {
			return true
		}
	}
	return false
}

func TestResultValidator_CleanSchedule(t *testing.T) {
	v := NewResultValidator()

	workers := []*model.Worker{{ID: "w1", Name: "员工1", Role: "护士"}}
	shifts := []*model.ShiftRequirement{
		{ID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", Role: "护士"},
		{ID: "s2", Date: "2026-01-13", StartTime: "08:00", EndTime: "16:00", Role: "护士"},
	}
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", Role: "护士", EmployeeID: "w1"},
		{ShiftID: "s2", Date: "2026-01-13", StartTime: "08:00", EndTime: "16:00", Role: "护士", EmployeeID: "w1"},
	}

	violations := v.Validate(records, shifts, workers, nil)

	if len(violations) != 0 {
		t.Errorf("Expected clean schedule, got %+v", violations)
	}
}

func TestResultValidator_Totality(t *testing.T) {
	v := NewResultValidator()

	shifts := []*model.ShiftRequirement{
		{ID: "s1", Date: "2026-01-12"},
		{ID: "s2", Date: "2026-01-12"},
	}
	// s1 重复，s2 缺失
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", IsUnassigned: true},
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", IsUnassigned: true},
	}

	violations := v.Validate(records, shifts, nil, nil)

	count := 0
	for _, vio := range violations {
		if vio.Type == ViolationTotality {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 totality violations, got %d: %+v", count, violations)
	}
}

func TestResultValidator_DoubleBooking(t *testing.T) {
	v := NewResultValidator()

	workers := []*model.Worker{{ID: "w1", Name: "员工1"}}
	shifts := []*model.ShiftRequirement{
		{ID: "s1", Date: "2026-01-12"},
		{ID: "s2", Date: "2026-01-12"},
	}
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", EmployeeID: "w1"},
		{ShiftID: "s2", Date: "2026-01-12", StartTime: "14:00", EndTime: "22:00", EmployeeID: "w1"},
	}

	violations := v.Validate(records, shifts, workers, nil)

	if !hasViolation(violations, ViolationDoubleBook) {
		t.Errorf("Expected double booking violation, got %+v", violations)
	}
}

func TestResultValidator_RestViolation(t *testing.T) {
	v := NewResultValidator()

	workers := []*model.Worker{{ID: "w1", Name: "员工1"}}
	shifts := []*model.ShiftRequirement{
		{ID: "s1", Date: "2026-01-12"},
		{ID: "s2", Date: "2026-01-13"},
	}
	// 22:00 结束到次日 06:00 开始仅休息 480 分钟，默认档案要求 660 分钟
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "14:00", EndTime: "22:00", EmployeeID: "w1"},
		{ShiftID: "s2", Date: "2026-01-13", StartTime: "06:00", EndTime: "14:00", EmployeeID: "w1"},
	}

	violations := v.Validate(records, shifts, workers, nil)

	if !hasViolation(violations, ViolationRestTime) {
		t.Errorf("Expected rest violation, got %+v", violations)
	}
}

func TestResultValidator_WeeklyCap(t *testing.T) {
	v := NewResultValidator()

	workers := []*model.Worker{{ID: "w1", Name: "员工1"}}
	profiles := []*model.LaborProfile{{ID: "p1", MaxWeeklyHours: 20, MinRestHours: 11}}

	// 同一ISO周内三个8小时班，共24小时，超出20小时上限
	shifts := []*model.ShiftRequirement{
		{ID: "s1", Date: "2026-01-12"},
		{ID: "s2", Date: "2026-01-14"},
		{ID: "s3", Date: "2026-01-16"},
	}
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", EmployeeID: "w1"},
		{ShiftID: "s2", Date: "2026-01-14", StartTime: "08:00", EndTime: "16:00", EmployeeID: "w1"},
		{ShiftID: "s3", Date: "2026-01-16", StartTime: "08:00", EndTime: "16:00", EmployeeID: "w1"},
	}

	violations := v.Validate(records, shifts, workers, profiles)

	if !hasViolation(violations, ViolationWeeklyCap) {
		t.Errorf("Expected weekly cap violation, got %+v", violations)
	}
}

func TestResultValidator_RoleAndContract(t *testing.T) {
	v := NewResultValidator()

	workers := []*model.Worker{
		{ID: "w1", Name: "员工1", Role: "司机", DismissedDate: "2026-01-01"},
	}
	shifts := []*model.ShiftRequirement{{ID: "s1", Date: "2026-01-12"}}
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", Role: "护士", EmployeeID: "w1"},
	}

	violations := v.Validate(records, shifts, workers, nil)

	if !hasViolation(violations, ViolationRole) {
		t.Errorf("Expected role violation, got %+v", violations)
	}
	if !hasViolation(violations, ViolationContract) {
		t.Errorf("Expected contract violation, got %+v", violations)
	}
}

func TestResultValidator_UnknownEmployee(t *testing.T) {
	v := NewResultValidator()

	shifts := []*model.ShiftRequirement{{ID: "s1", Date: "2026-01-12"}}
	records := []*model.ResultRecord{
		{ShiftID: "s1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00", EmployeeID: "ghost"},
	}

	violations := v.Validate(records, shifts, nil, nil)

	if !hasViolation(violations, ViolationUnknownID) {
		t.Errorf("Expected unknown employee violation, got %+v", violations)
	}
}
