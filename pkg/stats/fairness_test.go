package stats

import (
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	workers := []*model.Worker{
		{ID: "w1", Name: "员工1"},
		{ID: "w2", Name: "员工2"},
	}

	records := []*model.ResultRecord{
		{ShiftID: "s1", EmployeeID: "w1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
		{ShiftID: "s2", EmployeeID: "w1", Date: "2026-01-13", StartTime: "08:00", EndTime: "16:00"},
		{ShiftID: "s3", EmployeeID: "w2", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
	}

	metrics := analyzer.Analyze(records, workers)

	if metrics == nil {
		t.Fatal("Metrics should not be nil")
	}

	// 员工1有16小时，员工2有8小时，应有一定差异
	if metrics.WorkloadGini <= 0 || metrics.WorkloadGini > 1 {
		t.Errorf("Gini coefficient should be in (0, 1], got %f", metrics.WorkloadGini)
	}

	if len(metrics.WorkerStats) != 2 {
		t.Errorf("Expected 2 worker stats, got %d", len(metrics.WorkerStats))
	}

	// 排序按工时降序，员工1在前
	if metrics.WorkerStats[0].WorkerID != "w1" {
		t.Errorf("Expected w1 first, got %s", metrics.WorkerStats[0].WorkerID)
	}
	if metrics.AvgHoursPerWorker != 12 {
		t.Errorf("Expected avg 12 hours, got %f", metrics.AvgHoursPerWorker)
	}
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	metrics := analyzer.Analyze(nil, nil)

	if metrics == nil {
		t.Fatal("Should return empty metrics for nil input")
	}
	if metrics.OverallScore != 100 {
		t.Errorf("Empty input should score 100, got %f", metrics.OverallScore)
	}
}

func TestFairnessAnalyzer_PerfectFairness(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	workers := []*model.Worker{
		{ID: "w1", Name: "员工1"},
		{ID: "w2", Name: "员工2"},
	}

	// 完全相同的工时分配
	records := []*model.ResultRecord{
		{ShiftID: "s1", EmployeeID: "w1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
		{ShiftID: "s2", EmployeeID: "w2", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
	}

	metrics := analyzer.Analyze(records, workers)

	if metrics.WorkloadGini > 0.01 {
		t.Errorf("Perfect fairness should have Gini near 0, got %f", metrics.WorkloadGini)
	}
}

func TestFairnessAnalyzer_IdleWorkerCounted(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	// 员工3没有任何班次，基尼系数必须反映闲置
	workers := []*model.Worker{
		{ID: "w1", Name: "员工1"},
		{ID: "w2", Name: "员工2"},
		{ID: "w3", Name: "员工3"},
	}

	records := []*model.ResultRecord{
		{ShiftID: "s1", EmployeeID: "w1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
		{ShiftID: "s2", EmployeeID: "w2", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
	}

	metrics := analyzer.Analyze(records, workers)

	if len(metrics.WorkerStats) != 3 {
		t.Fatalf("Expected 3 worker stats, got %d", len(metrics.WorkerStats))
	}
	if metrics.MinHours != 0 {
		t.Errorf("Idle worker should have 0 hours, got min %f", metrics.MinHours)
	}
	if metrics.WorkloadGini <= 0 {
		t.Errorf("Idle worker should raise Gini above 0, got %f", metrics.WorkloadGini)
	}
}

func TestFairnessAnalyzer_UnassignedIgnored(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	workers := []*model.Worker{{ID: "w1", Name: "员工1"}}

	records := []*model.ResultRecord{
		{ShiftID: "s1", EmployeeID: "w1", Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
		{ShiftID: "s2", EmployeeID: model.UnassignedEmployeeID, IsUnassigned: true, Date: "2026-01-12", StartTime: "08:00", EndTime: "16:00"},
	}

	metrics := analyzer.Analyze(records, workers)

	if len(metrics.WorkerStats) != 1 {
		t.Fatalf("Unassigned records must not create worker stats, got %d", len(metrics.WorkerStats))
	}
	if metrics.WorkerStats[0].TotalHours != 8 {
		t.Errorf("Expected 8 hours, got %f", metrics.WorkerStats[0].TotalHours)
	}
}

func TestFairnessAnalyzer_OverallScoreBounds(t *testing.T) {
	analyzer := NewFairnessAnalyzer()

	workers := []*model.Worker{{ID: "w1", Name: "员工1"}}
	records := []*model.ResultRecord{
		{ShiftID: "s1", EmployeeID: "w1", Date: "2026-01-10", StartTime: "08:00", EndTime: "16:00"}, // 周六
	}

	metrics := analyzer.Analyze(records, workers)

	if metrics.OverallScore < 0 || metrics.OverallScore > 100 {
		t.Errorf("Score should be 0-100, got %f", metrics.OverallScore)
	}
	if metrics.WorkerStats[0].WeekendShifts != 1 {
		t.Errorf("2026-01-10 is Saturday, expected 1 weekend shift, got %d", metrics.WorkerStats[0].WeekendShifts)
	}
}
