package demand

import (
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestChunkHours(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		typical float64
		want    []float64
	}{
		{"整除典型时长", 16, 8, []float64{8, 8}},
		{"尾量并入前块", 9, 8, []float64{9}},
		{"尾量超上限无法并入", 13, 12, []float64{12, 2}},
		{"尾量不小于最小时长单独成块", 11, 8, []float64{8, 3}},
		{"典型时长低于下限提升", 5, 1, []float64{2, 3}}, // 最后1小时尾量并入前块
		{"典型时长超上限压缩", 24, 20, []float64{12, 12}},
		{"零需求", 0, 8, nil},
		{"负需求", -3, 8, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertChunks(t, chunkHours(tt.total, tt.typical), tt.want)
		})
	}
}

func assertChunks(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

func TestHoursToClock(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{8, "08:00"},
		{8.5, "08:30"},
		{0, "00:00"},
		{23.75, "23:45"},
		{25, "01:00"}, // 回绕到次日
		{24, "00:00"},
	}

	for _, tt := range tests {
		if got := hoursToClock(tt.hours); got != tt.want {
			t.Errorf("hoursToClock(%v) = %s, want %s", tt.hours, got, tt.want)
		}
	}
}

func TestBlocksToShifts(t *testing.T) {
	blocks := []model.DemandBlock{
		{
			Date:             "2026-01-12",
			ActivityID:       "act-1",
			PredictedHours:   16,
			TypicalStartHour: 6,
			TypicalDuration:  8,
		},
	}
	activities := []*model.Activity{
		{ID: "act-1", Name: "病房护理", RoleRequired: "护士", Project: "proj-a"},
	}

	shifts := BlocksToShifts(blocks, activities)

	if len(shifts) != 2 {
		t.Fatalf("Expected 2 shifts, got %d", len(shifts))
	}

	s := shifts[0]
	if s.ID != "2026-01-12-act-1-0" {
		t.Errorf("Unexpected shift ID %s", s.ID)
	}
	if s.StartTime != "06:00" || s.EndTime != "14:00" {
		t.Errorf("First chunk should run 06:00-14:00, got %s-%s", s.StartTime, s.EndTime)
	}
	if s.Role != "护士" || s.Project != "proj-a" {
		t.Errorf("Role/project should come from the activity, got %s/%s", s.Role, s.Project)
	}

	if shifts[1].StartTime != "14:00" || shifts[1].EndTime != "22:00" {
		t.Errorf("Second chunk should follow the first, got %s-%s", shifts[1].StartTime, shifts[1].EndTime)
	}
}

func TestBlocksToShifts_Defaults(t *testing.T) {
	blocks := []model.DemandBlock{
		// 未知活动、非法起始时刻
		{Date: "2026-01-12", ActivityID: "missing", PredictedHours: 8, TypicalStartHour: -1, TypicalDuration: 8},
	}

	shifts := BlocksToShifts(blocks, nil)

	if len(shifts) != 1 {
		t.Fatalf("Expected 1 shift, got %d", len(shifts))
	}
	if shifts[0].StartTime != "08:00" {
		t.Errorf("Invalid start hour should default to 08:00, got %s", shifts[0].StartTime)
	}
	if shifts[0].Role != "" {
		t.Errorf("Unknown activity should leave role empty, got %s", shifts[0].Role)
	}
}
