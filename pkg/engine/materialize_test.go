package engine

import (
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestMaterialize_InputOrderAndTotality(t *testing.T) {
	workers := []*model.Worker{
		{ID: "w1", Name: "w1", FullName: "李娜", Role: "护士"},
	}
	shifts := []*model.ShiftRequirement{
		testShift("s2", "2026-01-13", "08:00", "16:00", "护士"),
		testShift("s1", "2026-01-12", "08:00", "16:00", "护士"),
		testShift("s3", "2026-01-14", "08:00", "16:00", "护士"),
	}
	p := buildTestProblem(t, workers, shifts, nil, nil)

	p1, _ := p.Arena.Lookup(0, 1)
	p.Arena.Pairs[p1].Affinity = 73
	p.Arena.Pairs[p1].Risk = 0.2

	sol := &Solution{
		Choice:   []int{-1, p1, -1},
		Assigned: make([]bool, len(p.Arena.Pairs)),
	}
	sol.Assigned[p1] = true

	records := Materialize(p, sol)

	if len(records) != len(shifts) {
		t.Fatalf("Every input shift needs exactly one record, got %d", len(records))
	}
	for i, rec := range records {
		if rec.ShiftID != shifts[i].ID {
			t.Errorf("Record %d out of input order: %s", i, rec.ShiftID)
		}
	}

	if !records[0].IsUnassigned || records[0].EmployeeID != model.UnassignedEmployeeID {
		t.Error("Unassigned shift should carry the placeholder employee ID")
	}

	rec := records[1]
	if rec.IsUnassigned {
		t.Fatal("Assigned shift marked unassigned")
	}
	if rec.EmployeeID != "w1" || rec.EmployeeName != "李娜" {
		t.Errorf("Expected w1/李娜, got %s/%s", rec.EmployeeID, rec.EmployeeName)
	}
	if rec.Affinity != 0.73 {
		t.Errorf("Expected affinity 0.73, got %f", rec.Affinity)
	}
	if rec.AbsenceRisk != 0.2 {
		t.Errorf("Expected risk 0.2, got %f", rec.AbsenceRisk)
	}
	if rec.Date != "2026-01-12" || rec.StartTime != "08:00" || rec.EndTime != "16:00" {
		t.Error("Shift geometry should pass through unchanged")
	}
}

func TestMaterialize_EmptyProblem(t *testing.T) {
	p := buildTestProblem(t, nil, nil, nil, nil)
	records := Materialize(p, &Solution{})
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}
