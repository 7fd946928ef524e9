package constraints

import (
	"context"
	"testing"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestPresetLibrary(t *testing.T) {
	presets := PresetLibrary()
	if len(presets) != 4 {
		t.Fatalf("Expected 4 presets, got %d", len(presets))
	}

	defaults := 0
	seen := make(map[string]bool)
	for _, p := range presets {
		if seen[p.ID] {
			t.Errorf("Duplicate preset ID %s", p.ID)
		}
		seen[p.ID] = true
		if p.IsDefault {
			defaults++
		}
		if p.MaxWeeklyHours <= 0 || p.MinRestHours <= 0 {
			t.Errorf("Preset %s has degenerate limits", p.ID)
		}
	}
	if defaults != 1 {
		t.Errorf("Exactly one preset should be default, got %d", defaults)
	}
}

func TestMemoryProfiles_Resolve(t *testing.T) {
	m := NewMemoryProfiles()
	m.Register(&model.LaborProfile{ID: "custom", Name: "定制", MaxWeeklyHours: 30, MinRestHours: 10})

	workers := []*model.Worker{
		{ID: "w1", LaborProfileID: "custom"},
		{ID: "w2", LaborProfileID: "night-care"},
		{ID: "w3", LaborProfileID: "missing"},
		{ID: "w4"},
	}

	profiles, err := m.Resolve(context.Background(), "clinic-nord", workers)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(profiles) != len(workers) {
		t.Fatalf("Profiles must align with workers, got %d", len(profiles))
	}

	if profiles[0].ID != "custom" {
		t.Errorf("Expected custom profile, got %s", profiles[0].ID)
	}
	if profiles[1].ID != "night-care" {
		t.Errorf("Expected preset, got %s", profiles[1].ID)
	}
	if profiles[2].ID != "default" || profiles[3].ID != "default" {
		t.Errorf("Unknown/empty IDs should fall to default, got %s/%s", profiles[2].ID, profiles[3].ID)
	}
}

func TestMemoryProfiles_RegisterOverridesPreset(t *testing.T) {
	m := NewMemoryProfiles()
	m.Register(&model.LaborProfile{ID: "standard", Name: "定制标准", MaxWeeklyHours: 35, MinRestHours: 11})

	profiles, _ := m.Resolve(context.Background(), "clinic-nord", []*model.Worker{
		{ID: "w1", LaborProfileID: "standard"},
	})
	if profiles[0].Name != "定制标准" {
		t.Errorf("Registered profile should shadow the preset, got %s", profiles[0].Name)
	}
}
