// Package constraints 提供内置劳动规则档案库
package constraints

import (
	"context"
	"sync"

	"github.com/zhipai/zhipai/pkg/model"
)

// PresetLibrary 返回内置档案清单
// 数据库缺席的部署用它代替档案表；ID稳定，可在请求中直接引用
func PresetLibrary() []*model.LaborProfile {
	return []*model.LaborProfile{
		{
			ID:                 "standard",
			Name:               "标准全职",
			MaxWeeklyHours:     40,
			MaxDailyHours:      10,
			MaxConsecutiveDays: 6,
			MinRestHours:       11,
			IsDefault:          true,
		},
		{
			ID:                 "part-time",
			Name:               "非全日制",
			MaxWeeklyHours:     24,
			MaxDailyHours:      8,
			MaxConsecutiveDays: 5,
			MinRestHours:       11,
		},
		{
			ID:                 "night-care",
			Name:               "夜间护理",
			MaxWeeklyHours:     36,
			MaxDailyHours:      12,
			MaxConsecutiveDays: 4,
			MinRestHours:       12,
		},
		{
			ID:                 "on-call",
			Name:               "随叫随到",
			MaxWeeklyHours:     48,
			MaxDailyHours:      12,
			MaxConsecutiveDays: 6,
			MinRestHours:       9,
		},
	}
}

// MemoryProfiles 内存档案解析器
// 先查租户注册的档案，再查内置库，最后落到默认档案
type MemoryProfiles struct {
	mu      sync.RWMutex
	byID    map[string]*model.LaborProfile
	presets map[string]*model.LaborProfile
}

// NewMemoryProfiles 创建内存档案解析器，内置库预先装载
func NewMemoryProfiles() *MemoryProfiles {
	presets := make(map[string]*model.LaborProfile)
	for _, p := range PresetLibrary() {
		presets[p.ID] = p
	}
	return &MemoryProfiles{
		byID:    make(map[string]*model.LaborProfile),
		presets: presets,
	}
}

// Register 注册租户自定义档案，与内置库同ID时覆盖
func (m *MemoryProfiles) Register(p *model.LaborProfile) {
	if p == nil || p.ID == "" {
		return
	}
	m.mu.Lock()
	m.byID[p.ID] = p
	m.mu.Unlock()
}

// Resolve 按员工列表解析档案，与输入切片对齐
func (m *MemoryProfiles) Resolve(ctx context.Context, environment string, workers []*model.Worker) ([]*model.LaborProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.LaborProfile, len(workers))
	for i, w := range workers {
		out[i] = m.lookup(w.LaborProfileID)
	}
	return out, nil
}

func (m *MemoryProfiles) lookup(id string) *model.LaborProfile {
	if id != "" {
		if p, ok := m.byID[id]; ok {
			return p
		}
		if p, ok := m.presets[id]; ok {
			return p
		}
	}
	return model.DefaultLaborProfile()
}
