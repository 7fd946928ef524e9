// Package tenant 提供租户环境隔离
package tenant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrEnvironmentNotFound = errors.New("租户环境不存在")
	ErrInvalidEnvironment  = errors.New("无效的租户环境")
	ErrEnvironmentDisabled = errors.New("租户环境已禁用")
)

// Environment 租户环境
// 每个环境拥有独立的求解任务、档案与模型权重
type Environment struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // active/suspended
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// Settings 环境级限额
type Settings struct {
	MaxWorkers   int `json:"max_workers"`    // 单次请求最大员工数
	MaxShifts    int `json:"max_shifts"`     // 单次请求最大班次数
	APIRateLimit int `json:"api_rate_limit"` // 每分钟请求上限
}

// IsActive 检查环境是否可用
func (e *Environment) IsActive() bool {
	if e.Status != "active" {
		return false
	}
	if e.ExpiredAt != nil && e.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// Manager 环境注册表
type Manager struct {
	envs map[string]*Environment
	mu   sync.RWMutex

	// open 为真时未注册的环境按默认限额放行
	open bool
}

// NewManager 创建环境注册表
// open 模式用于未显式配置租户清单的部署
func NewManager(open bool) *Manager {
	return &Manager{
		envs: make(map[string]*Environment),
		open: open,
	}
}

// Register 注册环境
func (m *Manager) Register(env *Environment) error {
	if env == nil || env.Code == "" {
		return ErrInvalidEnvironment
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.envs[env.Code] = env
	return nil
}

// Get 按编码获取环境
func (m *Manager) Get(code string) (*Environment, error) {
	m.mu.RLock()
	env, exists := m.envs[code]
	m.mu.RUnlock()

	if !exists {
		if m.open && code != "" {
			return defaultEnvironment(code), nil
		}
		return nil, ErrEnvironmentNotFound
	}
	if !env.IsActive() {
		return nil, ErrEnvironmentDisabled
	}
	return env, nil
}

// List 列出已注册环境
func (m *Manager) List() []*Environment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Environment, 0, len(m.envs))
	for _, e := range m.envs {
		result = append(result, e)
	}
	return result
}

// Remove 移除环境
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.envs, code)
}

// LoadFromSpec 从逗号分隔的配置加载环境清单
// 形如 "clinic-nord,clinic-sud"，空串不注册任何环境
func (m *Manager) LoadFromSpec(spec string) int {
	n := 0
	for _, code := range strings.Split(spec, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if err := m.Register(defaultEnvironment(code)); err == nil {
			n++
		}
	}
	return n
}

type envContextKey struct{}

// WithEnvironment 将环境写入上下文
func WithEnvironment(ctx context.Context, env *Environment) context.Context {
	return context.WithValue(ctx, envContextKey{}, env)
}

// FromContext 从上下文读取环境
func FromContext(ctx context.Context) (*Environment, bool) {
	env, ok := ctx.Value(envContextKey{}).(*Environment)
	return env, ok
}

// DefaultSettings 默认环境限额
func DefaultSettings() Settings {
	return Settings{
		MaxWorkers:   2000,
		MaxShifts:    5000,
		APIRateLimit: 100,
	}
}

func defaultEnvironment(code string) *Environment {
	return &Environment{
		Code:      code,
		Name:      code,
		Status:    "active",
		Settings:  DefaultSettings(),
		CreatedAt: time.Now(),
	}
}
