package affinity

import (
	"context"
	"sync"
	"time"

	"github.com/zhipai/zhipai/pkg/logger"
)

// 启发式评分参数，经验调优值，勿随意调整
const (
	heuristicBase        = 0.5
	heuristicRoleBonus   = 0.3
	heuristicRoleMiss    = -0.4
	heuristicDistFactor  = 0.2
	heuristicProjBonus   = 0.1
	heuristicFloor       = 0.01
	heuristicCeil        = 0.99
	fusionHeuristicTrust = 0.7 // 启发式高于此值时取两者较大
	fusionNeuralTrust    = 0.9 // 网络高于此值时视为可信例外
)

// WeightsStore 权重加载接口
type WeightsStore interface {
	// LoadWeights 读取指定租户的权重JSON，无记录时返回 (nil, nil)
	LoadWeights(ctx context.Context, environment string) ([]byte, error)
}

// Model 适配度评分模型
// 权重通过构造注入并显式刷新，推理阶段只读共享
type Model struct {
	mu          sync.RWMutex
	net         *Network
	store       WeightsStore
	environment string
	lastRefresh time.Time
	interval    time.Duration

	scored    int64
	fallbacks int64
}

// NewModel 创建评分模型；store 可为 nil，此时仅使用启发式评分
func NewModel(store WeightsStore, environment string, refreshInterval time.Duration) *Model {
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Minute
	}
	return &Model{
		store:       store,
		environment: environment,
		interval:    refreshInterval,
	}
}

// Refresh 从权重存储刷新网络
// force 为 false 时遵循刷新周期，未到期直接返回
func (m *Model) Refresh(ctx context.Context, force bool) error {
	if m.store == nil {
		return nil
	}

	m.mu.RLock()
	fresh := !force && time.Since(m.lastRefresh) < m.interval && m.net != nil
	m.mu.RUnlock()
	if fresh {
		return nil
	}

	data, err := m.store.LoadWeights(ctx, m.environment)
	if err != nil {
		logger.Warn().Err(err).Str("environment", m.environment).Msg("权重加载失败，沿用现有权重")
		return err
	}
	if data == nil {
		m.mu.Lock()
		m.lastRefresh = time.Now()
		m.mu.Unlock()
		return nil
	}

	net, err := ParseNetwork(data)
	if err != nil {
		logger.Warn().Err(err).Str("environment", m.environment).Msg("权重格式无效，沿用现有权重")
		return err
	}

	m.mu.Lock()
	m.net = net
	m.lastRefresh = time.Now()
	m.mu.Unlock()

	logger.Info().Str("environment", m.environment).Msg("亲和度权重已刷新")
	return nil
}

// Heuristic 确定性启发式评分
func Heuristic(fv FeatureVector) float64 {
	score := heuristicBase
	if fv[FeatRoleMatch] > 0.9 {
		score += heuristicRoleBonus
	} else {
		score += heuristicRoleMiss
	}
	score -= fv[FeatDistance] * heuristicDistFactor
	if fv[FeatProject] > 0.9 {
		score += heuristicProjBonus
	}
	if score < heuristicFloor {
		score = heuristicFloor
	}
	if score > heuristicCeil {
		score = heuristicCeil
	}
	return score
}

// Fuse 融合启发式与网络评分
// 启发式保底：欠训练的网络不能把明显正确的匹配压到零信心
func Fuse(heuristic, neural float64) float64 {
	if heuristic > fusionHeuristicTrust {
		if neural > heuristic {
			return neural
		}
		return heuristic
	}
	if neural > fusionNeuralTrust {
		return neural
	}
	return heuristic
}

// Score 单对评分
func (m *Model) Score(fv FeatureVector) float64 {
	m.mu.RLock()
	net := m.net
	m.mu.RUnlock()

	m.mu.Lock()
	m.scored++
	if net == nil {
		m.fallbacks++
	}
	m.mu.Unlock()

	h := Heuristic(fv)
	if net == nil {
		return h
	}
	return Fuse(h, net.Forward(fv))
}

// ScoreBatch 批量评分：网络一次前向遍历全部样本
func (m *Model) ScoreBatch(batch []FeatureVector) []float64 {
	m.mu.RLock()
	net := m.net
	m.mu.RUnlock()

	out := make([]float64, len(batch))
	var neural []float64
	if net != nil {
		neural = net.ForwardBatch(batch)
	}
	for i, fv := range batch {
		h := Heuristic(fv)
		if neural == nil {
			out[i] = h
		} else {
			out[i] = Fuse(h, neural[i])
		}
	}

	m.mu.Lock()
	m.scored += int64(len(batch))
	if net == nil {
		m.fallbacks += int64(len(batch))
	}
	m.mu.Unlock()

	return out
}

// Stats 模型运行统计
type Stats struct {
	Environment   string    `json:"environment"`
	WeightsLoaded bool      `json:"weights_loaded"`
	LastRefresh   time.Time `json:"last_refresh,omitempty"`
	Scored        int64     `json:"scored"`
	Fallbacks     int64     `json:"heuristic_fallbacks"`
}

// Stats 返回当前统计快照
func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Environment:   m.environment,
		WeightsLoaded: m.net != nil,
		LastRefresh:   m.lastRefresh,
		Scored:        m.scored,
		Fallbacks:     m.fallbacks,
	}
}
