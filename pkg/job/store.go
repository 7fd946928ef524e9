// Package job 实现异步求解任务的状态机与单飞执行控制
package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// Store 任务持久化接口
type Store interface {
	Create(ctx context.Context, j *model.AsyncJob) error
	Get(ctx context.Context, id uuid.UUID) (*model.AsyncJob, error)
	Update(ctx context.Context, j *model.AsyncJob) error
	// ResetStale 将超过时限仍处于 processing 的任务重置为 failed，返回重置数量
	ResetStale(ctx context.Context, threshold time.Duration) (int, error)
}

// RunningFlag 进程级"求解进行中"标志
// 防止并发求解踩踏共享资源；这是诊断性状态，允许 last-write-wins
type RunningFlag interface {
	// TryAcquire 以比较交换语义抢占标志，抢占失败返回 false
	// 标志上次更新超过时限时视为陈旧，可被直接覆盖
	TryAcquire(ctx context.Context, threshold time.Duration) (bool, error)
	Release(ctx context.Context) error
	// Clear 无条件清除，进程启动时调用以恢复崩溃前的残留状态
	Clear(ctx context.Context) error
}

// MemoryStore 内存任务存储，用于同步模式与测试
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*model.AsyncJob
}

// NewMemoryStore 创建内存任务存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*model.AsyncJob)}
}

// Create 写入新任务
func (s *MemoryStore) Create(_ context.Context, j *model.AsyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

// Get 按ID读取任务
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*model.AsyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.JobNotFound(id.String())
	}
	cp := *j
	return &cp, nil
}

// Update 覆盖写任务状态
func (s *MemoryStore) Update(_ context.Context, j *model.AsyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return errors.JobNotFound(j.ID.String())
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

// ResetStale 重置滞留的 processing 任务
func (s *MemoryStore) ResetStale(_ context.Context, threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for _, j := range s.jobs {
		if j.Status == model.JobProcessing && now.Sub(j.UpdatedAt) > threshold {
			j.Status = model.JobFailed
			j.Error = "任务滞留超时，已强制重置"
			j.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// MemoryFlag 内存运行标志，用于同步模式与测试
type MemoryFlag struct {
	mu        sync.Mutex
	held      bool
	updatedAt time.Time
}

// NewMemoryFlag 创建内存运行标志
func NewMemoryFlag() *MemoryFlag {
	return &MemoryFlag{}
}

// TryAcquire 抢占标志
func (f *MemoryFlag) TryAcquire(_ context.Context, threshold time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.held && time.Since(f.updatedAt) <= threshold {
		return false, nil
	}
	f.held = true
	f.updatedAt = time.Now()
	return true, nil
}

// Release 释放标志
func (f *MemoryFlag) Release(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
	return nil
}

// Clear 无条件清除
func (f *MemoryFlag) Clear(_ context.Context) error {
	return f.Release(nil)
}
