// Package model 定义排班分配引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus 异步任务状态
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobStaleThreshold 任务失联阈值
// processing 超过该时长的任务视为被遗弃，允许强制复位以恢复
const JobStaleThreshold = 5 * time.Minute

// AsyncJob 异步求解任务
// 由提交端点创建，仅由持有它的工作协程修改，completed/failed 为终态
type AsyncJob struct {
	ID          uuid.UUID `json:"id"`
	Environment string    `json:"environment"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 序列化的请求与结果
	RequestPayload []byte `json:"-"`
	Result         []byte `json:"-"`
	Error          string `json:"error,omitempty"`
}

// NewAsyncJob 创建排队状态的新任务
func NewAsyncJob(environment string, payload []byte) *AsyncJob {
	now := time.Now()
	return &AsyncJob{
		ID:             uuid.New(),
		Environment:    environment,
		Status:         JobQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
		RequestPayload: payload,
	}
}

// Terminal 判断任务是否处于终态
func (j *AsyncJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// Stale 判断 processing 任务是否已失联
func (j *AsyncJob) Stale(now time.Time) bool {
	return j.Status == JobProcessing && now.Sub(j.UpdatedAt) > JobStaleThreshold
}
