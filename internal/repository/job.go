// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// JobRepository 异步任务的 PostgreSQL 存储
type JobRepository struct {
	db *database.DB
}

// NewJobRepository 创建任务仓储
func NewJobRepository(db *database.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create 写入新任务
func (r *JobRepository) Create(ctx context.Context, j *model.AsyncJob) error {
	query := `
		INSERT INTO solve_jobs (id, environment, status, created_at, updated_at, payload, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.Environment, string(j.Status), j.CreatedAt, j.UpdatedAt,
		j.RequestPayload, j.Result, j.Error)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "任务写入失败")
	}
	return nil
}

// Get 按ID读取任务
func (r *JobRepository) Get(ctx context.Context, id uuid.UUID) (*model.AsyncJob, error) {
	query := `
		SELECT id, environment, status, created_at, updated_at, payload, result, error
		FROM solve_jobs WHERE id = $1`

	j := &model.AsyncJob{}
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.Environment, &status, &j.CreatedAt, &j.UpdatedAt,
		&j.RequestPayload, &j.Result, &j.Error)
	if err == sql.ErrNoRows {
		return nil, errors.JobNotFound(id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "任务读取失败")
	}
	j.Status = model.JobStatus(status)
	return j, nil
}

// Update 覆盖写任务状态与结果
func (r *JobRepository) Update(ctx context.Context, j *model.AsyncJob) error {
	query := `
		UPDATE solve_jobs
		SET status = $2, updated_at = $3, result = $4, error = $5
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		j.ID, string(j.Status), j.UpdatedAt, j.Result, j.Error)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "任务更新失败")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.JobNotFound(j.ID.String())
	}
	return nil
}

// ResetStale 将滞留的 processing 任务重置为 failed
func (r *JobRepository) ResetStale(ctx context.Context, threshold time.Duration) (int, error) {
	query := `
		UPDATE solve_jobs
		SET status = $1, error = $2, updated_at = NOW()
		WHERE status = $3 AND updated_at < $4`

	res, err := r.db.ExecContext(ctx, query,
		string(model.JobFailed), "任务滞留超时，已强制重置",
		string(model.JobProcessing), time.Now().Add(-threshold))
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeDatabaseError, "滞留任务重置失败")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// RunningFlagRepository 进程间共享的运行标志，单行表配合条件更新实现比较交换
type RunningFlagRepository struct {
	db    *database.DB
	owner uuid.UUID
}

// NewRunningFlagRepository 创建运行标志仓储
func NewRunningFlagRepository(db *database.DB) *RunningFlagRepository {
	return &RunningFlagRepository{db: db, owner: uuid.New()}
}

// TryAcquire 以条件更新抢占标志；陈旧标志（更新时间超过时限）可覆盖
func (r *RunningFlagRepository) TryAcquire(ctx context.Context, threshold time.Duration) (bool, error) {
	query := `
		UPDATE solve_running_flag
		SET held = TRUE, owner = $1, updated_at = NOW()
		WHERE id = 1 AND (held = FALSE OR updated_at < $2)`

	res, err := r.db.ExecContext(ctx, query, r.owner, time.Now().Add(-threshold))
	if err != nil {
		return false, errors.Wrap(err, errors.CodeDatabaseError, "运行标志抢占失败")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Release 释放本进程持有的标志
func (r *RunningFlagRepository) Release(ctx context.Context) error {
	query := `UPDATE solve_running_flag SET held = FALSE, updated_at = NOW() WHERE id = 1 AND owner = $1`
	if _, err := r.db.ExecContext(ctx, query, r.owner); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "运行标志释放失败")
	}
	return nil
}

// Clear 无条件清除标志，进程启动时调用
func (r *RunningFlagRepository) Clear(ctx context.Context) error {
	query := `
		INSERT INTO solve_running_flag (id, held, updated_at) VALUES (1, FALSE, NOW())
		ON CONFLICT (id) DO UPDATE SET held = FALSE, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "运行标志清除失败")
	}
	return nil
}
