package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
)

// Runner 求解执行函数：输入序列化请求，返回序列化结果
type Runner func(ctx context.Context, payload []byte) ([]byte, error)

// Controller 异步任务控制器
// 状态机 queued → processing → {completed, failed}；
// worker 是任务记录的唯一写入方，异常路径也保证落入终态
type Controller struct {
	store Store
	flag  RunningFlag
	run   Runner
	log   *logger.SolverLogger

	// 异步执行的基准上下文，与请求生命周期解耦
	baseCtx context.Context
}

// NewController 创建任务控制器
// 启动时无条件清除运行标志并重置滞留任务，恢复崩溃前的残留状态
func NewController(ctx context.Context, store Store, flag RunningFlag, run Runner) *Controller {
	c := &Controller{
		store:   store,
		flag:    flag,
		run:     run,
		log:     logger.NewSolverLogger(),
		baseCtx: ctx,
	}

	if err := flag.Clear(ctx); err != nil {
		logger.Warn().Err(err).Msg("启动清除运行标志失败")
	}
	if n, err := store.ResetStale(ctx, model.JobStaleThreshold); err != nil {
		logger.Warn().Err(err).Msg("启动重置滞留任务失败")
	} else if n > 0 {
		logger.Info().Int("count", n).Msg("已重置滞留任务")
	}

	return c
}

// Submit 提交异步任务，立即返回任务ID
func (c *Controller) Submit(ctx context.Context, environment string, payload []byte) (*model.AsyncJob, error) {
	j := model.NewAsyncJob(environment, payload)
	if err := c.store.Create(ctx, j); err != nil {
		return nil, err
	}
	c.log.JobTransition(j.ID.String(), "", string(model.JobQueued))

	go c.execute(j.ID)

	return j, nil
}

// Get 查询任务状态
// 查询时顺带做滞留检测：processing 超时的任务立即判定为失败，
// 调用方视角不存在永远 processing 的任务
func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*model.AsyncJob, error) {
	j, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if j.Status == model.JobProcessing && j.Stale(time.Now()) {
		j.Status = model.JobFailed
		j.Error = "任务滞留超时，已强制重置"
		j.UpdatedAt = time.Now()
		if uerr := c.store.Update(ctx, j); uerr != nil {
			logger.Warn().Err(uerr).Str("job_id", id.String()).Msg("滞留任务状态回写失败")
		}
		c.log.JobTransition(id.String(), string(model.JobProcessing), string(model.JobFailed))
	}

	return j, nil
}

// execute 后台执行任务，所有退出路径都落入终态并释放运行标志
func (c *Controller) execute(id uuid.UUID) {
	ctx := c.baseCtx

	j, err := c.store.Get(ctx, id)
	if err != nil {
		logger.Error().Err(err).Str("job_id", id.String()).Msg("任务读取失败")
		return
	}

	// 单飞控制：抢不到运行标志就等待重试，陈旧标志可直接覆盖
	for {
		ok, ferr := c.flag.TryAcquire(ctx, model.JobStaleThreshold)
		if ferr != nil {
			c.fail(ctx, j, fmt.Sprintf("运行标志抢占失败: %v", ferr))
			return
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			c.fail(ctx, j, "等待运行标志时进程退出")
			return
		case <-time.After(2 * time.Second):
		}
	}
	defer func() {
		if rerr := c.flag.Release(ctx); rerr != nil {
			logger.Warn().Err(rerr).Msg("运行标志释放失败")
		}
	}()

	j.Status = model.JobProcessing
	j.UpdatedAt = time.Now()
	if err := c.store.Update(ctx, j); err != nil {
		logger.Error().Err(err).Str("job_id", id.String()).Msg("任务状态更新失败")
		return
	}
	c.log.JobTransition(id.String(), string(model.JobQueued), string(model.JobProcessing))

	// panic 也要落入 failed 终态
	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, j, fmt.Sprintf("求解发生异常: %v", r))
		}
	}()

	result, err := c.run(ctx, j.RequestPayload)
	if err != nil {
		c.fail(ctx, j, err.Error())
		return
	}

	j.Status = model.JobCompleted
	j.Result = result
	j.Error = ""
	j.UpdatedAt = time.Now()
	if err := c.store.Update(ctx, j); err != nil {
		logger.Error().Err(err).Str("job_id", id.String()).Msg("任务结果写入失败")
		return
	}
	c.log.JobTransition(id.String(), string(model.JobProcessing), string(model.JobCompleted))
}

// fail 将任务置为失败终态
func (c *Controller) fail(ctx context.Context, j *model.AsyncJob, detail string) {
	from := j.Status
	j.Status = model.JobFailed
	j.Error = detail
	j.UpdatedAt = time.Now()
	if err := c.store.Update(ctx, j); err != nil {
		logger.Error().Err(err).Str("job_id", j.ID.String()).Msg("任务失败状态写入失败")
		return
	}
	c.log.JobTransition(j.ID.String(), string(from), string(model.JobFailed))
}
