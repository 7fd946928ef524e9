package repository

import (
	"context"
	"database/sql"

	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// ProfileRepository 劳动规则档案存储
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository 创建档案仓储
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get 按ID读取档案，不存在时返回租户默认档案
func (r *ProfileRepository) Get(ctx context.Context, environment, id string) (*model.LaborProfile, error) {
	if id == "" {
		return r.getDefault(ctx, environment)
	}

	query := `
		SELECT id, name, max_weekly_hours, max_daily_hours, max_consecutive_days, min_rest_hours, is_default
		FROM labor_profiles WHERE environment = $1 AND id = $2`

	p := &model.LaborProfile{}
	err := r.db.QueryRowContext(ctx, query, environment, id).Scan(
		&p.ID, &p.Name, &p.MaxWeeklyHours, &p.MaxDailyHours,
		&p.MaxConsecutiveDays, &p.MinRestHours, &p.IsDefault)
	if err == sql.ErrNoRows {
		return r.getDefault(ctx, environment)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "档案读取失败")
	}
	return p, nil
}

// getDefault 读取租户默认档案，租户未配置时使用内置默认值
func (r *ProfileRepository) getDefault(ctx context.Context, environment string) (*model.LaborProfile, error) {
	query := `
		SELECT id, name, max_weekly_hours, max_daily_hours, max_consecutive_days, min_rest_hours, is_default
		FROM labor_profiles WHERE environment = $1 AND is_default = TRUE LIMIT 1`

	p := &model.LaborProfile{}
	err := r.db.QueryRowContext(ctx, query, environment).Scan(
		&p.ID, &p.Name, &p.MaxWeeklyHours, &p.MaxDailyHours,
		&p.MaxConsecutiveDays, &p.MinRestHours, &p.IsDefault)
	if err == sql.ErrNoRows {
		return model.DefaultLaborProfile(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "默认档案读取失败")
	}
	return p, nil
}

// Resolve 批量解析员工档案，返回与员工切片对齐的档案切片
func (r *ProfileRepository) Resolve(ctx context.Context, environment string, workers []*model.Worker) ([]*model.LaborProfile, error) {
	profiles := make([]*model.LaborProfile, len(workers))
	cache := make(map[string]*model.LaborProfile)

	for i, w := range workers {
		if p, ok := cache[w.LaborProfileID]; ok {
			profiles[i] = p
			continue
		}
		p, err := r.Get(ctx, environment, w.LaborProfileID)
		if err != nil {
			return nil, err
		}
		cache[w.LaborProfileID] = p
		profiles[i] = p
	}

	return profiles, nil
}
