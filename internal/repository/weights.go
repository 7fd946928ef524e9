package repository

import (
	"context"
	"database/sql"

	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/pkg/errors"
)

// WeightsRepository 亲和度模型权重存储
// 权重以JSON形式按租户保存，评分模型按刷新周期读取
type WeightsRepository struct {
	db *database.DB
}

// NewWeightsRepository 创建权重仓储
func NewWeightsRepository(db *database.DB) *WeightsRepository {
	return &WeightsRepository{db: db}
}

// LoadWeights 读取租户最新权重，无记录时返回 (nil, nil)
func (r *WeightsRepository) LoadWeights(ctx context.Context, environment string) ([]byte, error) {
	query := `
		SELECT weights FROM affinity_weights
		WHERE environment = $1
		ORDER BY updated_at DESC LIMIT 1`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, environment).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "权重读取失败")
	}
	return data, nil
}

// SaveWeights 保存租户权重
func (r *WeightsRepository) SaveWeights(ctx context.Context, environment string, weights []byte) error {
	query := `
		INSERT INTO affinity_weights (environment, weights, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (environment) DO UPDATE SET weights = $2, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, environment, weights); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "权重写入失败")
	}
	return nil
}
