// Package demand 对接外部需求预测服务并将预测转换为班次
package demand

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// Oracle 需求预测服务接口
// 核心以同步阻塞方式调用，不假设预测方是异步的
type Oracle interface {
	// PredictDemand 预测日期区间内各活动的需求
	PredictDemand(ctx context.Context, startDate, endDate string, activityIDs []string) ([]model.DemandBlock, error)
	// PredictAbsenceRisk 预测指定日期各员工的缺勤概率
	PredictAbsenceRisk(ctx context.Context, date string) (map[string]float64, error)
}

// HTTPOracle 基于HTTP的预测服务客户端
type HTTPOracle struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOracle 创建预测服务客户端
func NewHTTPOracle(baseURL string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPOracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// PredictDemand 调用需求预测接口
func (o *HTTPOracle) PredictDemand(ctx context.Context, startDate, endDate string, activityIDs []string) ([]model.DemandBlock, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	if len(activityIDs) > 0 {
		q.Set("activity_ids", strings.Join(activityIDs, ","))
	}

	var blocks []model.DemandBlock
	if err := o.get(ctx, "/predict/demand", q, &blocks); err != nil {
		return nil, errors.OracleError("predict_demand", err)
	}
	return blocks, nil
}

// PredictAbsenceRisk 调用缺勤风险预测接口
func (o *HTTPOracle) PredictAbsenceRisk(ctx context.Context, date string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("date", date)

	risk := make(map[string]float64)
	if err := o.get(ctx, "/predict/absence_risk", q, &risk); err != nil {
		return nil, errors.OracleError("predict_absence_risk", err)
	}
	return risk, nil
}

func (o *HTTPOracle) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("预测服务返回 %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
