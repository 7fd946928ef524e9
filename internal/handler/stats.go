package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/stats"
)

// AnalyzeRequest 结果分析请求
type AnalyzeRequest struct {
	Environment string                `json:"environment"`
	Schedule    []*model.ResultRecord `json:"schedule"`
	Employees   []EmployeeInput       `json:"employees,omitempty"`
}

// AnalyzeResponse 结果分析响应
type AnalyzeResponse struct {
	Coverage *stats.CoverageMetrics `json:"coverage"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
}

// StatsHandler 排班结果统计分析处理器
type StatsHandler struct {
	coverage *stats.CoverageAnalyzer
	fairness *stats.FairnessAnalyzer
	schedule *ScheduleHandler
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler(schedule *ScheduleHandler) *StatsHandler {
	return &StatsHandler{
		coverage: stats.NewCoverageAnalyzer(),
		fairness: stats.NewFairnessAnalyzer(),
		schedule: schedule,
	}
}

// Analyze 分析一份排班结果 POST /api/v1/stats/analyze
func (h *StatsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	logger.Info().
		Str("environment", req.Environment).
		Int("records", len(req.Schedule)).
		Msg("接收排班结果分析请求")

	workers, _ := adaptEmployees(req.Employees)

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Coverage: h.coverage.Analyze(req.Schedule),
		Fairness: h.fairness.Analyze(req.Schedule, workers),
	})
}

// ModelStats 返回各租户评分模型统计 GET /api/v1/affinity/stats
func (h *StatsHandler) ModelStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.schedule.ModelStats(),
	})
}
