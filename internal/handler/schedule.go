// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/pkg/affinity"
	"github.com/zhipai/zhipai/pkg/demand"
	"github.com/zhipai/zhipai/pkg/engine"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/job"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
)

// ProfileResolver 劳动规则档案解析接口
type ProfileResolver interface {
	Resolve(ctx context.Context, environment string, workers []*model.Worker) ([]*model.LaborProfile, error)
}

// ScheduleHandler 排班求解处理器
type ScheduleHandler struct {
	solverCfg      engine.SolverConfig
	extendedBudget time.Duration
	largeShifts    int
	maxPairProduct int

	weights       affinity.WeightsStore
	refreshEvery  time.Duration
	profiles      ProfileResolver
	oracle        demand.Oracle
	controller    *job.Controller

	mu     sync.Mutex
	models map[string]*affinity.Model
}

// ScheduleHandlerConfig 处理器依赖配置
type ScheduleHandlerConfig struct {
	SolverCfg       engine.SolverConfig
	ExtendedBudget  time.Duration
	LargeShifts     int
	MaxPairProduct  int
	Weights         affinity.WeightsStore // 可为 nil，仅启发式评分
	RefreshInterval time.Duration
	Profiles        ProfileResolver // 可为 nil，使用默认档案
	Oracle          demand.Oracle   // 可为 nil，不做需求预测
	JobStore        job.Store
	RunningFlag     job.RunningFlag
}

// NewScheduleHandler 创建排班处理器并装配异步任务控制器
func NewScheduleHandler(ctx context.Context, cfg ScheduleHandlerConfig) *ScheduleHandler {
	h := &ScheduleHandler{
		solverCfg:      cfg.SolverCfg,
		extendedBudget: cfg.ExtendedBudget,
		largeShifts:    cfg.LargeShifts,
		maxPairProduct: cfg.MaxPairProduct,
		weights:        cfg.Weights,
		refreshEvery:   cfg.RefreshInterval,
		profiles:       cfg.Profiles,
		oracle:         cfg.Oracle,
		models:         make(map[string]*affinity.Model),
	}
	h.controller = job.NewController(ctx, cfg.JobStore, cfg.RunningFlag, h.runPayload)
	return h
}

// Controller 返回任务控制器（任务查询处理器共用）
func (h *ScheduleHandler) Controller() *job.Controller {
	return h.controller
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	Environment      string                 `json:"environment"`
	StartDate        string                 `json:"start_date"`
	EndDate          string                 `json:"end_date"`
	Async            bool                   `json:"async,omitempty"`
	Employees        []EmployeeInput        `json:"employees"`
	RequiredShifts   []ShiftInput           `json:"required_shifts"`
	Unavailabilities []UnavailabilityInput  `json:"unavailabilities,omitempty"`
	Activities       []ActivityInput        `json:"activities,omitempty"`
	Constraints      map[string]interface{} `json:"constraints,omitempty"`
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	FullName       string   `json:"full_name,omitempty"`
	Role           string   `json:"role,omitempty"`
	HiredDate      string   `json:"hired_date,omitempty"`
	DismissedDate  string   `json:"dismissed_date,omitempty"`
	Address        string   `json:"address,omitempty"`
	BornDate       string   `json:"born_date,omitempty"`
	ProjectIDs     []string `json:"project_ids,omitempty"`
	Keywords       []string `json:"customer_keywords,omitempty"`
	HasVehicle     bool     `json:"has_vehicle,omitempty"`
	LaborProfileID string   `json:"labor_profile_id,omitempty"`
}

// ShiftInput 班次输入
type ShiftInput struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Role            string `json:"role,omitempty"`
	ActivityID      string `json:"activity_id,omitempty"`
	Project         string `json:"project,omitempty"`
	RequiresVehicle bool   `json:"requires_vehicle,omitempty"`
}

// UnavailabilityInput 不可用记录输入
type UnavailabilityInput struct {
	EmployeeID   string `json:"employee_id,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// ActivityInput 活动输入
type ActivityInput struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	RoleRequired string `json:"role_required,omitempty"`
	Project      string `json:"project,omitempty"`
}

// GenerateResponse 同步求解响应
type GenerateResponse struct {
	Schedule       []*model.ResultRecord `json:"schedule"`
	Assigned       int                   `json:"assigned"`
	Unassigned     int                   `json:"unassigned"`
	Objective      int64                 `json:"objective"`
	Degraded       bool                  `json:"degraded,omitempty"`
	SkippedRecords int                   `json:"skipped_records,omitempty"`
	Duration       string                `json:"duration"`
}

// AsyncResponse 异步提交响应
type AsyncResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Generate 排班生成入口
// async=true 时创建异步任务立即返回，否则内联求解
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateGenerateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	if req.Async {
		payload, err := json.Marshal(&req)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInternal, "请求序列化失败"))
			return
		}
		j, err := h.controller.Submit(r.Context(), req.Environment, payload)
		if err != nil {
			respondAppError(w, err)
			return
		}
		metrics.RecordJobTransition(string(model.JobQueued))
		respondJSON(w, http.StatusAccepted, AsyncResponse{
			JobID:  j.ID.String(),
			Status: string(j.Status),
		})
		return
	}

	resp, err := h.solve(r.Context(), &req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// runPayload 异步任务执行入口：反序列化请求，求解，序列化结果
func (h *ScheduleHandler) runPayload(ctx context.Context, payload []byte) ([]byte, error) {
	var req GenerateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "任务请求反序列化失败")
	}
	resp, err := h.solve(ctx, &req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

// solve 执行一次完整求解
func (h *ScheduleHandler) solve(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	workers, skippedW := adaptEmployees(req.Employees)
	shifts, skippedS := adaptShifts(req.RequiredShifts)
	unavails := adaptUnavailabilities(req.Unavailabilities)
	skipped := skippedW + skippedS

	if skipped > 0 {
		logger.Warn().
			Str("environment", req.Environment).
			Int("skipped", skipped).
			Msg("输入适配跳过了无法解析的记录")
	}

	// 无显式班次需求时由需求预测生成
	var risk map[string]map[string]float64
	if len(shifts) == 0 && h.oracle != nil {
		oracleShifts, oracleRisk, err := h.forecast(ctx, req)
		if err != nil {
			return nil, err
		}
		shifts = oracleShifts
		risk = oracleRisk
	}

	var profiles []*model.LaborProfile
	if h.profiles != nil {
		var err error
		profiles, err = h.profiles.Resolve(ctx, req.Environment, workers)
		if err != nil {
			logger.Warn().Err(err).Str("environment", req.Environment).Msg("档案解析失败，使用默认档案")
			profiles = nil
		}
	}

	m := h.modelFor(req.Environment)
	fallbacksBefore := m.Stats().Fallbacks

	eng := engine.NewEngine(m, h.solverCfg, h.maxPairProduct)
	eng.SetBudgetScaling(h.largeShifts, h.extendedBudget)
	result, err := eng.Generate(ctx, &engine.Request{
		Environment:      req.Environment,
		Workers:          workers,
		Shifts:           shifts,
		Unavailabilities: unavails,
		Profiles:         profiles,
		AbsenceRisk:      risk,
		Options:          model.ParseSolveOptions(req.Constraints),
	})

	elapsed := time.Since(start)
	metrics.RecordSolve(req.Environment, err == nil, elapsed)
	metrics.RecordAffinityFallback(req.Environment, int(m.Stats().Fallbacks-fallbacksBefore))
	if err != nil {
		return nil, err
	}

	metrics.SetEligiblePairs(req.Environment, result.EligiblePairs)
	metrics.SetObjectiveScore(req.Environment, float64(result.Objective))
	if len(result.Schedule) > 0 {
		metrics.SetUnassignedRate(req.Environment, float64(result.Unassigned)/float64(len(result.Schedule)))
	}

	return &GenerateResponse{
		Schedule:       result.Schedule,
		Assigned:       result.Assigned,
		Unassigned:     result.Unassigned,
		Objective:      result.Objective,
		Degraded:       result.Degraded,
		SkippedRecords: skipped,
		Duration:       elapsed.String(),
	}, nil
}

// forecast 调用需求预测生成班次与缺勤风险
func (h *ScheduleHandler) forecast(ctx context.Context, req *GenerateRequest) ([]*model.ShiftRequirement, map[string]map[string]float64, error) {
	var activityIDs []string
	activities := make([]*model.Activity, 0, len(req.Activities))
	for _, a := range req.Activities {
		if a.ID == "" {
			continue
		}
		activityIDs = append(activityIDs, a.ID)
		activities = append(activities, &model.Activity{
			ID:           a.ID,
			Name:         a.Name,
			RoleRequired: a.RoleRequired,
			Project:      a.Project,
		})
	}

	blocks, err := h.oracle.PredictDemand(ctx, req.StartDate, req.EndDate, activityIDs)
	if err != nil {
		return nil, nil, err
	}
	shifts := demand.BlocksToShifts(blocks, activities)

	// 逐日拉取缺勤风险，预测失败按零风险处理
	risk := make(map[string]map[string]float64)
	seen := make(map[string]bool)
	for _, s := range shifts {
		date, ok := model.NormalizeDate(s.Date)
		if !ok || seen[date] {
			continue
		}
		seen[date] = true
		byWorker, rerr := h.oracle.PredictAbsenceRisk(ctx, date)
		if rerr != nil {
			logger.Warn().Err(rerr).Str("date", date).Msg("缺勤风险预测失败，按零风险处理")
			continue
		}
		risk[date] = byWorker
	}

	return shifts, risk, nil
}

// modelFor 获取租户的评分模型，进程内每租户一个实例
func (h *ScheduleHandler) modelFor(environment string) *affinity.Model {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.models[environment]
	if !ok {
		m = affinity.NewModel(h.weights, environment, h.refreshEvery)
		h.models[environment] = m
	}
	return m
}

// ModelStats 返回各租户评分模型的运行统计
func (h *ScheduleHandler) ModelStats() []affinity.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]affinity.Stats, 0, len(h.models))
	for _, m := range h.models {
		out = append(out, m.Stats())
	}
	return out
}

// adaptEmployees 类型化适配员工输入
// 缺关键字段的记录跳过并计数，不静默丢弃
func adaptEmployees(inputs []EmployeeInput) ([]*model.Worker, int) {
	workers := make([]*model.Worker, 0, len(inputs))
	skipped := 0
	for _, e := range inputs {
		if e.ID == "" && e.Name == "" && e.FullName == "" {
			skipped++
			continue
		}
		workers = append(workers, &model.Worker{
			ID:               e.ID,
			Name:             e.Name,
			FullName:         e.FullName,
			Role:             e.Role,
			HiredDate:        e.HiredDate,
			DismissedDate:    e.DismissedDate,
			Address:          e.Address,
			BornDate:         e.BornDate,
			ProjectIDs:       e.ProjectIDs,
			CustomerKeywords: e.Keywords,
			HasVehicle:       e.HasVehicle,
			LaborProfileID:   e.LaborProfileID,
		})
	}
	return workers, skipped
}

// adaptShifts 类型化适配班次输入
func adaptShifts(inputs []ShiftInput) ([]*model.ShiftRequirement, int) {
	shifts := make([]*model.ShiftRequirement, 0, len(inputs))
	skipped := 0
	for i, s := range inputs {
		date, ok := model.NormalizeDate(s.Date)
		if !ok {
			skipped++
			continue
		}
		if _, ok := model.MinutesOfDay(s.StartTime); !ok {
			skipped++
			continue
		}
		if _, ok := model.MinutesOfDay(s.EndTime); !ok {
			skipped++
			continue
		}
		id := s.ID
		if id == "" {
			id = date + "#" + strconv.Itoa(i)
		}
		shifts = append(shifts, &model.ShiftRequirement{
			ID:              id,
			Date:            date,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			Role:            s.Role,
			ActivityID:      s.ActivityID,
			Project:         s.Project,
			RequiresVehicle: s.RequiresVehicle,
		})
	}
	return shifts, skipped
}

// adaptUnavailabilities 类型化适配不可用记录
func adaptUnavailabilities(inputs []UnavailabilityInput) []*model.Unavailability {
	out := make([]*model.Unavailability, 0, len(inputs))
	for _, u := range inputs {
		if u.Date == "" || (u.EmployeeID == "" && u.EmployeeName == "") {
			continue
		}
		out = append(out, &model.Unavailability{
			WorkerID:   u.EmployeeID,
			WorkerName: u.EmployeeName,
			Date:       u.Date,
			StartTime:  u.StartTime,
			EndTime:    u.EndTime,
			Reason:     u.Reason,
		})
	}
	return out
}

// validateGenerateRequest 请求校验：格式错误在模型构建之前拒绝
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.Environment == "" {
		ve.Add("environment", "租户环境不能为空")
	}
	if req.StartDate != "" {
		if _, ok := model.ParseDate(req.StartDate); !ok {
			ve.Add("start_date", "日期格式无效")
		}
	}
	if req.EndDate != "" {
		if _, ok := model.ParseDate(req.EndDate); !ok {
			ve.Add("end_date", "日期格式无效")
		}
	}
	if len(req.RequiredShifts) == 0 && (req.StartDate == "" || req.EndDate == "") {
		ve.Add("required_shifts", "未提供班次需求时必须给出预测日期区间")
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// respondAppError 任意错误按应用错误返回
func respondAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		respondError(w, appErr)
		return
	}
	respondError(w, errors.Wrap(err, errors.CodeInternal, "内部错误"))
}
