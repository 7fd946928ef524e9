package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/job"
	"github.com/zhipai/zhipai/pkg/model"
)

// JobHandler 异步任务查询处理器
type JobHandler struct {
	controller *job.Controller
}

// NewJobHandler 创建任务查询处理器
func NewJobHandler(controller *job.Controller) *JobHandler {
	return &JobHandler{controller: controller}
}

// JobResponse 任务查询响应
// completed 时携带求解结果，failed 时携带错误描述
type JobResponse struct {
	JobID     string            `json:"job_id"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
	Schedule  *GenerateResponse `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Get 查询任务状态 GET /api/v1/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "任务ID格式无效"))
		return
	}

	j, err := h.controller.Get(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	resp := JobResponse{
		JobID:     j.ID.String(),
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: j.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	switch j.Status {
	case model.JobCompleted:
		var gr GenerateResponse
		if uerr := json.Unmarshal(j.Result, &gr); uerr != nil {
			respondError(w, errors.Wrap(uerr, errors.CodeInternal, "任务结果反序列化失败"))
			return
		}
		resp.Schedule = &gr
	case model.JobFailed:
		resp.Error = j.Error
	}

	respondJSON(w, http.StatusOK, resp)
}
