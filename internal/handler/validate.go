package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/validator"
)

// ValidateRequest 结果校验请求
type ValidateRequest struct {
	Environment    string                 `json:"environment"`
	Schedule       []*model.ResultRecord  `json:"schedule"`
	RequiredShifts []ShiftInput           `json:"required_shifts"`
	Employees      []EmployeeInput        `json:"employees"`
	Constraints    map[string]interface{} `json:"constraints,omitempty"`
}

// ValidateResponse 结果校验响应
type ValidateResponse struct {
	Valid      bool                  `json:"valid"`
	Violations []validator.Violation `json:"violations"`
}

// ValidateHandler 排班结果校验处理器
type ValidateHandler struct {
	validator *validator.ResultValidator
	profiles  ProfileResolver
}

// NewValidateHandler 创建结果校验处理器
func NewValidateHandler(profiles ProfileResolver) *ValidateHandler {
	return &ValidateHandler{
		validator: validator.NewResultValidator(),
		profiles:  profiles,
	}
}

// Validate 校验一份排班结果 POST /api/v1/schedule/validate
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	workers, _ := adaptEmployees(req.Employees)
	shifts, _ := adaptShifts(req.RequiredShifts)

	var profiles []*model.LaborProfile
	if h.profiles != nil {
		if resolved, err := h.profiles.Resolve(r.Context(), req.Environment, workers); err == nil {
			profiles = resolved
		}
	}

	violations := h.validator.Validate(req.Schedule, shifts, workers, profiles)
	if violations == nil {
		violations = []validator.Violation{}
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}
