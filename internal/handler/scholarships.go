package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/utils"
)

func scholarshipConstraintError(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	switch pgErr.ConstraintName {
	case "scholarships_name_key":
		return "奖学金名称已存在"
	case "applications_scholarship_id_fkey":
		return "已有学生申请该奖学金，无法删除"
	default:
		return ""
	}
}

// checkScholarship 检查截止日期和作文题目，截止日期必须晚于今天
func (h *Handler) checkScholarship(s *domain.Scholarship) error {
	if err := h.planner.ValidateDeadline(s.Deadline, time.Now()); err != nil {
		return errors.New("截止日期必须晚于今天")
	}
	return utils.ValidateEssayPrompts(s.EssayPrompts)
}

func (h *Handler) GetAllScholarships(w http.ResponseWriter, r *http.Request) {
	scholarships, err := h.repository.GetAllScholarships()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有奖学金成功", scholarships)
}

func (h *Handler) CreateScholarship(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                string   `json:"name" validate:"required,max=100"`
		Description         string   `json:"description"`
		Deadline            string   `json:"deadline" validate:"required,datetime=2006-01-02"`
		EssayPrompts        []string `json:"essayPrompts" validate:"max=10"`
		RecommendationCount int32    `json:"recommendationCount" validate:"gte=0,lte=10"`
		DocumentsRequired   int32    `json:"documentsRequired" validate:"gte=0,lte=20"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	deadline, _ := time.Parse(planner.DateLayout, req.Deadline)
	scholarship := &domain.Scholarship{
		Name:                req.Name,
		Description:         req.Description,
		Deadline:            deadline,
		EssayPrompts:        req.EssayPrompts,
		RecommendationCount: req.RecommendationCount,
		DocumentsRequired:   req.DocumentsRequired,
	}
	if scholarship.EssayPrompts == nil {
		scholarship.EssayPrompts = make([]string, 0)
	}

	if err := h.checkScholarship(scholarship); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateScholarship(scholarship); err != nil {
		if msg := scholarshipConstraintError(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建奖学金成功", scholarship)
}

func (h *Handler) GetScholarship(w http.ResponseWriter, r *http.Request) {
	scholarship := r.Context().Value(ScholarshipCtx).(*domain.Scholarship)
	h.successResponse(w, r, "获取奖学金成功", scholarship)
}

// UpdateScholarship 修改奖学金信息，已有排期保存了提交时的截止日期和材料数量，不受影响
func (h *Handler) UpdateScholarship(w http.ResponseWriter, r *http.Request) {
	scholarship := r.Context().Value(ScholarshipCtx).(*domain.Scholarship)

	var req struct {
		Name                *string  `json:"name" validate:"omitempty,max=100"`
		Description         *string  `json:"description"`
		Deadline            *string  `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
		EssayPrompts        []string `json:"essayPrompts" validate:"omitempty,max=10"`
		RecommendationCount *int32   `json:"recommendationCount" validate:"omitempty,gte=0,lte=10"`
		DocumentsRequired   *int32   `json:"documentsRequired" validate:"omitempty,gte=0,lte=20"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		scholarship.Name = *req.Name
	}
	if req.Description != nil {
		scholarship.Description = *req.Description
	}
	if req.Deadline != nil {
		scholarship.Deadline, _ = time.Parse(planner.DateLayout, *req.Deadline)
	}
	if req.EssayPrompts != nil {
		scholarship.EssayPrompts = req.EssayPrompts
	}
	if req.RecommendationCount != nil {
		scholarship.RecommendationCount = *req.RecommendationCount
	}
	if req.DocumentsRequired != nil {
		scholarship.DocumentsRequired = *req.DocumentsRequired
	}

	if err := h.checkScholarship(scholarship); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateScholarship(scholarship); err != nil {
		switch {
		case scholarshipConstraintError(err) != "":
			h.errorResponse(w, r, scholarshipConstraintError(err))
		case errors.Is(err, repository.ErrVersionConflict):
			h.errorResponse(w, r, "请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新奖学金成功", scholarship)
}

func (h *Handler) DeleteScholarship(w http.ResponseWriter, r *http.Request) {
	scholarship := r.Context().Value(ScholarshipCtx).(*domain.Scholarship)

	if err := h.repository.DeleteScholarship(scholarship.ID); err != nil {
		if msg := scholarshipConstraintError(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除奖学金成功", nil)
}
