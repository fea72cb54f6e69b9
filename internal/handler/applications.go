package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/utils"
)

func applicationConstraintError(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	switch pgErr.ConstraintName {
	case "applications_student_id_scholarship_id_key":
		return "已经申请过该奖学金"
	case "applications_scholarship_id_fkey":
		return "奖学金不存在"
	default:
		return ""
	}
}

type committedApplication struct {
	Application     *domain.Application     `json:"application"`
	Schedule        *domain.Schedule        `json:"schedule"`
	Conflicts       *planner.ConflictReport `json:"conflicts"`
	IsDeadlineClose bool                    `json:"isDeadlineClose"`
}

// CommitApplication 学生确认申请某个奖学金，同时生成排期并重新检测冲突
func (h *Handler) CommitApplication(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		ScholarshipID int64 `json:"scholarshipID" validate:"required"`
		PriorityTier  int32 `json:"priorityTier" validate:"omitempty,gte=1,lte=3"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.PriorityTier == 0 {
		req.PriorityTier = domain.PriorityTierMedium
	}

	scholarship, err := h.repository.GetScholarshipByID(req.ScholarshipID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "奖学金不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	now := time.Now()
	if err := h.planner.ValidateDeadline(scholarship.Deadline, now); err != nil {
		h.errorResponse(w, r, "奖学金已截止")
		return
	}

	app := &domain.Application{
		StudentID:           myInfo.ID,
		ScholarshipID:       scholarship.ID,
		ScholarshipName:     scholarship.Name,
		Deadline:            scholarship.Deadline,
		EssayCount:          scholarship.EssayCount(),
		RecommendationCount: scholarship.RecommendationCount,
		Status:              domain.ApplicationStatusNotStarted,
		PriorityTier:        req.PriorityTier,
		Progress: domain.ApplicationProgress{
			EssaysRequired:          scholarship.EssayCount(),
			DocumentsRequired:       scholarship.DocumentsRequired,
			RecommendationsRequired: scholarship.RecommendationCount,
		},
	}
	schedule := h.planner.NewSchedule(app)

	if err := h.repository.CreateApplicationWithSchedule(app, schedule); err != nil {
		if msg := applicationConstraintError(err); msg != "" {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}
	metrics.SchedulesPlanned.Inc()

	// 申请已经创建成功，冲突检测失败不影响结果，下次调整排期时会重新检测
	report, err := h.redetectAll(myInfo)
	if err != nil {
		slog.Warn("新建申请后检测冲突失败", "application_id", app.ID, "error", err)
	} else if saved, err := h.repository.GetScheduleByApplicationID(app.ID); err == nil {
		schedule = saved
	}

	h.successResponse(w, r, "申请成功", committedApplication{
		Application:     app,
		Schedule:        schedule,
		Conflicts:       report,
		IsDeadlineClose: h.planner.IsDeadlineClose(scholarship.Deadline, now),
	})
}

func (h *Handler) GetMyApplications(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	apps, err := h.repository.GetApplicationsByStudentID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取申请列表成功", apps)
}

func (h *Handler) GetMyApplication(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(ApplicationCtx).(*domain.Application)
	h.successResponse(w, r, "获取申请成功", app)
}

type updatedApplication struct {
	Application       *domain.Application `json:"application"`
	ShouldRecalculate bool                `json:"shouldRecalculate"`
	Reason            string              `json:"reason"`
}

// UpdateMyApplication 更新申请状态、优先级和进度
// 进入终态后该申请不再参与工作量统计，需要为其他申请重新检测冲突
func (h *Handler) UpdateMyApplication(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	app := r.Context().Value(ApplicationCtx).(*domain.Application)

	var req struct {
		Status                  *domain.ApplicationStatus `json:"status" validate:"omitempty,oneof=not_started in_progress submitted withdrawn decided"`
		PriorityTier            *int32                    `json:"priorityTier" validate:"omitempty,gte=1,lte=3"`
		EssaysCompleted         *int32                    `json:"essaysCompleted" validate:"omitempty,gte=0"`
		DocumentsUploaded       *int32                    `json:"documentsUploaded" validate:"omitempty,gte=0"`
		RecommendationsReceived *int32                    `json:"recommendationsReceived" validate:"omitempty,gte=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	wasTerminal := app.Status.IsTerminal()

	if req.Status != nil {
		if err := utils.ValidateStatusTransition(app.Status, *req.Status); err != nil {
			h.badRequest(w, r, err)
			return
		}
		app.Status = *req.Status
	}
	if req.PriorityTier != nil {
		app.PriorityTier = *req.PriorityTier
	}
	if req.EssaysCompleted != nil {
		app.Progress.EssaysCompleted = *req.EssaysCompleted
	}
	if req.DocumentsUploaded != nil {
		app.Progress.DocumentsUploaded = *req.DocumentsUploaded
	}
	if req.RecommendationsReceived != nil {
		app.Progress.RecommendationsReceived = *req.RecommendationsReceived
	}
	if err := utils.ValidateProgress(app.Progress); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateApplication(app); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			h.errorResponse(w, r, "申请已被修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	resp := updatedApplication{Application: app}

	if app.Status.IsTerminal() {
		if !wasTerminal {
			if _, err := h.redetectAll(myInfo); err != nil {
				slog.Warn("申请结束后检测冲突失败", "application_id", app.ID, "error", err)
			}
		}
	} else {
		schedule, err := h.repository.GetScheduleByApplicationID(app.ID)
		switch {
		case err == nil:
			resp.ShouldRecalculate, resp.Reason = h.planner.ShouldRecalculate(schedule, app.Progress, time.Now())
		case !errors.Is(err, sql.ErrNoRows):
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "更新申请成功", resp)
}
