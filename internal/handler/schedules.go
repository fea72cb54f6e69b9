package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/repository"
)

var errScheduleLocked = errors.New("schedule is being modified by another request")

// 只有持有者才能释放锁，避免锁过期后误删其他请求的锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func scheduleLockKey(applicationID int64) string {
	return fmt.Sprintf("schedule_lock_%d", applicationID)
}

// lockSchedule 保证同一个排期同时只有一个重新计算或推迟请求
// 数据库中的版本号检查是第二道防线
func (h *Handler) lockSchedule(r *http.Request, applicationID int64) (func(), error) {
	token, _ := r.Context().Value(RequestIDCtxKey).(string)
	key := scheduleLockKey(applicationID)

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	ok, err := h.redisClient.SetNX(ctx, key, token, time.Duration(h.config.Redis.ScheduleLockTTL)*time.Second).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.ScheduleLockContention.Inc()
		return nil, errScheduleLocked
	}

	return func() {
		ctx, cancel := h.redisContext(context.Background())
		defer cancel()
		if err := releaseLockScript.Run(ctx, h.redisClient, []string{key}, token).Err(); err != nil {
			slog.Warn("释放排期锁失败", "key", key, "error", err)
		}
	}, nil
}

// schedulesToSave 合并被修改的排期和冲突标记发生变化的排期，按 ID 去重
func schedulesToSave(updated *domain.Schedule, changed []*domain.Schedule) []*domain.Schedule {
	result := make([]*domain.Schedule, 0, len(changed)+1)
	seen := make(map[int64]bool, len(changed)+1)
	if updated != nil {
		result = append(result, updated)
		seen[updated.ID] = true
	}
	for _, s := range changed {
		if !seen[s.ID] {
			result = append(result, s)
			seen[s.ID] = true
		}
	}
	return result
}

// notifyConflicts 在冲突标记发生变化且存在冲突时发送提醒邮件，发送失败只记录日志
func (h *Handler) notifyConflicts(student *domain.User, redetection *planner.Redetection) {
	metrics.RecordConflictedWeeks(len(redetection.Report.ConflictedWeeks))
	if !redetection.Report.HasConflicts || len(redetection.Changed) == 0 {
		return
	}

	err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeWorkloadConflict,
		To:   student.Email,
		Data: domain.WorkloadConflictMailData{
			FullName: student.FullName,
			Warnings: redetection.Report.Warnings(),
		},
	})
	if err != nil {
		slog.Warn("发送工作量冲突提醒失败", "student_id", student.ID, "error", err)
	}
}

func (h *Handler) notifyAtRisk(student *domain.User, schedule *domain.Schedule, result *planner.RecalculationResult) {
	err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeScheduleAtRisk,
		To:   student.Email,
		Data: domain.ScheduleAtRiskMailData{
			FullName:        student.FullName,
			ApplicationName: schedule.ApplicationName,
			Reason:          result.AdjustmentReason,
			Warnings:        result.Warnings,
		},
	})
	if err != nil {
		slog.Warn("发送排期风险提醒失败", "student_id", student.ID, "error", err)
	}
}

// redetectAll 在学生的所有有效排期上重新检测冲突并保存变化的冲突标记
// 用于新建申请或申请结束之后，这两种情况下没有单个被修改的排期
func (h *Handler) redetectAll(student *domain.User) (*planner.ConflictReport, error) {
	schedules, err := h.repository.GetActiveSchedulesByStudentID(student.ID)
	if err != nil {
		return nil, err
	}

	report := h.planner.Detect(schedules)
	redetection := &planner.Redetection{
		Report:  report,
		Changed: h.planner.MarkConflicts(schedules, report),
	}

	if len(redetection.Changed) > 0 {
		if err := h.repository.UpdateSchedules(redetection.Changed); err != nil {
			return nil, err
		}
	}
	h.notifyConflicts(student, redetection)

	return report, nil
}

type scheduleView struct {
	Schedule          *domain.Schedule `json:"schedule"`
	IsDeadlineClose   bool             `json:"isDeadlineClose"`
	ShouldRecalculate bool             `json:"shouldRecalculate"`
	Reason            string           `json:"reason"`
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(ApplicationCtx).(*domain.Application)

	schedule, err := h.repository.GetScheduleByApplicationID(app.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排期不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	now := time.Now()
	view := scheduleView{
		Schedule:        schedule,
		IsDeadlineClose: h.planner.IsDeadlineClose(schedule.Deadline, now),
	}
	if !app.Status.IsTerminal() {
		view.ShouldRecalculate, view.Reason = h.planner.ShouldRecalculate(schedule, app.Progress, now)
	}

	h.successResponse(w, r, "获取排期成功", view)
}

// mutationError 处理重新计算和推迟过程中的错误
func (h *Handler) mutationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errScheduleLocked):
		h.retryResponse(w, r, "排期正在被修改，请稍后重试")
	case errors.Is(err, planner.ErrScheduleNotFound):
		h.errorResponse(w, r, "排期不存在")
	case errors.Is(err, planner.ErrInvalidDeferralDays):
		h.errorResponse(w, r, fmt.Sprintf("推迟天数必须在 1 到 %d 之间", h.planner.Parameters().MaxDeferralDays))
	case errors.Is(err, repository.ErrVersionConflict):
		h.retryResponse(w, r, "排期已被修改，请重试")
	default:
		h.internalServerError(w, r, err)
	}
}

type recalculationView struct {
	*planner.RecalculationResult
	Conflicts *planner.ConflictReport `json:"conflicts"`
}

func (h *Handler) RecalculateSchedule(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	app := r.Context().Value(ApplicationCtx).(*domain.Application)

	unlock, err := h.lockSchedule(r, app.ID)
	if err != nil {
		h.mutationError(w, r, err)
		return
	}
	defer unlock()

	schedules, err := h.repository.GetActiveSchedulesByStudentID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	result, redetection, err := h.planner.RecalculateAndDetect(schedules, app.ID, app.Progress, time.Now())
	if err != nil {
		h.mutationError(w, r, err)
		return
	}
	metrics.RecordRecalculation(result.IsAdjusted, result.IsAtRisk)

	var updated *domain.Schedule
	if result.IsAdjusted {
		updated = result.UpdatedSchedule
	}
	if toSave := schedulesToSave(updated, redetection.Changed); len(toSave) > 0 {
		if err := h.repository.UpdateSchedules(toSave); err != nil {
			h.mutationError(w, r, err)
			return
		}
	}

	h.notifyConflicts(myInfo, redetection)
	if result.IsAtRisk {
		h.notifyAtRisk(myInfo, result.UpdatedSchedule, result)
	}

	msg := "排期无需调整"
	if result.IsAdjusted {
		msg = "排期已重新计算"
	}
	h.successResponse(w, r, msg, recalculationView{
		RecalculationResult: result,
		Conflicts:           redetection.Report,
	})
}

type deferralView struct {
	*planner.DeferralResult
	Conflicts *planner.ConflictReport `json:"conflicts"`
}

func (h *Handler) DeferSchedule(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	app := r.Context().Value(ApplicationCtx).(*domain.Application)

	var req struct {
		Days int `json:"days" validate:"required,gte=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	unlock, err := h.lockSchedule(r, app.ID)
	if err != nil {
		h.mutationError(w, r, err)
		return
	}
	defer unlock()

	schedules, err := h.repository.GetActiveSchedulesByStudentID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	result, redetection, err := h.planner.DeferAndDetect(schedules, app.ID, req.Days)
	if err != nil {
		h.mutationError(w, r, err)
		return
	}

	if err := h.repository.UpdateSchedules(schedulesToSave(result.UpdatedSchedule, redetection.Changed)); err != nil {
		h.mutationError(w, r, err)
		return
	}
	metrics.RecordDeferral(len(result.Held) > 0)

	h.notifyConflicts(myInfo, redetection)

	h.successResponse(w, r, "排期已推迟", deferralView{
		DeferralResult: result,
		Conflicts:      redetection.Report,
	})
}
