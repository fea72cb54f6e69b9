package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
)

func (h *Handler) activeSchedules(w http.ResponseWriter, r *http.Request) ([]*domain.Schedule, bool) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	schedules, err := h.repository.GetActiveSchedulesByStudentID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return nil, false
	}
	return schedules, true
}

// GetWeeklyWorkload 按周汇总所有进行中申请的工作量，按时间顺序返回
func (h *Handler) GetWeeklyWorkload(w http.ResponseWriter, r *http.Request) {
	schedules, ok := h.activeSchedules(w, r)
	if !ok {
		return
	}

	weeks := planner.SortedWeeks(h.planner.Aggregate(schedules))

	h.successResponse(w, r, "获取每周工作量成功", weeks)
}

func (h *Handler) GetConflictReport(w http.ResponseWriter, r *http.Request) {
	schedules, ok := h.activeSchedules(w, r)
	if !ok {
		return
	}

	report := h.planner.Detect(schedules)
	metrics.RecordConflictedWeeks(len(report.ConflictedWeeks))

	h.successResponse(w, r, "获取冲突报告成功", report)
}

func (h *Handler) GetCapacityAdvice(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	schedules, ok := h.activeSchedules(w, r)
	if !ok {
		return
	}

	backlog, err := h.repository.GetApplicationsByStudentID(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	advice := h.planner.SuggestCapacity(schedules, backlog, time.Now())
	switch {
	case !advice.HasCapacity:
		metrics.RecordCapacityAdvice(metrics.CapacityNone)
	case advice.SuggestedApplication != nil:
		metrics.RecordCapacityAdvice(metrics.CapacitySuggested)
	default:
		metrics.RecordCapacityAdvice(metrics.CapacityEmptyBacklog)
	}

	h.successResponse(w, r, "获取容量建议成功", advice)
}

// GetOverlap 判断两个申请的排期是否落在同一周
func (h *Handler) GetOverlap(w http.ResponseWriter, r *http.Request) {
	a, errA := strconv.ParseInt(r.URL.Query().Get("a"), 10, 64)
	b, errB := strconv.ParseInt(r.URL.Query().Get("b"), 10, 64)
	if errA != nil || errB != nil {
		h.errorResponse(w, r, "申请ID无效")
		return
	}

	schedules, ok := h.activeSchedules(w, r)
	if !ok {
		return
	}

	first, second := overlapPair(schedules, a, b)
	if first == nil || second == nil {
		h.errorResponse(w, r, "排期不存在")
		return
	}

	h.successResponse(w, r, "获取排期重叠情况成功", map[string]bool{
		"overlaps": h.planner.Overlaps(first, second),
	})
}

// overlapPair 找出两个申请的排期，a 与 b 相同时两者指向同一个排期
func overlapPair(schedules []*domain.Schedule, a, b int64) (first, second *domain.Schedule) {
	for _, s := range schedules {
		if s.ApplicationID == a {
			first = s
		}
		if s.ApplicationID == b {
			second = s
		}
	}
	return first, second
}
