package planner

import (
	"fmt"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

// Defer 把 schedule 的所有里程碑统一往后推迟 days 天
// 截止日期不会移动：超过截止日期的里程碑会停在截止日期前一天，提交日停在截止日期当天
func (p *Planner) Defer(s *domain.Schedule, days int) (*DeferralResult, error) {
	if s == nil {
		return nil, ErrScheduleNotFound
	}
	if days < 1 || days > p.parameters.MaxDeferralDays {
		return nil, fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidDeferralDays, p.parameters.MaxDeferralDays, days)
	}

	updated := s.Clone()
	deadline := dateOnly(s.Deadline)

	held := make([]Milestone, 0)
	for _, f := range milestoneFields(updated) {
		if *f.date == nil {
			continue
		}

		limit := deadline.AddDate(0, 0, -1)
		if f.milestone == MilestoneSubmit {
			limit = deadline
		}

		shifted := dateOnly(**f.date).AddDate(0, 0, days)
		if shifted.After(limit) {
			shifted = limit
			held = append(held, f.milestone)
		}
		*f.date = ptr(shifted)
	}

	updated.Status = domain.ScheduleStatusDeferred
	updated.DeferredDays += int32(days)

	message := fmt.Sprintf("%s deferred by %d days", updated.ApplicationName, days)
	if len(held) > 0 {
		message += fmt.Sprintf("; %v held at the deadline, expect a compressed final push", held)
	}

	return &DeferralResult{
		UpdatedSchedule: updated,
		Message:         message,
		Held:            held,
	}, nil
}

// DeferAndDetect 推迟某个申请的排期，并在替换后的整体排期上重新检测冲突
func (p *Planner) DeferAndDetect(schedules []*domain.Schedule, applicationID int64, days int) (*DeferralResult, *Redetection, error) {
	idx := indexOf(schedules, applicationID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: application %d", ErrScheduleNotFound, applicationID)
	}

	result, err := p.Defer(schedules[idx], days)
	if err != nil {
		return nil, nil, err
	}
	return result, p.replaceAndDetect(schedules, idx, result.UpdatedSchedule), nil
}
