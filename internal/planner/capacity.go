package planner

import (
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

// FilterActive 去掉已经处于终态（已提交、已撤回、已出结果）的申请
func FilterActive(apps []*domain.Application) []*domain.Application {
	active := make([]*domain.Application, 0, len(apps))
	for _, app := range apps {
		if !app.Status.IsTerminal() {
			active = append(active, app)
		}
	}
	return active
}

// SuggestCapacity 本周已安排的工时低于容量下限时，从尚未开始的申请中推荐一个
// 推荐顺序：优先级高的在前，其次是截止日期更早的
func (p *Planner) SuggestCapacity(active []*domain.Schedule, backlog []*domain.Application, now time.Time) *CapacityAdvice {
	advice := &CapacityAdvice{
		CurrentWeeklyHours: p.HoursInWeekOf(active, now),
	}

	if advice.CurrentWeeklyHours >= p.parameters.CapacityFloorHours {
		return advice
	}
	advice.HasCapacity = true

	candidates := make([]*domain.Application, 0, len(backlog))
	for _, app := range FilterActive(backlog) {
		if app.Status != domain.ApplicationStatusNotStarted {
			continue
		}
		if err := p.ValidateDeadline(app.Deadline, now); err != nil {
			continue
		}
		candidates = append(candidates, app)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].PriorityTier != candidates[j].PriorityTier {
			return candidates[i].PriorityTier < candidates[j].PriorityTier
		}
		if !candidates[i].Deadline.Equal(candidates[j].Deadline) {
			return candidates[i].Deadline.Before(candidates[j].Deadline)
		}
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > 0 {
		advice.SuggestedApplication = candidates[0]
	}

	return advice
}
