package planner

import (
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

// Aggregate 将每个 schedule 的预估工时平均分配到其活跃里程碑覆盖的各个 ISO 周
// 没有活跃里程碑或预估工时为 0 的 schedule 不贡献任何工时
func (p *Planner) Aggregate(schedules []*domain.Schedule) map[WeekKey]*WeeklyWorkload {
	weeks := make(map[WeekKey]*WeeklyWorkload)

	for _, s := range schedules {
		keys, starts := activeWeeks(s)
		if len(keys) == 0 || s.EstimatedHours <= 0 {
			continue
		}

		// 平均分配：没有更细粒度的信息时这是偏差最小的估计
		share := float64(s.EstimatedHours) / float64(len(keys))

		for _, key := range keys {
			w, exists := weeks[key]
			if !exists {
				w = &WeeklyWorkload{
					Key:       key,
					WeekStart: starts[key],
					Entries:   make([]WorkloadEntry, 0),
				}
				weeks[key] = w
			}

			w.Entries = append(w.Entries, WorkloadEntry{
				ScheduleID:      s.ID,
				ApplicationID:   s.ApplicationID,
				ApplicationName: s.ApplicationName,
				Hours:           share,
			})
			w.TotalHours += share
		}
	}

	return weeks
}

// SortedWeeks 按周一日期升序返回
func SortedWeeks(weeks map[WeekKey]*WeeklyWorkload) []*WeeklyWorkload {
	sorted := make([]*WeeklyWorkload, 0, len(weeks))
	for _, w := range weeks {
		sorted = append(sorted, w)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].WeekStart.Before(sorted[j].WeekStart)
	})
	return sorted
}

// HoursInWeekOf 返回 t 所在周已经安排的总工时
func (p *Planner) HoursInWeekOf(schedules []*domain.Schedule, t time.Time) float64 {
	w, exists := p.Aggregate(schedules)[weekKeyOf(dateOnly(t))]
	if !exists {
		return 0
	}
	return w.TotalHours
}
