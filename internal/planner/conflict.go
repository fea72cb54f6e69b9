package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

// Detect 找出总工时严格超过阈值的周，仅作提示，不阻止排期
func (p *Planner) Detect(schedules []*domain.Schedule) *ConflictReport {
	report := &ConflictReport{
		ConflictedWeeks: make([]ConflictedWeek, 0),
	}

	conflictedApps := make(map[int64]struct{})

	for _, w := range SortedWeeks(p.Aggregate(schedules)) {
		if !p.exceedsThreshold(w.TotalHours) {
			continue
		}

		cw := ConflictedWeek{
			WeekStart:        w.WeekStart,
			WeekNumber:       w.Key.Week,
			Year:             w.Key.Year,
			TotalHours:       w.TotalHours,
			ApplicationIDs:   make([]int64, 0, len(w.Entries)),
			ApplicationNames: make([]string, 0, len(w.Entries)),
		}
		for _, entry := range w.Entries {
			cw.ApplicationIDs = append(cw.ApplicationIDs, entry.ApplicationID)
			cw.ApplicationNames = append(cw.ApplicationNames, entry.ApplicationName)
			conflictedApps[entry.ApplicationID] = struct{}{}
		}
		cw.WarningMessage = p.warningMessage(w, cw.ApplicationNames)

		report.ConflictedWeeks = append(report.ConflictedWeeks, cw)
	}

	report.HasConflicts = len(report.ConflictedWeeks) > 0
	report.TotalConflictedApplications = len(conflictedApps)

	return report
}

func (p *Planner) exceedsThreshold(totalHours float64) bool {
	return totalHours > p.parameters.ConflictThresholdHours
}

// warningMessage 例如 "Warning: Dec 15-21 has 22.0 hours scheduled across 3 applications (A, B, C)"
func (p *Planner) warningMessage(w *WeeklyWorkload, names []string) string {
	weekEnd := w.WeekStart.AddDate(0, 0, 6)

	shown := names
	overflow := ""
	if limit := p.parameters.MaxNamedApplications; limit > 0 && len(names) > limit {
		shown = names[:limit]
		overflow = fmt.Sprintf(", +%d more", len(names)-limit)
	}

	return fmt.Sprintf(
		"Warning: %s %d-%d has %.1f hours scheduled across %d applications (%s%s)",
		w.WeekStart.Format("Jan"),
		w.WeekStart.Day(),
		weekEnd.Day(),
		w.TotalHours,
		len(names),
		strings.Join(shown, ", "),
		overflow,
	)
}

// MarkConflicts 根据报告更新每个 schedule 的 HasConflicts 和 ConflictsWith，返回发生变化的 schedule
func (p *Planner) MarkConflicts(schedules []*domain.Schedule, report *ConflictReport) []*domain.Schedule {
	others := make(map[int64]map[int64]struct{})
	for _, week := range report.ConflictedWeeks {
		for _, id := range week.ApplicationIDs {
			if _, exists := others[id]; !exists {
				others[id] = make(map[int64]struct{})
			}
			for _, other := range week.ApplicationIDs {
				if other != id {
					others[id][other] = struct{}{}
				}
			}
		}
	}

	changed := make([]*domain.Schedule, 0)
	for _, s := range schedules {
		conflictsWith := make([]int64, 0, len(others[s.ApplicationID]))
		for id := range others[s.ApplicationID] {
			conflictsWith = append(conflictsWith, id)
		}
		slices.Sort(conflictsWith)

		_, inConflictedWeek := others[s.ApplicationID]
		if s.HasConflicts == inConflictedWeek && slices.Equal(s.ConflictsWith, conflictsWith) {
			continue
		}

		s.HasConflicts = inConflictedWeek
		s.ConflictsWith = conflictsWith
		changed = append(changed, s)
	}

	return changed
}

// Overlaps 判断两个 schedule 是否有活跃里程碑落在同一个 ISO 周
func (p *Planner) Overlaps(a *domain.Schedule, b *domain.Schedule) bool {
	_, weeksOfA := activeWeeks(a)
	keysOfB, _ := activeWeeks(b)
	for _, key := range keysOfB {
		if _, exists := weeksOfA[key]; exists {
			return true
		}
	}
	return false
}
