package planner

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

// milestoneProgressed 判断里程碑对应的进度计数是否已有进展
func milestoneProgressed(m Milestone, progress domain.ApplicationProgress) bool {
	switch m {
	case MilestoneStartEssay:
		return progress.EssaysRequired == 0 || progress.EssaysCompleted > 0
	case MilestoneRequestRecs:
		return progress.RecommendationsRequired == 0 || progress.RecommendationsReceived > 0
	case MilestoneUploadDocs:
		return progress.DocumentsRequired == 0 || progress.DocumentsUploaded > 0
	case MilestoneFinalReview:
		// 所有材料齐全才算可以进入终审
		return progress.EssaysCompleted >= progress.EssaysRequired &&
			progress.DocumentsUploaded >= progress.DocumentsRequired &&
			progress.RecommendationsReceived >= progress.RecommendationsRequired
	default:
		return false
	}
}

// ShouldRecalculate 当某个里程碑的计划日期已过而对应进度仍为 0 时需要重新计算
func (p *Planner) ShouldRecalculate(s *domain.Schedule, progress domain.ApplicationProgress, now time.Time) (bool, string) {
	today := dateOnly(now)

	for _, f := range milestoneFields(s) {
		if *f.date == nil || !dateOnly(**f.date).Before(today) {
			continue
		}
		if milestoneProgressed(f.milestone, progress) {
			continue
		}
		return true, fmt.Sprintf("%s was planned for %s but shows no progress", f.milestone, (**f.date).Format(DateLayout))
	}

	return false, ""
}

// Recalculate 将剩余的里程碑按比例压缩到 [今天, 截止日期] 之间，截止日期本身永远不动
// 压缩后任何里程碑的提前量低于最低要求时标记为 at risk
func (p *Planner) Recalculate(s *domain.Schedule, progress domain.ApplicationProgress, now time.Time) *RecalculationResult {
	result := &RecalculationResult{
		UpdatedSchedule: s.Clone(),
		Warnings:        make([]string, 0),
	}

	should, reason := p.ShouldRecalculate(s, progress, now)
	if !should {
		return result
	}
	result.AdjustmentReason = reason

	deadline := dateOnly(s.Deadline)
	available := daysBetween(now, deadline)
	if available < 0 {
		result.IsAtRisk = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("Deadline %s has already passed", deadline.Format(DateLayout)))
		return result
	}

	updated := result.UpdatedSchedule

	// 找出剩余里程碑中最大的提前量，所有剩余里程碑按同一比例缩放
	maxLead := 0
	for _, f := range milestoneFields(updated) {
		if *f.date == nil || milestoneProgressed(f.milestone, progress) {
			continue
		}
		maxLead = max(maxLead, daysBetween(**f.date, deadline))
	}

	for _, f := range milestoneFields(updated) {
		if *f.date == nil || milestoneProgressed(f.milestone, progress) {
			continue
		}

		lead := daysBetween(**f.date, deadline)
		if maxLead > available {
			lead = max(0, lead) * available / maxLead
		}
		lead = min(max(lead, p.minCompressedLead(f.milestone, available)), available)
		*f.date = ptr(deadline.AddDate(0, 0, -lead))

		if floor := p.leadFloor(f.milestone); lead < floor {
			result.IsAtRisk = true
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s on %s leaves %d days before the deadline, below the %d-day minimum",
				f.milestone, (**f.date).Format(DateLayout), lead, floor,
			))
		}
	}

	updated.Status = domain.ScheduleStatusPlanned
	result.IsAdjusted = true

	return result
}

// minCompressedLead 是压缩后允许的最小提前量
// 提交日至少保留 SubmitBufferDays，其余里程碑必须严格早于截止日期，剩余天数不足时以剩余天数为准
func (p *Planner) minCompressedLead(m Milestone, available int) int {
	lead := 1
	if m == MilestoneSubmit {
		lead = p.parameters.SubmitBufferDays
	}
	return min(lead, available)
}

// RecalculateAndDetect 重新计算某个申请的排期，并在替换后的整体排期上重新检测冲突
func (p *Planner) RecalculateAndDetect(schedules []*domain.Schedule, applicationID int64, progress domain.ApplicationProgress, now time.Time) (*RecalculationResult, *Redetection, error) {
	idx := indexOf(schedules, applicationID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: application %d", ErrScheduleNotFound, applicationID)
	}

	result := p.Recalculate(schedules[idx], progress, now)

	return result, p.replaceAndDetect(schedules, idx, result.UpdatedSchedule), nil
}

func indexOf(schedules []*domain.Schedule, applicationID int64) int {
	for i, s := range schedules {
		if s.ApplicationID == applicationID {
			return i
		}
	}
	return -1
}

// replaceAndDetect 用 updated 替换第 idx 个 schedule 后重新检测冲突，并同步冲突标记
func (p *Planner) replaceAndDetect(schedules []*domain.Schedule, idx int, updated *domain.Schedule) *Redetection {
	snapshot := make([]*domain.Schedule, len(schedules))
	copy(snapshot, schedules)
	snapshot[idx] = updated

	report := p.Detect(snapshot)

	return &Redetection{
		Report:  report,
		Changed: p.MarkConflicts(snapshot, report),
	}
}
