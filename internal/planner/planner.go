// Package planner 根据奖学金的截止日期倒推每个申请的里程碑，
// 并按周汇总多个申请的工作量，找出超出可持续工时的周。
// 包内都是纯计算，持久化和并发控制由调用方负责。
package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

type Planner struct {
	parameters *Parameters
}

func New(parameters *Parameters) *Planner {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	return &Planner{parameters: parameters}
}

func (p *Planner) Parameters() *Parameters {
	return p.parameters
}

// ValidateDeadline 必须在 Plan 之前调用，Plan 本身不会拒绝过去的截止日期
func (p *Planner) ValidateDeadline(deadline time.Time, now time.Time) error {
	if !dateOnly(deadline).After(dateOnly(now)) {
		return fmt.Errorf("%w: %s", ErrDeadlineNotInFuture, dateOnly(deadline).Format(DateLayout))
	}
	return nil
}

// IsDeadlineClose 截止日期不足 CloseDeadlineDays 天时只给出提示，不拒绝
func (p *Planner) IsDeadlineClose(deadline time.Time, now time.Time) bool {
	return daysBetween(now, deadline) < p.parameters.CloseDeadlineDays
}

// Plan 从截止日期倒推里程碑
func (p *Planner) Plan(deadline time.Time, essayCount int32, recommendationCount int32) *MilestonePlan {
	d := dateOnly(deadline)

	// 推荐信依赖他人的时间，所以权重翻倍
	complexity := essayCount + 2*recommendationCount

	requestRecsLead := max(p.parameters.MinLeadDays, int(recommendationCount)*p.parameters.DaysPerRecommendation)
	startEssayLead := max(p.parameters.MinLeadDays, int(complexity)*p.parameters.DaysPerComplexityPoint)

	return &MilestonePlan{
		StartEssayDate:  d.AddDate(0, 0, -startEssayLead),
		RequestRecsDate: d.AddDate(0, 0, -requestRecsLead),
		UploadDocsDate:  d.AddDate(0, 0, -p.parameters.UploadDocsDays),
		FinalReviewDate: d.AddDate(0, 0, -p.parameters.FinalReviewDays),
		SubmitDate:      d.AddDate(0, 0, -p.parameters.SubmitBufferDays),
		Complexity:      complexity,
		EstimatedHours:  float64(complexity) * p.parameters.HoursPerComplexityPoint,
	}
}

// NewSchedule 为刚确认的申请生成排期
// 不需要推荐信时 requestRecs 为空，不需要作文时 startEssay 为空，避免空里程碑参与工作量统计
func (p *Planner) NewSchedule(app *domain.Application) *domain.Schedule {
	plan := p.Plan(app.Deadline, app.EssayCount, app.RecommendationCount)

	s := &domain.Schedule{
		ApplicationID:       app.ID,
		ApplicationName:     app.ScholarshipName,
		Deadline:            dateOnly(app.Deadline),
		EssayCount:          app.EssayCount,
		RecommendationCount: app.RecommendationCount,
		UploadDocsDate:      ptr(plan.UploadDocsDate),
		FinalReviewDate:     ptr(plan.FinalReviewDate),
		SubmitDate:          ptr(plan.SubmitDate),
		EstimatedHours:      int32(math.Round(plan.EstimatedHours)),
		HasConflicts:        false,
		ConflictsWith:       []int64{},
		Status:              domain.ScheduleStatusPlanned,
	}
	if app.EssayCount > 0 {
		s.StartEssayDate = ptr(plan.StartEssayDate)
	}
	if app.RecommendationCount > 0 {
		s.RequestRecsDate = ptr(plan.RequestRecsDate)
	}

	return s
}

// leadFloor 是每个里程碑距截止日期的最短提前量
func (p *Planner) leadFloor(m Milestone) int {
	switch m {
	case MilestoneStartEssay, MilestoneRequestRecs:
		return p.parameters.MinLeadDays
	case MilestoneUploadDocs:
		return p.parameters.UploadDocsDays
	case MilestoneFinalReview:
		return p.parameters.FinalReviewDays
	default:
		return p.parameters.SubmitBufferDays
	}
}
