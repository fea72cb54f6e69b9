package planner

import (
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

const (
	ConflictThresholdHours  = 15.0 // 每周可持续投入的工时上限（严格大于才算冲突）
	CapacityFloorHours      = 10.0 // 本周工时低于该值时才建议开始新的申请
	HoursPerComplexityPoint = 2.5
	MinLeadDays             = 14
	DaysPerRecommendation   = 7
	DaysPerComplexityPoint  = 3
	SubmitBufferDays        = 1
	FinalReviewDays         = 3
	UploadDocsDays          = 7
	CloseDeadlineDays       = 7
	MaxDeferralDays         = 30
	MaxNamedApplications    = 3
)

var (
	ErrDeadlineNotInFuture = errors.New("deadline must be after today")
	ErrInvalidDeferralDays = errors.New("invalid deferral days")
	ErrScheduleNotFound    = errors.New("schedule not found")
)

// 排期参数
type Parameters struct {
	ConflictThresholdHours  float64
	CapacityFloorHours      float64
	HoursPerComplexityPoint float64
	MinLeadDays             int
	DaysPerRecommendation   int
	DaysPerComplexityPoint  int
	SubmitBufferDays        int
	FinalReviewDays         int
	UploadDocsDays          int
	CloseDeadlineDays       int
	MaxDeferralDays         int
	MaxNamedApplications    int
}

// ParametersFromConfig 从环境变量配置中读取排期参数
func ParametersFromConfig(cfg *config.Config) *Parameters {
	return &Parameters{
		ConflictThresholdHours:  cfg.Planner.ConflictThresholdHours,
		CapacityFloorHours:      cfg.Planner.CapacityFloorHours,
		HoursPerComplexityPoint: cfg.Planner.HoursPerComplexityPoint,
		MinLeadDays:             cfg.Planner.MinLeadDays,
		DaysPerRecommendation:   cfg.Planner.DaysPerRecommendation,
		DaysPerComplexityPoint:  cfg.Planner.DaysPerComplexityPoint,
		SubmitBufferDays:        cfg.Planner.SubmitBufferDays,
		FinalReviewDays:         cfg.Planner.FinalReviewDays,
		UploadDocsDays:          cfg.Planner.UploadDocsDays,
		CloseDeadlineDays:       cfg.Planner.CloseDeadlineDays,
		MaxDeferralDays:         cfg.Planner.MaxDeferralDays,
		MaxNamedApplications:    cfg.Planner.MaxNamedApplications,
	}
}

func DefaultParameters() *Parameters {
	return &Parameters{
		ConflictThresholdHours:  ConflictThresholdHours,
		CapacityFloorHours:      CapacityFloorHours,
		HoursPerComplexityPoint: HoursPerComplexityPoint,
		MinLeadDays:             MinLeadDays,
		DaysPerRecommendation:   DaysPerRecommendation,
		DaysPerComplexityPoint:  DaysPerComplexityPoint,
		SubmitBufferDays:        SubmitBufferDays,
		FinalReviewDays:         FinalReviewDays,
		UploadDocsDays:          UploadDocsDays,
		CloseDeadlineDays:       CloseDeadlineDays,
		MaxDeferralDays:         MaxDeferralDays,
		MaxNamedApplications:    MaxNamedApplications,
	}
}

type Milestone string

const (
	MilestoneStartEssay  Milestone = "startEssay"
	MilestoneRequestRecs Milestone = "requestRecs"
	MilestoneUploadDocs  Milestone = "uploadDocs"
	MilestoneFinalReview Milestone = "finalReview"
	MilestoneSubmit      Milestone = "submit"
)

// MilestonePlan 是倒推出的五个里程碑日期，以及预估工时
type MilestonePlan struct {
	StartEssayDate  time.Time `json:"startEssayDate"`
	RequestRecsDate time.Time `json:"requestRecsDate"`
	UploadDocsDate  time.Time `json:"uploadDocsDate"`
	FinalReviewDate time.Time `json:"finalReviewDate"`
	SubmitDate      time.Time `json:"submitDate"`
	Complexity      int32     `json:"complexity"`
	EstimatedHours  float64   `json:"estimatedHours"`
}

// WeekKey: ISO 周（周一为一周的开始）
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

type WorkloadEntry struct {
	ScheduleID      int64   `json:"scheduleID"`
	ApplicationID   int64   `json:"applicationID"`
	ApplicationName string  `json:"applicationName"`
	Hours           float64 `json:"hours"`
}

// WeeklyWorkload 只在计算时存在，不做持久化
type WeeklyWorkload struct {
	Key        WeekKey         `json:"key"`
	WeekStart  time.Time       `json:"weekStart"`
	Entries    []WorkloadEntry `json:"entries"`
	TotalHours float64         `json:"totalHours"`
}

type ConflictedWeek struct {
	WeekStart        time.Time `json:"weekStart"`
	WeekNumber       int       `json:"weekNumber"`
	Year             int       `json:"year"`
	TotalHours       float64   `json:"totalHours"`
	ApplicationIDs   []int64   `json:"applicationIds"`
	ApplicationNames []string  `json:"applicationNames"`
	WarningMessage   string    `json:"warningMessage"`
}

type ConflictReport struct {
	HasConflicts                bool             `json:"hasConflicts"`
	ConflictedWeeks             []ConflictedWeek `json:"conflictedWeeks"`
	TotalConflictedApplications int              `json:"totalConflictedApplications"`
}

// Warnings 返回所有冲突周的提示信息
func (r *ConflictReport) Warnings() []string {
	warnings := make([]string, 0, len(r.ConflictedWeeks))
	for _, week := range r.ConflictedWeeks {
		warnings = append(warnings, week.WarningMessage)
	}
	return warnings
}

// Redetection 是替换某个 schedule 后重新检测的结果，Changed 为冲突标记发生变化的 schedule
type Redetection struct {
	Report  *ConflictReport
	Changed []*domain.Schedule
}

type RecalculationResult struct {
	UpdatedSchedule  *domain.Schedule `json:"updatedSchedule"`
	IsAdjusted       bool             `json:"isAdjusted"`
	Warnings         []string         `json:"warnings"`
	IsAtRisk         bool             `json:"isAtRisk"`
	AdjustmentReason string           `json:"adjustmentReason"`
}

type DeferralResult struct {
	UpdatedSchedule *domain.Schedule `json:"updatedSchedule"`
	Message         string           `json:"message"`
	Held            []Milestone      `json:"held"` // 被截止日期挡住、没有完整推迟的里程碑
}

type CapacityAdvice struct {
	HasCapacity          bool                `json:"hasCapacity"`
	CurrentWeeklyHours   float64             `json:"currentWeeklyHours"`
	SuggestedApplication *domain.Application `json:"suggestedApplication"`
}
