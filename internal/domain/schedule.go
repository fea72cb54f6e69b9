package domain

import "time"

type ScheduleStatus string

const (
	ScheduleStatusPlanned  ScheduleStatus = "planned"
	ScheduleStatusDeferred ScheduleStatus = "deferred"
)

// Schedule 是某个申请的五个里程碑以及预估工作量
// 里程碑日期为 nil 表示该里程碑不适用（例如不需要推荐信）
type Schedule struct {
	ID                  int64          `json:"id"`
	ApplicationID       int64          `json:"applicationID"`
	ApplicationName     string         `json:"applicationName"`
	Deadline            time.Time      `json:"deadline"`
	EssayCount          int32          `json:"essayCount"`
	RecommendationCount int32          `json:"recommendationCount"`
	StartEssayDate      *time.Time     `json:"startEssayDate"`
	RequestRecsDate     *time.Time     `json:"requestRecsDate"`
	UploadDocsDate      *time.Time     `json:"uploadDocsDate"`
	FinalReviewDate     *time.Time     `json:"finalReviewDate"`
	SubmitDate          *time.Time     `json:"submitDate"`
	EstimatedHours      int32          `json:"estimatedHours"`
	HasConflicts        bool           `json:"hasConflicts"`
	ConflictsWith       []int64        `json:"conflictsWith"`
	Status              ScheduleStatus `json:"status"`
	DeferredDays        int32          `json:"deferredDays"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	Version             int32          `json:"-"`
}

// Clone 返回深拷贝，避免调整排期时修改调用方持有的记录
func (s *Schedule) Clone() *Schedule {
	c := *s
	c.StartEssayDate = cloneTime(s.StartEssayDate)
	c.RequestRecsDate = cloneTime(s.RequestRecsDate)
	c.UploadDocsDate = cloneTime(s.UploadDocsDate)
	c.FinalReviewDate = cloneTime(s.FinalReviewDate)
	c.SubmitDate = cloneTime(s.SubmitDate)
	c.ConflictsWith = append([]int64{}, s.ConflictsWith...)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
