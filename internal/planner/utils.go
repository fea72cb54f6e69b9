package planner

import (
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

const DateLayout = "2006-01-02"

// dateOnly 丢弃时分秒，只保留日历日期
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween 返回从 from 到 to 的日历天数（可以为负）
func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}

func weekKeyOf(t time.Time) WeekKey {
	year, week := t.ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// mondayOf 返回 t 所在 ISO 周的周一
func mondayOf(t time.Time) time.Time {
	d := dateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func ptr(t time.Time) *time.Time {
	return &t
}

type milestoneField struct {
	milestone Milestone
	date      **time.Time
}

// milestoneFields 按时间先后返回里程碑字段，通过指针可以直接修改 schedule
func milestoneFields(s *domain.Schedule) []milestoneField {
	return []milestoneField{
		{MilestoneStartEssay, &s.StartEssayDate},
		{MilestoneRequestRecs, &s.RequestRecsDate},
		{MilestoneUploadDocs, &s.UploadDocsDate},
		{MilestoneFinalReview, &s.FinalReviewDate},
		{MilestoneSubmit, &s.SubmitDate},
	}
}

// activeDates 返回参与工作量统计的里程碑日期，提交日只是一个动作，不计入
func activeDates(s *domain.Schedule) []time.Time {
	dates := make([]time.Time, 0, 4)
	for _, f := range milestoneFields(s) {
		if f.milestone == MilestoneSubmit || *f.date == nil {
			continue
		}
		dates = append(dates, dateOnly(**f.date))
	}
	return dates
}

// activeWeeks 返回 schedule 的活跃里程碑所覆盖的不同 ISO 周，按出现顺序排列
func activeWeeks(s *domain.Schedule) ([]WeekKey, map[WeekKey]time.Time) {
	keys := make([]WeekKey, 0, 4)
	starts := make(map[WeekKey]time.Time)
	for _, d := range activeDates(s) {
		key := weekKeyOf(d)
		if _, exists := starts[key]; exists {
			continue
		}
		starts[key] = mondayOf(d)
		keys = append(keys, key)
	}
	return keys, starts
}
