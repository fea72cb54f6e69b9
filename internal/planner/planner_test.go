package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanBackwardFromDeadline(t *testing.T) {
	p := New(nil)

	plan := p.Plan(date(2025, 12, 31), 2, 1)

	assert.Equal(t, int32(4), plan.Complexity)
	assert.Equal(t, 10.0, plan.EstimatedHours)
	assert.Equal(t, date(2025, 12, 30), plan.SubmitDate)
	assert.Equal(t, date(2025, 12, 28), plan.FinalReviewDate)
	assert.Equal(t, date(2025, 12, 24), plan.UploadDocsDate)
	// 1 封推荐信只需要 7 天，但最少提前 14 天
	assert.Equal(t, date(2025, 12, 17), plan.RequestRecsDate)
	// 复杂度 4 只需要 12 天，同样取 14 天下限
	assert.Equal(t, date(2025, 12, 17), plan.StartEssayDate)
}

func TestPlanIgnoresTimeOfDay(t *testing.T) {
	p := New(nil)

	a := p.Plan(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), 3, 2)
	b := p.Plan(date(2025, 12, 31), 3, 2)

	assert.Equal(t, b, a)
}

func TestPlanIsDeterministic(t *testing.T) {
	p := New(nil)

	first := p.Plan(date(2026, 3, 15), 4, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Plan(date(2026, 3, 15), 4, 3))
	}
}

func TestPlanRequestRecsLeadTime(t *testing.T) {
	p := New(nil)
	deadline := date(2026, 6, 30)

	tests := []struct {
		recommendations int32
		wantLead        int
	}{
		{0, 14},
		{1, 14},
		{2, 14},
		{3, 21},
		{4, 28},
		{6, 42},
	}

	previous := 0
	for _, tt := range tests {
		plan := p.Plan(deadline, 1, tt.recommendations)
		lead := daysBetween(plan.RequestRecsDate, deadline)
		assert.Equal(t, tt.wantLead, lead, "recommendations=%d", tt.recommendations)
		assert.GreaterOrEqual(t, lead, previous)
		previous = lead
	}
}

func TestPlanStartEssayScalesWithComplexity(t *testing.T) {
	p := New(nil)
	deadline := date(2025, 12, 31)

	plan := p.Plan(deadline, 5, 2)

	assert.Equal(t, int32(9), plan.Complexity)
	assert.Equal(t, 22.5, plan.EstimatedHours)
	assert.Equal(t, 27, daysBetween(plan.StartEssayDate, deadline))
	assert.Equal(t, date(2025, 12, 4), plan.StartEssayDate)
}

func TestPlanSubmitIsAlwaysDayBeforeDeadline(t *testing.T) {
	p := New(nil)
	deadline := date(2026, 2, 1)

	for essays := int32(0); essays < 6; essays++ {
		for recs := int32(0); recs < 6; recs++ {
			plan := p.Plan(deadline, essays, recs)
			assert.Equal(t, date(2026, 1, 31), plan.SubmitDate)
			assert.True(t, plan.FinalReviewDate.Before(deadline))
			assert.True(t, plan.UploadDocsDate.Before(deadline))
			assert.True(t, plan.RequestRecsDate.Before(deadline))
			assert.True(t, plan.StartEssayDate.Before(deadline))
		}
	}
}

func TestPlanUsesParameters(t *testing.T) {
	params := DefaultParameters()
	params.MinLeadDays = 21
	params.HoursPerComplexityPoint = 3
	p := New(params)

	plan := p.Plan(date(2025, 12, 31), 2, 1)

	assert.Equal(t, 12.0, plan.EstimatedHours)
	assert.Equal(t, date(2025, 12, 10), plan.StartEssayDate)
	assert.Equal(t, date(2025, 12, 10), plan.RequestRecsDate)
}

func TestNewSchedule(t *testing.T) {
	p := New(nil)

	app := &domain.Application{
		ID:                  42,
		ScholarshipName:     "Gates Scholarship",
		Deadline:            time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC),
		EssayCount:          2,
		RecommendationCount: 1,
	}

	s := p.NewSchedule(app)

	assert.Equal(t, int64(42), s.ApplicationID)
	assert.Equal(t, "Gates Scholarship", s.ApplicationName)
	assert.Equal(t, date(2025, 12, 31), s.Deadline)
	require.NotNil(t, s.StartEssayDate)
	require.NotNil(t, s.RequestRecsDate)
	assert.Equal(t, date(2025, 12, 17), *s.StartEssayDate)
	assert.Equal(t, date(2025, 12, 17), *s.RequestRecsDate)
	assert.Equal(t, date(2025, 12, 24), *s.UploadDocsDate)
	assert.Equal(t, date(2025, 12, 28), *s.FinalReviewDate)
	assert.Equal(t, date(2025, 12, 30), *s.SubmitDate)
	assert.Equal(t, int32(10), s.EstimatedHours)
	assert.False(t, s.HasConflicts)
	assert.Empty(t, s.ConflictsWith)
	assert.Equal(t, domain.ScheduleStatusPlanned, s.Status)
}

func TestNewScheduleOmitsInapplicableMilestones(t *testing.T) {
	p := New(nil)

	t.Run("no recommendations", func(t *testing.T) {
		s := p.NewSchedule(&domain.Application{Deadline: date(2025, 12, 31), EssayCount: 3})
		assert.NotNil(t, s.StartEssayDate)
		assert.Nil(t, s.RequestRecsDate)
		// 7.5 小时四舍五入后保存
		assert.Equal(t, int32(8), s.EstimatedHours)
	})

	t.Run("nothing required", func(t *testing.T) {
		s := p.NewSchedule(&domain.Application{Deadline: date(2025, 12, 31)})
		assert.Nil(t, s.StartEssayDate)
		assert.Nil(t, s.RequestRecsDate)
		assert.NotNil(t, s.SubmitDate)
		assert.Equal(t, int32(0), s.EstimatedHours)
	})
}

func TestValidateDeadline(t *testing.T) {
	p := New(nil)
	now := time.Date(2025, 12, 30, 15, 0, 0, 0, time.UTC)

	assert.NoError(t, p.ValidateDeadline(date(2025, 12, 31), now))

	err := p.ValidateDeadline(time.Date(2025, 12, 30, 23, 59, 0, 0, time.UTC), now)
	assert.True(t, errors.Is(err, ErrDeadlineNotInFuture))

	err = p.ValidateDeadline(date(2025, 11, 1), now)
	assert.ErrorIs(t, err, ErrDeadlineNotInFuture)
}

func TestIsDeadlineClose(t *testing.T) {
	p := New(nil)
	now := date(2025, 12, 1)

	assert.True(t, p.IsDeadlineClose(date(2025, 12, 7), now))
	assert.False(t, p.IsDeadlineClose(date(2025, 12, 8), now))
}

func TestParametersFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Planner.ConflictThresholdHours = 20
	cfg.Planner.CapacityFloorHours = 8
	cfg.Planner.HoursPerComplexityPoint = 2.5
	cfg.Planner.MinLeadDays = 14
	cfg.Planner.MaxDeferralDays = 10

	params := ParametersFromConfig(cfg)
	assert.Equal(t, 20.0, params.ConflictThresholdHours)
	assert.Equal(t, 8.0, params.CapacityFloorHours)
	assert.Equal(t, 10, params.MaxDeferralDays)

	p := New(params)
	_, err := p.Defer(&domain.Schedule{ID: 1}, 11)
	assert.ErrorIs(t, err, ErrInvalidDeferralDays)
}
