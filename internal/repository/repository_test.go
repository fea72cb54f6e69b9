package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

func TestNullDateRoundTrip(t *testing.T) {
	assert.False(t, nullDate(nil).Valid)
	assert.Nil(t, datePtr(sql.NullTime{}))

	d := time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)
	nt := nullDate(&d)
	require.True(t, nt.Valid)

	back := datePtr(nt)
	require.NotNil(t, back)
	assert.True(t, d.Equal(*back))
}

func TestDatePtrDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	got := datePtr(sql.NullTime{Time: time.Date(2025, 12, 17, 0, 0, 0, 0, loc), Valid: true})

	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), *got)
}

func TestVersionChecked(t *testing.T) {
	assert.ErrorIs(t, versionChecked(sql.ErrNoRows), ErrVersionConflict)
	assert.NoError(t, versionChecked(nil))

	other := errors.New("boom")
	assert.Equal(t, other, versionChecked(other))
}

func TestScheduleInsertArgsSnapshotsScholarshipFields(t *testing.T) {
	deadline := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	submit := time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
	schedule := &domain.Schedule{
		ApplicationID:       7,
		Deadline:            deadline,
		EssayCount:          2,
		RecommendationCount: 1,
		SubmitDate:          &submit,
		Status:              domain.ScheduleStatusPlanned,
	}

	args := scheduleInsertArgs(schedule)
	require.Len(t, args, 13)
	assert.Equal(t, int64(7), args[0])
	assert.Equal(t, sql.NullTime{Time: deadline, Valid: true}, args[1])
	assert.Equal(t, int32(2), args[2])
	assert.Equal(t, int32(1), args[3])
	assert.Equal(t, sql.NullTime{}, args[4])
	assert.Equal(t, sql.NullTime{Time: submit, Valid: true}, args[8])

	// 之后修改奖学金不会影响已经生成的参数
	schedule.Deadline = deadline.AddDate(0, 1, 0)
	assert.Equal(t, sql.NullTime{Time: deadline, Valid: true}, args[1])
}

func TestScheduleQueryReadsSnapshotColumns(t *testing.T) {
	assert.Contains(t, scheduleQuery, "sc.deadline")
	assert.Contains(t, scheduleQuery, "sc.essay_count")
	assert.Contains(t, scheduleQuery, "sc.recommendation_count")
	assert.NotContains(t, scheduleQuery, "s.deadline")
	assert.NotContains(t, scheduleQuery, "scholarship_essay_prompts")
}
