package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

func TestGenerateUsernameFromChineseName(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+[0-9]{1,3}$`)
	for i := 0; i < 20; i++ {
		name := GenerateRandomChineseName()
		username := GenerateUsernameFromChineseName(name)
		assert.Regexp(t, pattern, username, "name=%s", name)
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	assert.Len(t, []rune(GenerateRandomPassword(12)), 12)
	assert.Empty(t, GenerateRandomPassword(0))
}

func TestGenerateRandomOTP(t *testing.T) {
	assert.Regexp(t, `^[0-9]{6}$`, GenerateRandomOTP())
}

func TestGenerateRandomScholarship(t *testing.T) {
	now := time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		s := GenerateRandomScholarship(now)

		assert.True(t, s.Deadline.After(now.AddDate(0, 0, 13)))
		assert.True(t, s.Deadline.Before(now.AddDate(0, 0, 113)))
		assert.Zero(t, s.Deadline.Hour())
		assert.LessOrEqual(t, len(s.EssayPrompts), 3)
		assert.NoError(t, ValidateEssayPrompts(s.EssayPrompts))
		assert.GreaterOrEqual(t, s.DocumentsRequired, int32(1))
	}
}

func TestGenerateRandomApplication(t *testing.T) {
	student := &domain.User{ID: 3}
	scholarship := &domain.Scholarship{
		ID:                  9,
		Name:                "逸仙奖学金",
		Deadline:            time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		EssayPrompts:        []string{"a", "b"},
		RecommendationCount: 1,
		DocumentsRequired:   2,
	}

	app := GenerateRandomApplication(student, scholarship)

	require.NotNil(t, app)
	assert.Equal(t, int64(3), app.StudentID)
	assert.Equal(t, int64(9), app.ScholarshipID)
	assert.Equal(t, int32(2), app.EssayCount)
	assert.Equal(t, int32(2), app.Progress.EssaysRequired)
	assert.Equal(t, int32(2), app.Progress.DocumentsRequired)
	assert.Equal(t, domain.ApplicationStatusNotStarted, app.Status)
	assert.Contains(t, []int32{1, 2, 3}, app.PriorityTier)
}
