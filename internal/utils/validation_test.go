package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

func TestValidateEssayPrompts(t *testing.T) {
	assert.NoError(t, ValidateEssayPrompts(nil))
	assert.NoError(t, ValidateEssayPrompts([]string{"Why this major?", "Describe a challenge"}))
	assert.EqualError(t, ValidateEssayPrompts([]string{"Why?", "  "}), "第 2 个作文题目为空")
	assert.EqualError(t, ValidateEssayPrompts([]string{"Why?", " Why? "}), "第 2 个作文题目重复")
}

func TestValidateProgress(t *testing.T) {
	progress := domain.ApplicationProgress{
		EssaysRequired:          2,
		DocumentsRequired:       1,
		RecommendationsRequired: 1,
	}
	assert.NoError(t, ValidateProgress(progress))

	progress.EssaysCompleted = 2
	progress.DocumentsUploaded = 1
	progress.RecommendationsReceived = 1
	assert.NoError(t, ValidateProgress(progress))

	tooMany := progress
	tooMany.EssaysCompleted = 3
	assert.Error(t, ValidateProgress(tooMany))

	tooMany = progress
	tooMany.RecommendationsReceived = 2
	assert.Error(t, ValidateProgress(tooMany))

	negative := progress
	negative.DocumentsUploaded = -1
	assert.Error(t, ValidateProgress(negative))
}

func TestValidateStatusTransition(t *testing.T) {
	cases := []struct {
		from, to domain.ApplicationStatus
		ok       bool
	}{
		{domain.ApplicationStatusNotStarted, domain.ApplicationStatusInProgress, true},
		{domain.ApplicationStatusInProgress, domain.ApplicationStatusSubmitted, true},
		{domain.ApplicationStatusSubmitted, domain.ApplicationStatusDecided, true},
		{domain.ApplicationStatusInProgress, domain.ApplicationStatusInProgress, true},
		{domain.ApplicationStatusInProgress, domain.ApplicationStatusNotStarted, false},
		{domain.ApplicationStatusSubmitted, domain.ApplicationStatusInProgress, false},
		{domain.ApplicationStatusWithdrawn, domain.ApplicationStatusInProgress, false},
		{domain.ApplicationStatusDecided, domain.ApplicationStatusWithdrawn, false},
	}

	for _, tc := range cases {
		err := ValidateStatusTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.Error(t, err, "%s -> %s", tc.from, tc.to)
		}
	}
}
