package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

func TestSuggestCapacityNoCapacity(t *testing.T) {
	p := New(nil)
	active := []*domain.Schedule{scheduleInWeekOf(1, "Alpha", 10, 2025, 12, 1)}
	backlog := []*domain.Application{
		{ID: 2, Status: domain.ApplicationStatusNotStarted, PriorityTier: 1, Deadline: date(2026, 1, 10)},
	}

	advice := p.SuggestCapacity(active, backlog, date(2025, 12, 3))

	assert.False(t, advice.HasCapacity)
	assert.Equal(t, 10.0, advice.CurrentWeeklyHours)
	assert.Nil(t, advice.SuggestedApplication)
}

func TestSuggestCapacityPicksHighestPriority(t *testing.T) {
	p := New(nil)
	active := []*domain.Schedule{scheduleInWeekOf(1, "Gamma", 4, 2025, 12, 1)}
	backlog := []*domain.Application{
		{ID: 11, Status: domain.ApplicationStatusNotStarted, PriorityTier: 2, Deadline: date(2026, 1, 10)},
		{ID: 12, Status: domain.ApplicationStatusNotStarted, PriorityTier: 1, Deadline: date(2026, 3, 1)},
		{ID: 13, Status: domain.ApplicationStatusNotStarted, PriorityTier: 1, Deadline: date(2026, 2, 1)},
		{ID: 14, Status: domain.ApplicationStatusNotStarted, PriorityTier: 1, Deadline: date(2025, 12, 1)},
		{ID: 15, Status: domain.ApplicationStatusInProgress, PriorityTier: 1, Deadline: date(2026, 1, 5)},
		{ID: 16, Status: domain.ApplicationStatusSubmitted, PriorityTier: 1, Deadline: date(2026, 1, 5)},
	}

	advice := p.SuggestCapacity(active, backlog, date(2025, 12, 3))

	assert.True(t, advice.HasCapacity)
	assert.Equal(t, 4.0, advice.CurrentWeeklyHours)
	require.NotNil(t, advice.SuggestedApplication)
	assert.Equal(t, int64(13), advice.SuggestedApplication.ID)
}

func TestSuggestCapacityEmptyBacklog(t *testing.T) {
	p := New(nil)

	advice := p.SuggestCapacity(nil, nil, date(2025, 12, 3))

	assert.True(t, advice.HasCapacity)
	assert.Equal(t, 0.0, advice.CurrentWeeklyHours)
	assert.Nil(t, advice.SuggestedApplication)
}

func TestFilterActive(t *testing.T) {
	apps := []*domain.Application{
		{ID: 1, Status: domain.ApplicationStatusNotStarted},
		{ID: 2, Status: domain.ApplicationStatusWithdrawn},
		{ID: 3, Status: domain.ApplicationStatusInProgress},
		{ID: 4, Status: domain.ApplicationStatusDecided},
	}

	active := FilterActive(apps)

	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].ID)
	assert.Equal(t, int64(3), active[1].ID)
}
