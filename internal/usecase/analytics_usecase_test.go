package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundbridge/internal/domain/entity"
	apperrors "fundbridge/pkg/errors"
)

type fakeAnalyticsClient struct {
	summary *entity.AnalyticsSummary
	err     error
}

func (f *fakeAnalyticsClient) GetAdminAnalytics(ctx context.Context) (*entity.AnalyticsSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func TestDashboardNormalizesMissingSections(t *testing.T) {
	clock := clockwork.NewFakeClock()
	uc := NewAnalyticsUseCase(&fakeAnalyticsClient{
		summary: &entity.AnalyticsSummary{
			Engagement: &entity.EngagementStats{ActiveUsers: 42, MessagesSent: 1200},
		},
	}, clock)

	d := uc.Dashboard(context.Background())
	assert.False(t, d.Degraded)
	require.NotNil(t, d.Summary.Engagement)
	assert.Equal(t, 42, d.Summary.Engagement.ActiveUsers)

	// The sections the backend omitted come back zeroed, not nil.
	require.NotNil(t, d.Summary.MatchFunnel)
	assert.Equal(t, 0, d.Summary.MatchFunnel.Introductions)
	require.NotNil(t, d.Summary.RoleBreakdown)
	assert.Equal(t, 0, d.Summary.RoleBreakdown.FundManagers)

	assert.Equal(t, clock.Now(), d.Summary.GeneratedAt)
}

func TestDashboardKeepsServerTimestamp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	generated := clock.Now().Add(-time.Hour)
	uc := NewAnalyticsUseCase(&fakeAnalyticsClient{
		summary: &entity.AnalyticsSummary{GeneratedAt: generated},
	}, clock)

	d := uc.Dashboard(context.Background())
	assert.Equal(t, generated, d.Summary.GeneratedAt)
}

func TestDashboardDegradedFallbackOnFetchFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	uc := NewAnalyticsUseCase(&fakeAnalyticsClient{
		err: apperrors.Transient("upstream timeout", nil),
	}, clock)

	d := uc.Dashboard(context.Background())
	assert.True(t, d.Degraded)
	assert.Contains(t, d.Notice, "Reload")

	// The fallback is fully populated so the view renders zeros instead of
	// panicking.
	require.NotNil(t, d.Summary)
	require.NotNil(t, d.Summary.Engagement)
	require.NotNil(t, d.Summary.MatchFunnel)
	require.NotNil(t, d.Summary.RoleBreakdown)
	assert.Equal(t, clock.Now(), d.Summary.GeneratedAt)
}
