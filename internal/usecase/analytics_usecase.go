package usecase

import (
	"context"

	"github.com/jonboulle/clockwork"

	"fundbridge/internal/domain/entity"
	"fundbridge/pkg/logger"
)

// Dashboard is what the admin view renders. Degraded marks the static
// fallback shown when the fetch itself failed; the caller offers a manual
// reload instead of crashing the view.
type Dashboard struct {
	Summary  *entity.AnalyticsSummary
	Degraded bool
	Notice   string
}

type AnalyticsUseCase struct {
	client AnalyticsClient
	clock  clockwork.Clock
}

func NewAnalyticsUseCase(client AnalyticsClient, clock clockwork.Clock) *AnalyticsUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AnalyticsUseCase{client: client, clock: clock}
}

// Dashboard fetches the summary and normalizes every optional section to its
// explicit default. A fetch failure yields the degraded fallback panel.
func (uc *AnalyticsUseCase) Dashboard(ctx context.Context) *Dashboard {
	summary, err := uc.client.GetAdminAnalytics(ctx)
	if err != nil {
		logger.Warn("analytics fetch failed, serving fallback: %v", err)
		return &Dashboard{
			Summary:  entity.DefaultAnalyticsSummary(uc.clock.Now()),
			Degraded: true,
			Notice:   "Analytics are temporarily unavailable. Reload to try again.",
		}
	}

	summary.Normalize()
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = uc.clock.Now()
	}
	return &Dashboard{Summary: summary}
}
