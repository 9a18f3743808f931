package signals

import (
	"context"
	"time"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

// SocialProvider is the social-media verification source. No real
// implementation exists yet; the interface keeps the orchestrator and the
// scorer's weighting stable for when one lands. Implementations must never
// fail the pipeline.
type SocialProvider interface {
	Signal(ctx context.Context, district string, reportedAt time.Time) models.SignalResult
}

// DisabledSocial is the production variant: social verification is not yet
// available, so it always reports coming-soon (zero scoring weight).
type DisabledSocial struct{}

func (DisabledSocial) Signal(context.Context, string, time.Time) models.SignalResult {
	return models.SignalResult{
		Status:  models.SignalComingSoon,
		Summary: "Social media verification coming soon",
	}
}

// MockSocial returns a fixed matched-like placeholder, used in mock mode to
// exercise the full pipeline without a live source. It still carries zero
// weight in scoring and is excluded from reconciliation.
type MockSocial struct{}

func (MockSocial) Signal(_ context.Context, district string, _ time.Time) models.SignalResult {
	return models.SignalResult{
		Status:  models.SignalMatched,
		Summary: "Mock social signal for " + district,
		Snapshot: map[string]any{
			"mock":     true,
			"district": district,
		},
	}
}
