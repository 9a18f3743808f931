package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
	"github.com/sandipsawant10/flood-management-sub002/internal/observability"
)

type appliedCall struct {
	id         string
	v          models.Verification
	confidence float64
	next       models.VerificationStatus
}

type fakeStore struct {
	mu       sync.Mutex
	reports  map[string]*models.Report
	applied  []appliedCall
	applyErr error
	// moderated simulates a moderator acting mid-flight: the CAS filter
	// misses and the status mutation is dropped.
	moderated bool
}

func newFakeStore(reports ...*models.Report) *fakeStore {
	s := &fakeStore{reports: map[string]*models.Report{}}
	for _, r := range reports {
		s.reports[r.ID.Hex()] = r
	}
	return s
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, models.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) ApplyVerification(_ context.Context, id string, v models.Verification, confidence float64, next models.VerificationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return false, s.applyErr
	}
	r, ok := s.reports[id]
	if !ok {
		return false, models.ErrReportNotFound
	}
	s.applied = append(s.applied, appliedCall{id: id, v: v, confidence: confidence, next: next})
	r.Verification = &v
	r.AIConfidence = confidence
	if next != "" && !s.moderated && r.VerificationStatus == models.StatusPending {
		r.VerificationStatus = next
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) ListPending(_ context.Context, limit int64) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if int64(len(out)) >= limit {
			break
		}
		if r.VerificationStatus != models.StatusPending {
			continue
		}
		if r.Verification != nil && r.Verification.Status == models.OverallManualReview {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeStore) Statistics(context.Context) (*models.VerificationStatistics, error) {
	return &models.VerificationStatistics{ByStatus: map[string]int64{}}, nil
}

type fakeWeather struct{ result models.SignalResult }

func (f fakeWeather) Signal(context.Context, float64, float64) models.SignalResult { return f.result }

type fakeNews struct{ result models.SignalResult }

func (f fakeNews) Signal(context.Context, string, string, time.Time) models.SignalResult {
	return f.result
}

type fakeSocial struct{ result models.SignalResult }

func (f fakeSocial) Signal(context.Context, string, time.Time) models.SignalResult { return f.result }

func comingSoon() models.SignalResult {
	return models.SignalResult{Status: models.SignalComingSoon, Summary: "Social media verification coming soon"}
}

func pendingReport() *models.Report {
	return &models.Report{
		ID:                 primitive.NewObjectID(),
		Title:              "Street flooding near market",
		ReportType:         "flood",
		Location:           models.Location{Type: "Point", Coordinates: []float64{73.8567, 18.5204}, District: "Pune", State: "Maharashtra"},
		Severity:           models.SeverityHigh,
		VerificationStatus: models.StatusPending,
		CreatedAt:          time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func newTestService(store ReportStore, w WeatherSignaler, n NewsSignaler, so SocialSignaler) *VerificationService {
	return NewVerificationService(
		store, w, n, so,
		clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)),
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestVerifyReport_BothSourcesMatched(t *testing.T) {
	report := pendingReport()
	store := newFakeStore(report)

	svc := newTestService(store,
		fakeWeather{sig(models.SignalMatched)},
		fakeNews{sig(models.SignalMatched)},
		fakeSocial{comingSoon()},
	)

	outcome, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, models.OverallVerified, outcome.OverallStatus)
	assert.InDelta(t, 0.9, outcome.Confidence, 1e-9)
	assert.Equal(t, "Verified through 2 data sources", outcome.Summary)

	persisted := store.reports[report.ID.Hex()]
	assert.Equal(t, models.StatusVerified, persisted.VerificationStatus)
	assert.Equal(t, models.OverallVerified, persisted.Verification.Status)
	assert.InDelta(t, 0.9, persisted.AIConfidence, 1e-9)
}

func TestVerifyReport_NothingMatched(t *testing.T) {
	report := pendingReport()
	store := newFakeStore(report)

	svc := newTestService(store,
		fakeWeather{sig(models.SignalNotMatched)},
		fakeNews{sig(models.SignalNotMatched)},
		fakeSocial{comingSoon()},
	)

	outcome, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, models.OverallNotMatched, outcome.OverallStatus)
	assert.InDelta(t, 0.0, outcome.Confidence, 1e-9)
	assert.Equal(t, models.StatusDisputed, store.reports[report.ID.Hex()].VerificationStatus)
}

func TestVerifyReport_MixedSignalStaysPending(t *testing.T) {
	report := pendingReport()
	store := newFakeStore(report)

	svc := newTestService(store,
		fakeWeather{sig(models.SignalPartiallyMatched)},
		fakeNews{sig(models.SignalError)},
		fakeSocial{comingSoon()},
	)

	outcome, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, models.OverallManualReview, outcome.OverallStatus)
	assert.InDelta(t, 0.25, outcome.Confidence, 1e-9)

	persisted := store.reports[report.ID.Hex()]
	assert.Equal(t, models.StatusPending, persisted.VerificationStatus)
	require.Len(t, store.applied, 1)
	assert.Empty(t, store.applied[0].next)
}

// A weather failure must not block the news signal from being evaluated.
func TestVerifyReport_ProviderIsolation(t *testing.T) {
	report := pendingReport()
	store := newFakeStore(report)

	svc := newTestService(store,
		fakeWeather{models.SignalResult{Status: models.SignalError, Summary: "Weather lookup failed: timeout"}},
		fakeNews{models.SignalResult{Status: models.SignalMatched, Summary: "2 news article(s) mention flood conditions in the area"}},
		fakeSocial{comingSoon()},
	)

	outcome, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, models.SignalError, outcome.Weather.Status)
	assert.Equal(t, models.SignalMatched, outcome.News.Status)
	assert.Equal(t, models.OverallVerified, outcome.OverallStatus)
	assert.InDelta(t, 0.4, outcome.Confidence, 1e-9)
}

func TestVerifyReport_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), fakeWeather{sig(models.SignalMatched)}, fakeNews{sig(models.SignalMatched)}, fakeSocial{comingSoon()})

	_, err := svc.VerifyReport(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrReportNotFound)
}

func TestVerifyReport_RejectsNonPending(t *testing.T) {
	report := pendingReport()
	report.VerificationStatus = models.StatusVerified
	store := newFakeStore(report)

	svc := newTestService(store, fakeWeather{sig(models.SignalMatched)}, fakeNews{sig(models.SignalMatched)}, fakeSocial{comingSoon()})

	_, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	assert.ErrorIs(t, err, models.ErrReportNotPending)
	assert.Empty(t, store.applied, "no write should happen for a non-pending report")
}

// A moderator acting mid-flight wins: the verification block is refreshed
// but the moderation status mutation is dropped.
func TestVerifyReport_ConcurrentModerationWins(t *testing.T) {
	report := pendingReport()
	store := newFakeStore(report)
	store.moderated = true

	svc := newTestService(store, fakeWeather{sig(models.SignalMatched)}, fakeNews{sig(models.SignalMatched)}, fakeSocial{comingSoon()})

	outcome, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.OverallVerified, outcome.OverallStatus)

	persisted := store.reports[report.ID.Hex()]
	assert.Equal(t, models.StatusPending, persisted.VerificationStatus)
	assert.NotNil(t, persisted.Verification, "verification block is still refreshed")
}

func TestVerifyReport_PersistFailure(t *testing.T) {
	report := pendingReport()
	store := newFakeStore(report)
	store.applyErr = errors.New("write concern error")

	svc := newTestService(store, fakeWeather{sig(models.SignalMatched)}, fakeNews{sig(models.SignalMatched)}, fakeSocial{comingSoon()})

	_, err := svc.VerifyReport(context.Background(), report.ID.Hex())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist verification")
}

func TestVerifyPending_Counts(t *testing.T) {
	r1 := pendingReport()
	r2 := pendingReport()
	r3 := pendingReport()
	store := newFakeStore(r1, r2, r3)

	svc := newTestService(store,
		fakeWeather{sig(models.SignalMatched)},
		fakeNews{sig(models.SignalNotMatched)},
		fakeSocial{comingSoon()},
	)

	result, err := svc.VerifyPending(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 3, result.Verified)
	assert.Equal(t, 0, result.Disputed)
	assert.Equal(t, 0, result.Failed)
}

func TestVerifyPending_HonoursLimit(t *testing.T) {
	store := newFakeStore(pendingReport(), pendingReport(), pendingReport(), pendingReport(), pendingReport())

	svc := newTestService(store,
		fakeWeather{sig(models.SignalNotMatched)},
		fakeNews{sig(models.SignalNotMatched)},
		fakeSocial{comingSoon()},
	)

	result, err := svc.VerifyPending(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 3, result.Disputed)
}

func TestVerifyPending_SkipsManualReviewAndNonPending(t *testing.T) {
	flagged := pendingReport()
	flagged.Verification = &models.Verification{Status: models.OverallManualReview}
	moderated := pendingReport()
	moderated.VerificationStatus = models.StatusFalse
	fresh := pendingReport()
	store := newFakeStore(flagged, moderated, fresh)

	svc := newTestService(store,
		fakeWeather{sig(models.SignalMatched)},
		fakeNews{sig(models.SignalMatched)},
		fakeSocial{comingSoon()},
	)

	result, err := svc.VerifyPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
}

func TestVerifyPending_FailuresDoNotAbortBatch(t *testing.T) {
	store := newFakeStore(pendingReport(), pendingReport())
	store.applyErr = errors.New("write concern error")

	svc := newTestService(store,
		fakeWeather{sig(models.SignalMatched)},
		fakeNews{sig(models.SignalMatched)},
		fakeSocial{comingSoon()},
	)

	result, err := svc.VerifyPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 2, result.Failed)
}
