// Package service contains the verification core: the confidence scorer,
// the status reconciler and the orchestrator that fans out to the signal
// providers and writes results back to the report store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
	"github.com/sandipsawant10/flood-management-sub002/internal/observability"
)

const maxBulkLimit = 50

// WeatherSignaler produces the weather signal for a report's coordinates.
type WeatherSignaler interface {
	Signal(ctx context.Context, lat, lon float64) models.SignalResult
}

// NewsSignaler produces the news signal for a report's query and area.
type NewsSignaler interface {
	Signal(ctx context.Context, query, district string, reportedAt time.Time) models.SignalResult
}

// SocialSignaler produces the social signal for a report's area.
type SocialSignaler interface {
	Signal(ctx context.Context, district string, reportedAt time.Time) models.SignalResult
}

// ReportStore is the persistence boundary for report documents.
type ReportStore interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	// ApplyVerification replaces the report's verification block and
	// aiConfidence. When next is non-empty the verificationStatus mutation is
	// applied only if the document is still pending (compare-and-set); the
	// returned bool reports whether it was applied.
	ApplyVerification(ctx context.Context, id string, v models.Verification, confidence float64, next models.VerificationStatus) (bool, error)
	// ListPending returns up to limit reports with verificationStatus pending
	// whose last automated pass did not already flag them for manual review,
	// most recent first.
	ListPending(ctx context.Context, limit int64) ([]models.Report, error)
	Statistics(ctx context.Context) (*models.VerificationStatistics, error)
}

// VerificationService orchestrates one or many report verifications.
// Dependencies are injected so tests can substitute fakes.
type VerificationService struct {
	store   ReportStore
	weather WeatherSignaler
	news    NewsSignaler
	social  SocialSignaler
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewVerificationService(
	store ReportStore,
	weather WeatherSignaler,
	news NewsSignaler,
	social SocialSignaler,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		store:   store,
		weather: weather,
		news:    news,
		social:  social,
		clock:   clock,
		metrics: metrics,
		logger:  logger.With("component", "verification-service"),
	}
}

// VerifyReport runs the full verification pipeline for one report. It fails
// fast with ErrReportNotPending if a moderator has already acted, before any
// provider I/O is spent.
func (s *VerificationService) VerifyReport(ctx context.Context, reportID string) (*models.VerificationOutcome, error) {
	report, err := s.store.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.VerificationStatus != models.StatusPending {
		return nil, fmt.Errorf("%w: report %s is %s", models.ErrReportNotPending, reportID, report.VerificationStatus)
	}
	return s.verify(ctx, report)
}

// verify gathers the three signals, scores and reconciles them, and
// persists the result. Provider failures are already absorbed into error
// SignalResults by the providers; only store failures propagate.
func (s *VerificationService) verify(ctx context.Context, report *models.Report) (*models.VerificationOutcome, error) {
	start := time.Now()
	reportID := report.ID.Hex()

	s.logger.Info("verifying report",
		"report_id", reportID,
		"type", report.ReportType,
		"district", report.Location.District,
		"severity", report.Severity,
	)

	// The three lookups have no ordering dependency; fan out and join.
	var weather, news, social models.SignalResult
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		weather = s.weather.Signal(ctx, report.Location.Latitude(), report.Location.Longitude())
	}()
	go func() {
		defer wg.Done()
		news = s.news.Signal(ctx, report.Title, report.Location.District, report.CreatedAt)
	}()
	go func() {
		defer wg.Done()
		social = s.social.Signal(ctx, report.Location.District, report.CreatedAt)
	}()
	wg.Wait()

	confidence := ScoreConfidence(weather, news, social)
	overall, summary := Reconcile(weather, news, social)
	checkedAt := s.clock.Now().UTC()

	outcome := &models.VerificationOutcome{
		ReportID:      reportID,
		Weather:       weather,
		News:          news,
		Social:        social,
		OverallStatus: overall,
		Confidence:    confidence,
		Summary:       summary,
		CheckedAt:     checkedAt,
	}

	verification := models.Verification{
		Status:    overall,
		Summary:   summary,
		CheckedAt: checkedAt,
		Weather:   weather,
		News:      news,
		Social:    social,
	}

	// Only a conclusive overall status moves the moderation state; everything
	// else leaves the report pending for a human.
	var next models.VerificationStatus
	switch overall {
	case models.OverallVerified:
		next = models.StatusVerified
	case models.OverallNotMatched:
		next = models.StatusDisputed
	}

	applied, err := s.store.ApplyVerification(ctx, reportID, verification, confidence, next)
	if err != nil {
		s.metrics.VerificationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("persist verification for report %s: %w", reportID, err)
	}
	if next != "" {
		result := "applied"
		if !applied {
			// A moderator decided while we were verifying; their call stands.
			result = "skipped"
			s.logger.Info("moderation status unchanged, report no longer pending", "report_id", reportID)
		}
		s.metrics.ModerationUpdates.WithLabelValues(result).Inc()
	}

	s.metrics.VerificationsTotal.WithLabelValues(string(overall)).Inc()
	s.metrics.VerificationDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("report verified",
		"report_id", reportID,
		"overall_status", overall,
		"confidence", confidence,
		"weather_status", weather.Status,
		"news_status", news.Status,
		"duration", time.Since(start),
	)
	return outcome, nil
}

// VerifyPending sweeps up to limit pending reports through the pipeline,
// sequentially. Per-report failures are counted, never abort the batch.
func (s *VerificationService) VerifyPending(ctx context.Context, limit int) (*models.BulkResult, error) {
	if limit <= 0 || limit > maxBulkLimit {
		limit = maxBulkLimit
	}

	reports, err := s.store.ListPending(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	s.metrics.BulkBatchSize.Observe(float64(len(reports)))
	s.logger.Info("bulk verification started", "selected", len(reports), "limit", limit)

	result := &models.BulkResult{}
	for i := range reports {
		outcome, verr := s.verify(ctx, &reports[i])
		if verr != nil {
			result.Failed++
			s.logger.Error("bulk verification of report failed",
				"report_id", reports[i].ID.Hex(),
				"error", verr,
			)
			continue
		}
		result.Processed++
		switch outcome.OverallStatus {
		case models.OverallVerified:
			result.Verified++
		case models.OverallNotMatched:
			result.Disputed++
		}
	}

	s.logger.Info("bulk verification finished",
		"processed", result.Processed,
		"verified", result.Verified,
		"disputed", result.Disputed,
		"failed", result.Failed,
	)
	return result, nil
}

// ReportStatus returns the persisted verification state without re-running
// the pipeline.
func (s *VerificationService) ReportStatus(ctx context.Context, reportID string) (*models.Report, error) {
	return s.store.FindByID(ctx, reportID)
}

// Statistics returns collection-wide verification counts.
func (s *VerificationService) Statistics(ctx context.Context) (*models.VerificationStatistics, error) {
	return s.store.Statistics(ctx)
}
