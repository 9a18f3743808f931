// Package storage implements the MongoDB report store consumed by the
// verification service. The reporting application owns the collection
// schema; this service only touches the verification-related fields.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

const reportsCollection = "floodreports"

const (
	highConfidenceThreshold = 0.8
	lowConfidenceThreshold  = 0.5
)

// ReportStore persists verification results on report documents.
type ReportStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewReportStore(db *mongo.Database, logger *slog.Logger) *ReportStore {
	return &ReportStore{
		coll:   db.Collection(reportsCollection),
		logger: logger.With("component", "report-store"),
	}
}

// FindByID loads one report. A malformed or unknown id maps to
// models.ErrReportNotFound.
func (s *ReportStore) FindByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", models.ErrReportNotFound, id)
	}

	var report models.Report
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", models.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find report %s: %w", id, err)
	}
	return &report, nil
}

// ApplyVerification replaces the verification block and aiConfidence in a
// single update. When next is non-empty, the verificationStatus mutation is
// guarded by a filter on the current status still being pending, so a manual
// moderation decision that landed while the pipeline ran is never
// overwritten; in that case a second unconditional update still refreshes
// the verification block.
func (s *ReportStore) ApplyVerification(ctx context.Context, id string, v models.Verification, confidence float64, next models.VerificationStatus) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: invalid id %q", models.ErrReportNotFound, id)
	}

	set := bson.M{
		"verification": v,
		"aiConfidence": confidence,
		"updatedAt":    v.CheckedAt,
	}

	if next != "" {
		guarded := bson.M{
			"verification":       v,
			"aiConfidence":       confidence,
			"verificationStatus": next,
			"updatedAt":          v.CheckedAt,
		}
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": oid, "verificationStatus": models.StatusPending},
			bson.M{"$set": guarded},
		)
		if err != nil {
			return false, fmt.Errorf("update report %s: %w", id, err)
		}
		if res.MatchedCount == 1 {
			return true, nil
		}
		s.logger.Debug("guarded status update matched nothing, refreshing verification only", "report_id", id)
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update report %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("%w: %s", models.ErrReportNotFound, id)
	}
	return false, nil
}

// ListPending selects up to limit reports awaiting automated verification,
// newest first. Reports whose last pass already asked for manual review are
// skipped to avoid repeated fruitless sweeps.
func (s *ReportStore) ListPending(ctx context.Context, limit int64) ([]models.Report, error) {
	filter := bson.M{
		"verificationStatus":  models.StatusPending,
		"verification.status": bson.M{"$ne": models.OverallManualReview},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode pending reports: %w", err)
	}
	return reports, nil
}

// Statistics aggregates report counts by moderation status and by
// AI-specific buckets.
func (s *ReportStore) Statistics(ctx context.Context) (*models.VerificationStatistics, error) {
	stats := &models.VerificationStatistics{ByStatus: map[string]int64{}}

	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$verificationStatus",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate status counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}

	counts := []struct {
		dest   *int64
		filter bson.M
	}{
		{&stats.AIVerified, bson.M{"verification.status": models.OverallVerified}},
		{&stats.AIDisputed, bson.M{"verification.status": models.OverallNotMatched}},
		{&stats.ManualReview, bson.M{"verification.status": models.OverallManualReview}},
		{&stats.HighConfidence, bson.M{"aiConfidence": bson.M{"$gte": highConfidenceThreshold}}},
		{&stats.LowConfidence, bson.M{
			"aiConfidence": bson.M{"$lt": lowConfidenceThreshold},
			"verification": bson.M{"$exists": true},
		}},
	}
	for _, c := range counts {
		n, err := s.coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		*c.dest = n
	}
	return stats, nil
}
