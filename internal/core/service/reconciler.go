package service

import (
	"fmt"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

// Reconcile combines the per-source statuses into one overall verification
// status and a human-readable summary. Only weather and news participate;
// social is accepted for interface symmetry but ignored until it is a
// reliable source. Rules, first match wins:
//
//  1. any of {weather, news} matched            -> verified
//  2. both corroborate, at least one partially  -> partially-verified
//  3. both not-matched                          -> not-matched
//  4. anything else (error, mixed signal)       -> manual-review
//
// An errored source is deliberately not treated as not-matched: a failed
// lookup is absence of evidence, not evidence of absence.
func Reconcile(weather, news, _ models.SignalResult) (models.OverallStatus, string) {
	statuses := []models.SignalStatus{weather.Status, news.Status}

	var matched, partial, notMatched int
	for _, s := range statuses {
		switch s {
		case models.SignalMatched:
			matched++
		case models.SignalPartiallyMatched:
			partial++
		case models.SignalNotMatched:
			notMatched++
		}
	}

	switch {
	case matched >= 1:
		return models.OverallVerified, fmt.Sprintf("Verified through %d data sources", matched)
	case partial >= 1 && matched+partial == len(statuses):
		return models.OverallPartiallyVerified, "Partially verified, needs review"
	case notMatched >= 2:
		return models.OverallNotMatched, "Could not verify through available data sources"
	default:
		return models.OverallManualReview, "Insufficient data for automatic verification, needs manual review"
	}
}
