package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

// Full weather-status x news-status grid over the statuses a real run can
// produce. Every combination must map to exactly one overall status.
func TestReconcile_Coverage(t *testing.T) {
	m := models.SignalMatched
	p := models.SignalPartiallyMatched
	nm := models.SignalNotMatched
	e := models.SignalError

	tests := []struct {
		weather, news models.SignalStatus
		want          models.OverallStatus
	}{
		{m, m, models.OverallVerified},
		{m, p, models.OverallVerified},
		{m, nm, models.OverallVerified},
		{m, e, models.OverallVerified},
		{p, m, models.OverallVerified},
		{nm, m, models.OverallVerified},
		{e, m, models.OverallVerified},

		{p, p, models.OverallPartiallyVerified},

		{p, nm, models.OverallManualReview},
		{nm, p, models.OverallManualReview},
		{p, e, models.OverallManualReview},
		{e, p, models.OverallManualReview},

		{nm, nm, models.OverallNotMatched},

		{nm, e, models.OverallManualReview},
		{e, nm, models.OverallManualReview},
		{e, e, models.OverallManualReview},
	}

	for _, tt := range tests {
		t.Run(string(tt.weather)+"_"+string(tt.news), func(t *testing.T) {
			got, _ := Reconcile(sig(tt.weather), sig(tt.news), sig(models.SignalComingSoon))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconcile_Summaries(t *testing.T) {
	status, summary := Reconcile(sig(models.SignalMatched), sig(models.SignalMatched), sig(models.SignalComingSoon))
	assert.Equal(t, models.OverallVerified, status)
	assert.Equal(t, "Verified through 2 data sources", summary)

	status, summary = Reconcile(sig(models.SignalMatched), sig(models.SignalNotMatched), sig(models.SignalComingSoon))
	assert.Equal(t, models.OverallVerified, status)
	assert.Equal(t, "Verified through 1 data sources", summary)

	_, summary = Reconcile(sig(models.SignalPartiallyMatched), sig(models.SignalPartiallyMatched), sig(models.SignalComingSoon))
	assert.Equal(t, "Partially verified, needs review", summary)

	_, summary = Reconcile(sig(models.SignalNotMatched), sig(models.SignalNotMatched), sig(models.SignalComingSoon))
	assert.Equal(t, "Could not verify through available data sources", summary)

	_, summary = Reconcile(sig(models.SignalPartiallyMatched), sig(models.SignalError), sig(models.SignalComingSoon))
	assert.Equal(t, "Insufficient data for automatic verification, needs manual review", summary)
}

// Social must not influence reconciliation regardless of its status.
func TestReconcile_SocialExcluded(t *testing.T) {
	for _, social := range allSignalStatuses {
		status, _ := Reconcile(sig(models.SignalNotMatched), sig(models.SignalNotMatched), sig(social))
		assert.Equal(t, models.OverallNotMatched, status, "social=%s", social)
	}
}
