package service

import (
	"math"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
)

// Source weights. They sum to 1.0; social keeps its slot so the weighting
// math is already stable when a real social provider is added.
const (
	weatherWeight = 0.5
	newsWeight    = 0.4
	socialWeight  = 0.1
)

// ScoreConfidence combines the three signal statuses into a confidence in
// [0,1]. A matched source contributes its full weight, a partially-matched
// source half, everything else (not-matched, error, pending, coming-soon)
// nothing. Pure function of the statuses; rounded to two decimal places.
func ScoreConfidence(weather, news, social models.SignalResult) float64 {
	score := contribution(weather.Status, weatherWeight) +
		contribution(news.Status, newsWeight) +
		contribution(social.Status, socialWeight)

	score = math.Round(score*100) / 100
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func contribution(status models.SignalStatus, weight float64) float64 {
	switch status {
	case models.SignalMatched:
		return weight
	case models.SignalPartiallyMatched:
		return weight / 2
	default:
		return 0
	}
}
