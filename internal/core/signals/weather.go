// Package signals holds the per-source verification providers. Each
// provider queries one external data source, classifies the response
// against flood-relevance rules and degrades any failure to an error
// SignalResult rather than propagating it.
package signals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandipsawant10/flood-management-sub002/internal/models"
	"github.com/sandipsawant10/flood-management-sub002/internal/observability"
	"github.com/sandipsawant10/flood-management-sub002/internal/platform/external_apis"
)

// Flood-risk thresholds, evaluated in order. First match wins.
const (
	heavyPrecipitationMM    = 15.0 // mm/h, current
	heavyDailyAccumMM       = 50.0 // mm, 24h accumulation
	saturatedHumidityPct    = 90.0
	moderatePrecipitationMM = 5.0
	moderateDailyAccumMM    = 20.0

	defaultWeatherLookupTimeout = 5 * time.Second
)

// WeatherAPI is the raw conditions source consumed by the weather provider.
type WeatherAPI interface {
	CurrentConditions(ctx context.Context, lat, lon float64) (external_apis.WeatherObservation, error)
}

// WeatherProvider classifies current conditions at a report's coordinates
// into a flood-risk signal.
type WeatherProvider struct {
	api     WeatherAPI
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewWeatherProvider(api WeatherAPI, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *WeatherProvider {
	if timeout <= 0 {
		timeout = defaultWeatherLookupTimeout
	}
	return &WeatherProvider{
		api:     api,
		timeout: timeout,
		metrics: metrics,
		logger:  logger.With("component", "weather-provider"),
	}
}

// Signal fetches conditions for the coordinates and classifies them.
// Lookup failures never escape: they become an error SignalResult.
func (p *WeatherProvider) Signal(ctx context.Context, lat, lon float64) models.SignalResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	obs, err := p.api.CurrentConditions(ctx, lat, lon)
	p.metrics.ProviderDuration.WithLabelValues("weather").Observe(time.Since(start).Seconds())

	if err != nil {
		p.logger.Warn("weather lookup failed", "lat", lat, "lon", lon, "error", err)
		p.metrics.ProviderRequests.WithLabelValues("weather", string(models.SignalError)).Inc()
		return models.SignalResult{
			Status:  models.SignalError,
			Summary: fmt.Sprintf("Weather lookup failed: %v", err),
		}
	}

	result := classifyWeather(obs)
	p.metrics.ProviderRequests.WithLabelValues("weather", string(result.Status)).Inc()
	return result
}

func classifyWeather(obs external_apis.WeatherObservation) models.SignalResult {
	switch {
	case obs.PrecipitationMM > heavyPrecipitationMM ||
		obs.DailyPrecipitationMM > heavyDailyAccumMM ||
		obs.HumidityPct > saturatedHumidityPct:
		return models.SignalResult{
			Status: models.SignalMatched,
			Summary: fmt.Sprintf("Heavy rain conditions at reported location: precipitation %.1fmm/h, 24h accumulation %.1fmm, humidity %.0f%%",
				obs.PrecipitationMM, obs.DailyPrecipitationMM, obs.HumidityPct),
			Snapshot: obs,
		}
	case obs.PrecipitationMM > moderatePrecipitationMM ||
		obs.DailyPrecipitationMM > moderateDailyAccumMM:
		return models.SignalResult{
			Status: models.SignalPartiallyMatched,
			Summary: fmt.Sprintf("Moderate rainfall at reported location: precipitation %.1fmm/h, 24h accumulation %.1fmm",
				obs.PrecipitationMM, obs.DailyPrecipitationMM),
			Snapshot: obs,
		}
	default:
		return models.SignalResult{
			Status:   models.SignalNotMatched,
			Summary:  "No significant rainfall recorded near the reported location",
			Snapshot: obs,
		}
	}
}
