package external_apis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	openMeteoForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultWeatherTimeout = 5 * time.Second
)

// WeatherClient fetches current conditions from the Open-Meteo forecast API.
// Open-Meteo needs no credentials, which keeps the weather signal available
// even on a fresh deployment.
type WeatherClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewWeatherClient(timeout time.Duration, logger *slog.Logger) *WeatherClient {
	if timeout <= 0 {
		timeout = defaultWeatherTimeout
	}
	return &WeatherClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    openMeteoForecastURL,
		logger:     logger,
	}
}

// CurrentConditions returns the current precipitation, today's accumulated
// precipitation, humidity and temperature for the given coordinates.
func (c *WeatherClient) CurrentConditions(ctx context.Context, lat, lon float64) (WeatherObservation, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,precipitation")
	params.Set("daily", "precipitation_sum")
	params.Set("forecast_days", "1")
	params.Set("timezone", "UTC")

	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return WeatherObservation{}, fmt.Errorf("create weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WeatherObservation{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return WeatherObservation{}, fmt.Errorf("weather API status %d: %s", resp.StatusCode, body)
	}

	var omResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		return WeatherObservation{}, fmt.Errorf("decode weather response: %w", err)
	}

	obs := WeatherObservation{
		PrecipitationMM: omResp.Current.Precipitation,
		HumidityPct:     omResp.Current.RelativeHumidity,
		TemperatureC:    omResp.Current.Temperature,
		ObservedAt:      time.Now().UTC(),
	}
	if len(omResp.Daily.PrecipitationSum) > 0 {
		obs.DailyPrecipitationMM = omResp.Daily.PrecipitationSum[0]
	}

	c.logger.Debug("weather conditions fetched",
		"lat", lat,
		"lon", lon,
		"precipitation_mm", obs.PrecipitationMM,
		"daily_precipitation_mm", obs.DailyPrecipitationMM,
		"humidity_pct", obs.HumidityPct,
	)
	return obs, nil
}
