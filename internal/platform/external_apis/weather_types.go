package external_apis

import "time"

// openMeteoResponse mirrors the slice of the Open-Meteo forecast payload we
// consume. Unused fields are deliberately omitted.
type openMeteoResponse struct {
	Current struct {
		Temperature      float64 `json:"temperature_2m"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		Precipitation    float64 `json:"precipitation"`
	} `json:"current"`
	Daily struct {
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// WeatherObservation is a snapshot of conditions at a reported location.
// It is persisted verbatim as the weather signal's snapshot.
type WeatherObservation struct {
	PrecipitationMM      float64   `bson:"precipitationMm" json:"precipitationMm"`
	DailyPrecipitationMM float64   `bson:"dailyPrecipitationMm" json:"dailyPrecipitationMm"`
	HumidityPct          float64   `bson:"humidityPct" json:"humidityPct"`
	TemperatureC         float64   `bson:"temperatureC" json:"temperatureC"`
	ObservedAt           time.Time `bson:"observedAt" json:"observedAt"`
}
