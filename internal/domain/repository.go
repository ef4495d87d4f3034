package domain

import (
	"context"
	"time"
)

// DataRepository defines the interface for data persistence
type DataRepository interface {
	// SaveWeatherData persists a weather observation
	SaveWeatherData(ctx context.Context, data Weather) error

	// SavePredictionLog persists the outcome of a submission
	SavePredictionLog(ctx context.Context, entry PredictionLog) error

	// GetHistoricalWeather retrieves observations for a city
	GetHistoricalWeather(ctx context.Context, city string, from, to time.Time) ([]Weather, error)

	// GetRecentPredictions retrieves the newest audit entries
	GetRecentPredictions(ctx context.Context, limit int) ([]PredictionLog, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
