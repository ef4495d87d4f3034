package postgres

import (
	"context"
	"time"

	"github.com/chillerops/backend/internal/domain"
)

// MockRepository implements domain.DataRepository for demo mode
type MockRepository struct{}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveWeatherData is a no-op in mock mode
func (r *MockRepository) SaveWeatherData(ctx context.Context, data domain.Weather) error {
	return nil
}

// SavePredictionLog is a no-op in mock mode
func (r *MockRepository) SavePredictionLog(ctx context.Context, entry domain.PredictionLog) error {
	return nil
}

// GetHistoricalWeather returns a single mock observation for the city
func (r *MockRepository) GetHistoricalWeather(ctx context.Context, city string, from, to time.Time) ([]domain.Weather, error) {
	return []domain.Weather{
		{
			Temperature: 31.0,
			FeelsLike:   35.0,
			Humidity:    70,
			WetBulb:     27.5,
			Description: "Partly cloudy",
			WindSpeed:   9.0,
			Visibility:  10,
			Pressure:    1008,
			City:        city,
			Timestamp:   to.Add(-time.Hour),
			IsMock:      true,
		},
	}, nil
}

// GetRecentPredictions returns nothing in mock mode
func (r *MockRepository) GetRecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	return []domain.PredictionLog{}, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
