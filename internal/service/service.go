package service

import (
	"context"

	"github.com/chillerops/backend/internal/domain"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// WeatherProvider looks up current conditions by city name
type WeatherProvider interface {
	GetCurrentWeather(ctx context.Context, city string) (domain.Weather, error)
}
