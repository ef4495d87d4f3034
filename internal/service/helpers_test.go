package service

import (
	"context"
	"sync"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingRepo struct {
	mu          sync.Mutex
	weather     []domain.Weather
	predictions []domain.PredictionLog
}

func (r *recordingRepo) SaveWeatherData(_ context.Context, data domain.Weather) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weather = append(r.weather, data)
	return nil
}

func (r *recordingRepo) SavePredictionLog(_ context.Context, entry domain.PredictionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions = append(r.predictions, entry)
	return nil
}

func (r *recordingRepo) GetHistoricalWeather(_ context.Context, city string, _, _ time.Time) ([]domain.Weather, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Weather
	for _, w := range r.weather {
		if w.City == city {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *recordingRepo) GetRecentPredictions(_ context.Context, limit int) ([]domain.PredictionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.predictions) {
		limit = len(r.predictions)
	}
	return append([]domain.PredictionLog(nil), r.predictions[:limit]...), nil
}

func (r *recordingRepo) Health(context.Context) error { return nil }

func (r *recordingRepo) logs() []domain.PredictionLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PredictionLog(nil), r.predictions...)
}

func (r *recordingRepo) observations() []domain.Weather {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Weather(nil), r.weather...)
}

type stubWeather struct {
	weather domain.Weather
	err     error
	calls   int
}

func (s *stubWeather) GetCurrentWeather(_ context.Context, city string) (domain.Weather, error) {
	s.calls++
	if s.err != nil {
		return domain.Weather{}, s.err
	}
	w := s.weather
	w.City = city
	return w, nil
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func samplePredictions() domain.PredictionResult {
	return domain.PredictionResult{
		"RT": 120.0, "CHLoad": 95.3, "GPM": 300.0,
		"DeltaCHW": 10.0, "CHWS": 44.0, "CHWR": 54.0,
	}
}
