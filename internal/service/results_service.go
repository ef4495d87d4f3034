package service

import (
	"context"
	"sync"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/internal/metrics"
	"github.com/chillerops/backend/internal/relay"
	"go.uber.org/zap"
)

// Messages rendered by the results view.
const (
	MsgNoPredictions  = "No predictions available."
	MsgWeatherFailure = "Unable to fetch weather data."
)

// ResultsService renders the results view from a relayed transfer and
// enriches it with live weather
type ResultsService struct {
	relay   *relay.Relay
	weather WeatherProvider
	repo    DataRepository
	metrics *metrics.Metrics

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewResultsService creates a new results service
func NewResultsService(
	rl *relay.Relay,
	weather WeatherProvider,
	repo DataRepository,
	m *metrics.Metrics,
) *ResultsService {
	return &ResultsService{
		relay:   rl,
		weather: weather,
		repo:    repo,
		metrics: m,
	}
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *ResultsService) WaitBackground() {
	s.wgBg.Wait()
}

// Render consumes the transfer behind token. An absent transfer renders the
// terminal no-predictions state; nothing is fetched or resubmitted.
func (s *ResultsService) Render(ctx context.Context, token string) domain.ResultView {
	transfer, ok := s.relay.Receive(token)
	if !ok {
		s.metrics.Transfers.WithLabelValues("missing").Inc()
		return domain.ResultView{State: domain.ViewNoPredictions, Message: MsgNoPredictions}
	}
	s.metrics.Transfers.WithLabelValues("delivered").Inc()
	return s.RenderTransfer(ctx, transfer)
}

// RenderTransfer builds the ready view for a transfer already received.
// Weather failure is shown alongside the predictions, never instead of them.
func (s *ResultsService) RenderTransfer(ctx context.Context, transfer domain.Transfer) domain.ResultView {
	view := domain.ResultView{
		State:       domain.ViewReady,
		City:        transfer.City,
		Predictions: transfer.Predictions,
	}

	weather, err := s.GetWeather(ctx, transfer.City)
	if err != nil {
		view.WeatherError = MsgWeatherFailure
		return view
	}
	view.Weather = &weather
	return view
}

// GetWeather looks up weather for city and persists real observations in
// the background.
func (s *ResultsService) GetWeather(ctx context.Context, city string) (domain.Weather, error) {
	weather, err := s.weather.GetCurrentWeather(ctx, city)
	if err != nil {
		s.metrics.WeatherLookups.WithLabelValues("error").Inc()
		zap.L().Warn("weather lookup failed", zap.String("city", city), zap.Error(err))
		return domain.Weather{}, err
	}
	if weather.IsMock {
		s.metrics.WeatherLookups.WithLabelValues("mock").Inc()
		return weather, nil
	}
	s.metrics.WeatherLookups.WithLabelValues("success").Inc()

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveWeatherData(bgCtx, weather); err != nil {
			zap.L().Error("failed to save weather data", zap.String("city", weather.City), zap.Error(err))
		}
	}()

	return weather, nil
}

// WeatherHistory returns stored observations for city over the last hours
func (s *ResultsService) WeatherHistory(ctx context.Context, city string, hours int) ([]domain.Weather, error) {
	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)
	return s.repo.GetHistoricalWeather(ctx, city, from, to)
}

// PredictionHistory returns the newest prediction audit entries
func (s *ResultsService) PredictionHistory(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	return s.repo.GetRecentPredictions(ctx, limit)
}
