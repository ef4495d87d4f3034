package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/pkg/utils"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrCityRequired is returned for a blank city lookup.
	ErrCityRequired = eris.New("weather: city is required")

	// ErrWeatherUnavailable covers every provider-side failure.
	ErrWeatherUnavailable = eris.New("weather: unable to fetch weather data")
)

// WeatherService handles weather data fetching
type WeatherService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
}

// NewWeatherService creates a new weather service. ratePerSec paces calls to
// the provider; zero or less means unlimited.
func NewWeatherService(apiKey, baseURL string, ratePerSec float64, timeout time.Duration) *WeatherService {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// weatherstackResponse represents the weatherstack /current response
type weatherstackResponse struct {
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Lat     string `json:"lat"`
		Lon     string `json:"lon"`
	} `json:"location"`
	Current *struct {
		Temperature  float64  `json:"temperature"`
		FeelsLike    float64  `json:"feelslike"`
		Humidity     int      `json:"humidity"`
		Descriptions []string `json:"weather_descriptions"`
		WindSpeed    float64  `json:"wind_speed"`
		Pressure     int      `json:"pressure"`
		Visibility   int      `json:"visibility"`
	} `json:"current"`
}

// GetCurrentWeather fetches current conditions for city. Concurrent lookups
// of the same city share one provider call.
func (s *WeatherService) GetCurrentWeather(ctx context.Context, city string) (domain.Weather, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.Weather{}, ErrCityRequired
	}

	// Return mock data if no API key
	if s.apiKey == "" {
		return s.getMockWeather(city), nil
	}

	// the shared call outlives any single caller; the client timeout bounds it
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strings.ToLower(city), func() (any, error) {
		return s.fetch(shared, city)
	})
	select {
	case <-ctx.Done():
		return domain.Weather{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Weather{}, res.Err
		}
		return res.Val.(domain.Weather), nil
	}
}

func (s *WeatherService) fetch(ctx context.Context, city string) (domain.Weather, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.Weather{}, eris.Wrap(err, "weather: rate limiter")
	}

	q := url.Values{}
	q.Set("access_key", s.apiKey)
	q.Set("query", city)
	q.Set("units", "m")
	endpoint := s.baseURL + "/current?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Weather{}, eris.Wrap(err, "weather: failed to create request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Weather{}, eris.Wrapf(ErrWeatherUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Weather{}, eris.Wrapf(ErrWeatherUnavailable, "status %d", resp.StatusCode)
	}

	var wsResp weatherstackResponse
	if err := json.NewDecoder(resp.Body).Decode(&wsResp); err != nil {
		return domain.Weather{}, eris.Wrapf(ErrWeatherUnavailable, "decode response: %v", err)
	}
	if wsResp.Success != nil && !*wsResp.Success {
		info := "provider error"
		if wsResp.Error != nil {
			info = wsResp.Error.Info
		}
		return domain.Weather{}, eris.Wrapf(ErrWeatherUnavailable, "%s", info)
	}
	if wsResp.Current == nil {
		return domain.Weather{}, eris.Wrap(ErrWeatherUnavailable, "response has no current conditions")
	}

	cur := wsResp.Current
	weather := domain.Weather{
		Temperature: cur.Temperature,
		FeelsLike:   cur.FeelsLike,
		Humidity:    cur.Humidity,
		WetBulb:     wetBulb(cur.Temperature, cur.Humidity),
		WindSpeed:   cur.WindSpeed,
		Pressure:    cur.Pressure,
		Visibility:  cur.Visibility,
		City:        wsResp.Location.Name,
		Country:     wsResp.Location.Country,
		Timestamp:   time.Now(),
		IsMock:      false,
	}
	if weather.City == "" {
		weather.City = city
	}
	if len(cur.Descriptions) > 0 {
		weather.Description = cur.Descriptions[0]
	}
	weather.Latitude, _ = utils.ParseNumber(wsResp.Location.Lat)
	weather.Longitude, _ = utils.ParseNumber(wsResp.Location.Lon)

	return weather, nil
}

// wetBulb approximates wet bulb temperature the same way the prediction
// service does when it builds its weather features.
func wetBulb(temp float64, humidity int) float64 {
	return utils.RoundTo(temp-float64(humidity)/100*5, 2)
}

// getMockWeather returns fixed conditions when no API key is configured
func (s *WeatherService) getMockWeather(city string) domain.Weather {
	const (
		temp     = 31.0
		humidity = 70
	)
	return domain.Weather{
		Temperature: temp,
		FeelsLike:   35.0,
		Humidity:    humidity,
		WetBulb:     wetBulb(temp, humidity),
		Description: "Partly cloudy",
		WindSpeed:   9.0,
		Visibility:  10,
		Pressure:    1008,
		City:        city,
		Timestamp:   time.Now(),
		IsMock:      true,
	}
}
