package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherstackBody = `{
	"location": {"name": "Vellore", "country": "India", "lat": "12.917", "lon": "79.133"},
	"current": {
		"temperature": 32,
		"feelslike": 37,
		"humidity": 58,
		"weather_descriptions": ["Partly cloudy"],
		"wind_speed": 11,
		"pressure": 1007,
		"visibility": 10
	}
}`

func TestWeatherService_MockWithoutKey(t *testing.T) {
	s := NewWeatherService("", "http://unused", 0, time.Second)
	w, err := s.GetCurrentWeather(context.Background(), "Vellore")
	require.NoError(t, err)
	assert.True(t, w.IsMock)
	assert.Equal(t, "Vellore", w.City)
	assert.InDelta(t, 27.5, w.WetBulb, 1e-9)
}

func TestWeatherService_RequiresCity(t *testing.T) {
	s := NewWeatherService("key", "http://unused", 0, time.Second)
	_, err := s.GetCurrentWeather(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrCityRequired)
}

func TestWeatherService_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("access_key"))
		assert.Equal(t, "Vellore", r.URL.Query().Get("query"))
		assert.Equal(t, "m", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(weatherstackBody))
	}))
	defer srv.Close()

	s := NewWeatherService("secret", srv.URL, 0, time.Second)
	w, err := s.GetCurrentWeather(context.Background(), "Vellore")
	require.NoError(t, err)

	assert.False(t, w.IsMock)
	assert.Equal(t, 32.0, w.Temperature)
	assert.Equal(t, 58, w.Humidity)
	assert.InDelta(t, 29.1, w.WetBulb, 1e-9)
	assert.Equal(t, "Partly cloudy", w.Description)
	assert.Equal(t, "India", w.Country)
	assert.InDelta(t, 12.917, w.Latitude, 1e-9)
	assert.InDelta(t, 79.133, w.Longitude, 1e-9)
}

func TestWeatherService_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider error", http.StatusOK, `{"success":false,"error":{"code":615,"info":"Your API request failed."}}`},
		{"no current block", http.StatusOK, `{"location":{"name":"Nowhere"}}`},
		{"bad status", http.StatusBadGateway, ``},
		{"malformed", http.StatusOK, `{"current":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewWeatherService("secret", srv.URL, 0, time.Second)
			_, err := s.GetCurrentWeather(context.Background(), "Vellore")
			assert.ErrorIs(t, err, ErrWeatherUnavailable)
		})
	}
}

func TestWeatherService_CoalescesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(weatherstackBody))
	}))
	defer srv.Close()

	s := NewWeatherService("secret", srv.URL, 0, 5*time.Second)
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.GetCurrentWeather(context.Background(), "Vellore")
			done <- err
		}()
	}
	// give both goroutines time to join the same flight
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWeatherService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(weatherstackBody))
	}))
	defer srv.Close()

	s := NewWeatherService("secret", srv.URL, 0, 5*time.Second)

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan error, 1)
	go func() {
		_, err := s.GetCurrentWeather(ctxA, "Vellore")
		doneA <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	doneB := make(chan error, 1)
	go func() {
		w, err := s.GetCurrentWeather(context.Background(), "Vellore")
		if err == nil && w.City != "Vellore" {
			err = errors.New("unexpected city " + w.City)
		}
		doneB <- err
	}()
	// let B join the in-flight lookup before A goes away
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-doneA, context.Canceled)

	close(release)
	require.NoError(t, <-doneB)
	assert.Equal(t, int32(1), calls.Load())
}
