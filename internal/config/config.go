// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	PredictionServiceURL string
	PredictionTimeout    time.Duration

	WeatherAPIKey     string
	WeatherBaseURL    string
	WeatherRatePerSec float64
	WeatherTimeout    time.Duration

	TransferTTL time.Duration
	SessionTTL  time.Duration
}

var defaults = map[string]any{
	"PORT":                   "8080",
	"GO_ENV":                 "development",
	"LOG_LEVEL":              "info",
	"DATABASE_URL":           "",
	"PREDICTION_SERVICE_URL": "http://127.0.0.1:5000",
	"PREDICTION_TIMEOUT":     "30s",
	"WEATHERSTACK_API_KEY":   "",
	"WEATHER_BASE_URL":       "http://api.weatherstack.com",
	"WEATHER_RATE_PER_SEC":   1.0,
	"WEATHER_TIMEOUT":        "10s",
	"TRANSFER_TTL":           "10m",
	"SESSION_TTL":            "1h",
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:                 v.GetString("PORT"),
		Env:                  v.GetString("GO_ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		PredictionServiceURL: v.GetString("PREDICTION_SERVICE_URL"),
		PredictionTimeout:    v.GetDuration("PREDICTION_TIMEOUT"),
		WeatherAPIKey:        v.GetString("WEATHERSTACK_API_KEY"),
		WeatherBaseURL:       v.GetString("WEATHER_BASE_URL"),
		WeatherRatePerSec:    v.GetFloat64("WEATHER_RATE_PER_SEC"),
		WeatherTimeout:       v.GetDuration("WEATHER_TIMEOUT"),
		TransferTTL:          v.GetDuration("TRANSFER_TTL"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PredictionServiceURL == "" {
		return eris.New("config: PREDICTION_SERVICE_URL is required")
	}
	if c.PredictionTimeout <= 0 {
		return eris.New("config: PREDICTION_TIMEOUT must be positive")
	}
	if c.TransferTTL <= 0 || c.SessionTTL <= 0 {
		return eris.New("config: TRANSFER_TTL and SESSION_TTL must be positive")
	}
	return nil
}
