package domain

import "time"

// Weather represents current conditions for a city
type Weather struct {
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	WetBulb     float64   `json:"wet_bulb_temperature"`
	Description string    `json:"description"`
	WindSpeed   float64   `json:"wind_speed"`
	Visibility  int       `json:"visibility"`
	Pressure    int       `json:"pressure"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	Timestamp   time.Time `json:"timestamp"`
	IsMock      bool      `json:"is_mock"`
}

// WeatherResponse wraps weather data with metadata
type WeatherResponse struct {
	Data    Weather `json:"data"`
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
}
