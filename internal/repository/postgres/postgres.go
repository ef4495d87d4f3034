package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// DB is the subset of *pgxpool.Pool the repository uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool DB) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS weather_data (
	id          BIGSERIAL PRIMARY KEY,
	city        TEXT NOT NULL,
	country     TEXT,
	temperature DOUBLE PRECISION,
	feels_like  DOUBLE PRECISION,
	humidity    INTEGER,
	wet_bulb    DOUBLE PRECISION,
	description TEXT,
	wind_speed  DOUBLE PRECISION,
	visibility  INTEGER,
	pressure    INTEGER,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	timestamp   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS weather_data_city_ts ON weather_data (city, timestamp DESC);
CREATE TABLE IF NOT EXISTS prediction_logs (
	id          BIGSERIAL PRIMARY KEY,
	city        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	predictions JSONB,
	error       TEXT,
	latency_ms  BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);`

// EnsureSchema creates the tables when they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return eris.Wrap(err, "postgres: failed to ensure schema")
	}
	return nil
}

// SaveWeatherData persists weather data to PostgreSQL
func (r *PostgresRepository) SaveWeatherData(ctx context.Context, data domain.Weather) error {
	query := `
		INSERT INTO weather_data (
			city, country, temperature, feels_like, humidity, wet_bulb, description,
			wind_speed, visibility, pressure, latitude, longitude, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		data.City, data.Country, data.Temperature, data.FeelsLike, data.Humidity, data.WetBulb, data.Description,
		data.WindSpeed, data.Visibility, data.Pressure, data.Latitude, data.Longitude, data.Timestamp,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: failed to save weather data")
	}

	return nil
}

// SavePredictionLog persists the outcome of a submission to PostgreSQL
func (r *PostgresRepository) SavePredictionLog(ctx context.Context, entry domain.PredictionLog) error {
	query := `
		INSERT INTO prediction_logs (
			city, outcome, predictions, error, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	// nil instead of an empty document for the nullable JSONB column
	var predictions any
	if entry.Predictions != nil {
		raw, err := json.Marshal(entry.Predictions)
		if err != nil {
			return eris.Wrap(err, "postgres: failed to encode predictions")
		}
		predictions = string(raw)
	}
	var errText any
	if entry.Error != "" {
		errText = entry.Error
	}

	_, err := r.pool.Exec(ctx, query,
		entry.City, entry.Outcome, predictions, errText, entry.LatencyMS, entry.Timestamp,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: failed to save prediction log")
	}

	return nil
}

// GetHistoricalWeather retrieves weather history for a city from PostgreSQL
func (r *PostgresRepository) GetHistoricalWeather(ctx context.Context, city string, from, to time.Time) ([]domain.Weather, error) {
	query := `
		SELECT city, country, temperature, feels_like, humidity, wet_bulb, description,
			   wind_speed, visibility, pressure, latitude, longitude, timestamp
		FROM weather_data
		WHERE lower(city) = lower($1) AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp DESC
		LIMIT 100
	`

	rows, err := r.pool.Query(ctx, query, city, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: failed to query weather data")
	}
	defer rows.Close()

	var results []domain.Weather
	for rows.Next() {
		var w domain.Weather
		err := rows.Scan(
			&w.City, &w.Country, &w.Temperature, &w.FeelsLike, &w.Humidity, &w.WetBulb, &w.Description,
			&w.WindSpeed, &w.Visibility, &w.Pressure, &w.Latitude, &w.Longitude, &w.Timestamp,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: failed to scan weather row")
		}
		results = append(results, w)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: failed to iterate weather rows")
	}

	return results, nil
}

// GetRecentPredictions retrieves the newest prediction audit rows
func (r *PostgresRepository) GetRecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	query := `
		SELECT city, outcome, predictions, coalesce(error, ''), latency_ms, created_at
		FROM prediction_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: failed to query prediction logs")
	}
	defer rows.Close()

	var results []domain.PredictionLog
	for rows.Next() {
		var (
			entry domain.PredictionLog
			raw   []byte
		)
		if err := rows.Scan(&entry.City, &entry.Outcome, &raw, &entry.Error, &entry.LatencyMS, &entry.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: failed to scan prediction row")
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &entry.Predictions); err != nil {
				return nil, eris.Wrap(err, "postgres: failed to decode predictions")
			}
		}
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: failed to iterate prediction rows")
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "postgres: health check failed")
	}
	return nil
}
