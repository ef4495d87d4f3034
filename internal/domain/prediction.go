package domain

import (
	"encoding/json"
	"time"
)

// SubmissionPayload is the read-only snapshot sent to the prediction
// service. Metrics and chiller flags stay separate in memory and are only
// flattened into one operational_metrics object on the wire.
type SubmissionPayload struct {
	City           string
	Date           string
	StartHour      int
	HotelOccupancy float64
	Metrics        map[string]float64
	Chillers       ChillerStatus
}

type submissionWire struct {
	City               string             `json:"city"`
	Date               string             `json:"date"`
	StartHour          int                `json:"start_hour"`
	HotelOccupancy     float64            `json:"hotel_occupancy"`
	OperationalMetrics map[string]float64 `json:"operational_metrics"`
}

// OperationalMetrics flattens metrics and chiller flags into the single
// mapping the service expects. Chiller flags are written last and win on
// any key collision.
func (p SubmissionPayload) OperationalMetrics() map[string]float64 {
	flat := make(map[string]float64, len(p.Metrics)+len(p.Chillers))
	for k, v := range p.Metrics {
		flat[k] = v
	}
	for k, v := range p.Chillers {
		flat[k] = float64(v)
	}
	return flat
}

// MarshalJSON encodes the payload in the prediction service's flat schema.
func (p SubmissionPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(submissionWire{
		City:               p.City,
		Date:               p.Date,
		StartHour:          p.StartHour,
		HotelOccupancy:     p.HotelOccupancy,
		OperationalMetrics: p.OperationalMetrics(),
	})
}

// PredictionResult is the service response, kept verbatim. Its shape is
// owned by the prediction service.
type PredictionResult map[string]any

// Transfer carries a prediction and its city from intake to results.
type Transfer struct {
	Predictions PredictionResult `json:"predictions"`
	City        string           `json:"city"`
}

// Result view states.
const (
	ViewReady         = "ready"
	ViewNoPredictions = "no_predictions"
)

// ResultView is what the results page renders.
type ResultView struct {
	State        string           `json:"state"`
	Message      string           `json:"message,omitempty"`
	City         string           `json:"city,omitempty"`
	Predictions  PredictionResult `json:"predictions"`
	Weather      *Weather         `json:"weather,omitempty"`
	WeatherError string           `json:"weather_error,omitempty"`
}

// Prediction outcomes recorded in the audit log.
const (
	OutcomeSuccess        = "success"
	OutcomeTransportError = "transport_error"
)

// PredictionLog is one audited submission. It never holds the operational
// metrics that were submitted.
type PredictionLog struct {
	City        string           `json:"city"`
	Outcome     string           `json:"outcome"`
	Predictions PredictionResult `json:"predictions,omitempty"`
	Error       string           `json:"error,omitempty"`
	LatencyMS   int64            `json:"latency_ms"`
	Timestamp   time.Time        `json:"timestamp"`
}
