package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/rotisserie/eris"
)

// TransportError is the single failure channel of the prediction exchange:
// unreachable service, non-2xx status or an unusable body.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("prediction: %s (status %d)", e.Message, e.StatusCode)
	}
	return "prediction: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PredictionClient handles communication with the prediction service
type PredictionClient struct {
	serviceURL string
	httpClient *http.Client
}

// NewPredictionClient creates a new prediction client. timeout is the
// transport's bound on one exchange.
func NewPredictionClient(serviceURL string, timeout time.Duration) *PredictionClient {
	return &PredictionClient{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Predict posts the payload and returns the decoded response verbatim. It
// never retries and never substitutes a fallback result.
func (c *PredictionClient) Predict(ctx context.Context, payload domain.SubmissionPayload) (domain.PredictionResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Message: "could not encode request", Err: eris.Wrap(err, "prediction: marshal request")}
	}

	url := c.serviceURL + "/predict"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: "could not build request", Err: eris.Wrap(err, "prediction: create request")}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Message: "prediction service is unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    "network response was not ok" + upstreamDetail(resp.Body),
		}
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        eris.Wrap(err, "prediction: decode response"),
		}
	}
	obj, ok := decoded.(map[string]any)
	if !ok || obj == nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: "response body is not a JSON object"}
	}

	return domain.PredictionResult(obj), nil
}

// upstreamDetail extracts the service's {"error": "..."} message if any.
func upstreamDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var msg struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &msg) == nil && msg.Error != "" {
		return ": " + msg.Error
	}
	return ""
}

// Health checks prediction service connectivity
func (c *PredictionClient) Health(ctx context.Context) error {
	url := c.serviceURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "prediction: failed to create health request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "prediction: health check failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("prediction: health check returned status %d", resp.StatusCode)
	}

	return nil
}
