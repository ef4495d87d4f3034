package relay

import (
	"strings"
	"testing"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePredictions() domain.PredictionResult {
	return domain.PredictionResult{
		"RT": 120.0, "CHLoad": 95.3, "GPM": 300.0,
		"DeltaCHW": 10.0, "CHWS": 44.0, "CHWR": 54.0,
	}
}

func TestRelay_HandoffThenReceive(t *testing.T) {
	r := New(time.Minute)

	ticket, err := r.Handoff(samplePredictions(), "Vellore")
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Token)
	assert.True(t, strings.HasPrefix(ticket.Location, ResultsPath))
	assert.True(t, strings.HasSuffix(ticket.Location, ticket.Token))

	got, ok := r.Receive(ticket.Token)
	require.True(t, ok)
	assert.Equal(t, domain.Transfer{Predictions: samplePredictions(), City: "Vellore"}, got)
}

func TestRelay_ReceiveIsSingleUse(t *testing.T) {
	r := New(time.Minute)
	ticket, err := r.Handoff(samplePredictions(), "Vellore")
	require.NoError(t, err)

	_, ok := r.Receive(ticket.Token)
	require.True(t, ok)

	_, ok = r.Receive(ticket.Token)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Pending())
}

func TestRelay_UnknownToken(t *testing.T) {
	r := New(time.Minute)
	got, ok := r.Receive("missing")
	assert.False(t, ok)
	assert.Equal(t, domain.Transfer{}, got)
}

func TestRelay_ExpiredTransferIsAbsent(t *testing.T) {
	now := time.Date(2024, 9, 28, 11, 0, 0, 0, time.UTC)
	r := New(time.Minute)
	r.now = func() time.Time { return now }

	ticket, err := r.Handoff(samplePredictions(), "Vellore")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Pending())

	now = now.Add(2 * time.Minute)
	_, ok := r.Receive(ticket.Token)
	assert.False(t, ok)
}

func TestRelay_TokensAreDistinct(t *testing.T) {
	r := New(time.Minute)
	a, err := r.Handoff(samplePredictions(), "Vellore")
	require.NoError(t, err)
	b, err := r.Handoff(samplePredictions(), "Chennai")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)

	got, ok := r.Receive(b.Token)
	require.True(t, ok)
	assert.Equal(t, "Chennai", got.City)
}

func TestRelay_RejectsNilResult(t *testing.T) {
	r := New(time.Minute)
	_, err := r.Handoff(nil, "Vellore")
	assert.ErrorIs(t, err, ErrNoPredictions)
}
