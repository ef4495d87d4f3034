package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/internal/intake"
	"github.com/chillerops/backend/internal/relay"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predictionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func advanceToLast(t *testing.T, s *IntakeService, id string) {
	t.Helper()
	for i := 0; i < intake.StepCount-1; i++ {
		_, err := s.Advance(id)
		require.NoError(t, err)
	}
}

func TestIntakeService_SubmitRelaysTransfer(t *testing.T) {
	srv := predictionServer(t, http.StatusOK, `{"RT":120,"CHLoad":95.3,"GPM":300,"DeltaCHW":10,"CHWS":44,"CHWR":54}`)
	rl := relay.New(time.Minute)
	repo := &recordingRepo{}
	m := newTestMetrics()
	s := NewIntakeService(NewPredictionClient(srv.URL, time.Second), rl, repo, m, time.Hour)

	id, st := s.Start(true)
	assert.Equal(t, "Vellore", st.Record.City)
	advanceToLast(t, s, id)

	res, err := s.Submit(context.Background(), id)
	require.NoError(t, err)
	s.WaitBackground()

	assert.Equal(t, "Vellore", res.City)
	assert.Equal(t, samplePredictions(), res.Predictions)

	transfer, ok := rl.Receive(res.Ticket.Token)
	require.True(t, ok)
	assert.Equal(t, domain.Transfer{Predictions: samplePredictions(), City: "Vellore"}, transfer)

	_, err = s.State(id)
	assert.ErrorIs(t, err, ErrSessionNotFound, "session closes after hand-off")

	logs := repo.logs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.OutcomeSuccess, logs[0].Outcome)
	assert.Equal(t, "Vellore", logs[0].City)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(domain.OutcomeSuccess)))
}

func TestIntakeService_TransportErrorKeepsSession(t *testing.T) {
	srv := predictionServer(t, http.StatusInternalServerError, `{"error":"Prediction failed"}`)
	rl := relay.New(time.Minute)
	repo := &recordingRepo{}
	s := NewIntakeService(NewPredictionClient(srv.URL, time.Second), rl, repo, newTestMetrics(), time.Hour)

	id, _ := s.Start(true)
	advanceToLast(t, s, id)

	_, err := s.Submit(context.Background(), id)
	s.WaitBackground()

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)

	st, err := s.State(id)
	require.NoError(t, err)
	assert.Equal(t, intake.StepCount-1, st.Step)
	assert.True(t, st.CanSubmit)
	assert.Equal(t, 0, rl.Pending(), "no transfer for a failed submission")

	logs := repo.logs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.OutcomeTransportError, logs[0].Outcome)
	assert.Nil(t, logs[0].Predictions)
}

func TestIntakeService_SubmitBeforeLastStep(t *testing.T) {
	srv := predictionServer(t, http.StatusOK, `{}`)
	s := NewIntakeService(NewPredictionClient(srv.URL, time.Second), relay.New(time.Minute), &recordingRepo{}, newTestMetrics(), time.Hour)

	id, _ := s.Start(true)
	_, err := s.Submit(context.Background(), id)
	assert.ErrorIs(t, err, intake.ErrNotSubmittable)
}

func TestIntakeService_SetFields(t *testing.T) {
	s := NewIntakeService(nil, relay.New(time.Minute), &recordingRepo{}, newTestMetrics(), time.Hour)
	id, _ := s.Start(false)

	st, err := s.Set(id, map[string]string{
		domain.FieldCity:           "Vellore",
		domain.FieldHotelOccupancy: "150",
	})
	require.NoError(t, err)
	assert.Equal(t, "Vellore", st.Record.City)
	assert.Equal(t, "Maximum value is 100", st.Errors[domain.FieldHotelOccupancy])

	_, err = s.Set(id, map[string]string{domain.FieldDate: "2024-09-28", "bogus": "1"})
	assert.ErrorIs(t, err, intake.ErrUnknownField)
	st, err = s.State(id)
	require.NoError(t, err)
	assert.Empty(t, st.Record.Date, "batch with an unknown field is not applied")
}

func TestIntakeService_AdvanceRefusal(t *testing.T) {
	s := NewIntakeService(nil, relay.New(time.Minute), &recordingRepo{}, newTestMetrics(), time.Hour)
	id, _ := s.Start(true)
	_, err := s.Set(id, map[string]string{domain.FieldHotelOccupancy: "150"})
	require.NoError(t, err)

	st, err := s.Advance(id)
	var verr *intake.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, st.Step)
}

func TestIntakeService_ToggleAndRetreat(t *testing.T) {
	s := NewIntakeService(nil, relay.New(time.Minute), &recordingRepo{}, newTestMetrics(), time.Hour)
	id, _ := s.Start(true)

	st, err := s.Toggle(id, "CH3")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Chillers["CH3"])

	_, err = s.Toggle(id, "CH9")
	assert.ErrorIs(t, err, intake.ErrUnknownChiller)

	st, err = s.Retreat(id)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Step)
}

func TestIntakeService_SessionsExpire(t *testing.T) {
	now := time.Date(2024, 9, 28, 11, 0, 0, 0, time.UTC)
	s := NewIntakeService(nil, relay.New(time.Minute), &recordingRepo{}, newTestMetrics(), time.Hour)
	s.now = func() time.Time { return now }

	id, _ := s.Start(false)
	now = now.Add(30 * time.Minute)
	_, err := s.State(id)
	require.NoError(t, err)

	now = now.Add(61 * time.Minute)
	_, err = s.State(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestIntakeService_Discard(t *testing.T) {
	s := NewIntakeService(nil, relay.New(time.Minute), &recordingRepo{}, newTestMetrics(), time.Hour)
	id, _ := s.Start(false)
	assert.True(t, s.Discard(id))
	assert.False(t, s.Discard(id))
	_, err := s.State(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
