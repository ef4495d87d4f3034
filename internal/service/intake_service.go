package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/internal/intake"
	"github.com/chillerops/backend/internal/metrics"
	"github.com/chillerops/backend/internal/relay"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown, discarded or expired sessions.
var ErrSessionNotFound = eris.New("intake: session not found")

// SubmitResult is what the intake page receives after a successful submit:
// the predictions for its dialog and the ticket to navigate with.
type SubmitResult struct {
	Predictions domain.PredictionResult `json:"predictions"`
	City        string                  `json:"city"`
	Ticket      relay.Ticket            `json:"ticket"`
}

type session struct {
	wizard  *intake.Wizard
	touched time.Time
}

// IntakeService owns the live intake wizards, one per session.
type IntakeService struct {
	predictor intake.Predictor
	relay     *relay.Relay
	repo      DataRepository
	metrics   *metrics.Metrics
	ttl       time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	wgBg sync.WaitGroup
}

// NewIntakeService creates a new intake service. Sessions idle longer than
// ttl are discarded.
func NewIntakeService(
	predictor intake.Predictor,
	rl *relay.Relay,
	repo DataRepository,
	m *metrics.Metrics,
	ttl time.Duration,
) *IntakeService {
	return &IntakeService{
		predictor: predictor,
		relay:     rl,
		repo:      repo,
		metrics:   m,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// WaitBackground blocks until pending audit writes complete.
func (s *IntakeService) WaitBackground() {
	s.wgBg.Wait()
}

// Start opens a new wizard, optionally prefilled with the sample reading.
func (s *IntakeService) Start(prefill bool) (string, intake.State) {
	rec := domain.NewIntakeRecord()
	if prefill {
		rec = domain.SampleIntakeRecord()
	}
	w := intake.NewWizard(rec)
	id := uuid.NewString()

	s.mu.Lock()
	s.evictLocked()
	s.sessions[id] = &session{wizard: w, touched: s.now()}
	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	return id, w.State()
}

// Discard closes a session. It reports whether the session existed.
func (s *IntakeService) Discard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return ok
}

// State returns the current view of a session.
func (s *IntakeService) State(id string) (intake.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return intake.State{}, err
	}
	return w.State(), nil
}

// Set applies field updates. Unknown fields reject the whole batch.
func (s *IntakeService) Set(id string, fields map[string]string) (intake.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return intake.State{}, err
	}

	names := make([]string, 0, len(fields))
	scratch := domain.NewIntakeRecord()
	for name := range fields {
		if err := intake.SetField(&scratch, name, ""); err != nil {
			return intake.State{}, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := w.Set(name, fields[name]); err != nil {
			return intake.State{}, err
		}
	}
	return w.State(), nil
}

// Advance moves the session forward when its current step validates.
func (s *IntakeService) Advance(id string) (intake.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return intake.State{}, err
	}
	if _, err := w.Advance(); err != nil {
		return w.State(), err
	}
	return w.State(), nil
}

// Retreat moves the session back one step.
func (s *IntakeService) Retreat(id string) (intake.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return intake.State{}, err
	}
	w.Retreat()
	return w.State(), nil
}

// Toggle flips one chiller unit.
func (s *IntakeService) Toggle(id, unit string) (intake.State, error) {
	w, err := s.lookup(id)
	if err != nil {
		return intake.State{}, err
	}
	if _, err := w.Toggle(unit); err != nil {
		return intake.State{}, err
	}
	return w.State(), nil
}

// Submit sends the session's record for prediction and hands the result to
// the relay. On success the session is closed; on failure it stays on the
// last step for a manual retry.
func (s *IntakeService) Submit(ctx context.Context, id string) (SubmitResult, error) {
	w, err := s.lookup(id)
	if err != nil {
		return SubmitResult{}, err
	}

	start := s.now()
	sub, err := w.Submit(ctx, s.predictor)
	elapsed := s.now().Sub(start)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) {
			s.metrics.Submissions.WithLabelValues(domain.OutcomeTransportError).Inc()
			s.metrics.PredictionLatency.Observe(elapsed.Seconds())
			zap.L().Warn("prediction submission failed", zap.String("session", id), zap.Error(err))
			s.audit(domain.PredictionLog{
				City:      w.State().Record.City,
				Outcome:   domain.OutcomeTransportError,
				Error:     terr.Error(),
				LatencyMS: elapsed.Milliseconds(),
				Timestamp: start,
			})
		} else {
			s.metrics.Submissions.WithLabelValues("rejected").Inc()
		}
		return SubmitResult{}, err
	}
	s.metrics.PredictionLatency.Observe(elapsed.Seconds())

	ticket, err := s.relay.Handoff(sub.Result, sub.Payload.City)
	if err != nil {
		return SubmitResult{}, eris.Wrap(err, "intake: hand off result")
	}
	s.metrics.Submissions.WithLabelValues(domain.OutcomeSuccess).Inc()
	s.Discard(id)

	zap.L().Info("prediction relayed",
		zap.String("session", id),
		zap.String("city", sub.Payload.City),
		zap.Duration("latency", elapsed),
	)
	s.audit(domain.PredictionLog{
		City:        sub.Payload.City,
		Outcome:     domain.OutcomeSuccess,
		Predictions: sub.Result,
		LatencyMS:   elapsed.Milliseconds(),
		Timestamp:   start,
	})

	return SubmitResult{Predictions: sub.Result, City: sub.Payload.City, Ticket: ticket}, nil
}

func (s *IntakeService) audit(entry domain.PredictionLog) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SavePredictionLog(ctx, entry); err != nil {
			zap.L().Error("failed to save prediction log", zap.Error(err))
		}
	}()
}

func (s *IntakeService) lookup(id string) (*intake.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, eris.Wrapf(ErrSessionNotFound, "session %q", id)
	}
	sess.touched = s.now()
	return sess.wizard, nil
}

func (s *IntakeService) evictLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))
}
