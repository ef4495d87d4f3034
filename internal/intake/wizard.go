package intake

import (
	"context"
	"strings"
	"sync"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/pkg/utils"
)

// Predictor performs the exchange with the prediction service.
type Predictor interface {
	Predict(ctx context.Context, payload domain.SubmissionPayload) (domain.PredictionResult, error)
}

// State is a read-only view of the wizard for rendering.
type State struct {
	Step          int                  `json:"step"`
	StepName      string               `json:"step_name"`
	StepCount     int                  `json:"step_count"`
	StepsComplete []bool               `json:"steps_complete"`
	Record        domain.IntakeRecord  `json:"record"`
	Chillers      domain.ChillerStatus `json:"chiller_status"`
	Errors        map[string]string    `json:"errors"`
	CanAdvance    bool                 `json:"can_advance"`
	CanSubmit     bool                 `json:"can_submit"`
	Submitting    bool                 `json:"submitting"`
}

// Submission is a completed exchange: the payload that was sent and the
// result the service returned.
type Submission struct {
	Payload domain.SubmissionPayload
	Result  domain.PredictionResult
}

// Wizard is the step controller for one intake record. It is safe for
// concurrent use; the lock is never held across the prediction call.
type Wizard struct {
	mu       sync.Mutex
	record   domain.IntakeRecord
	chillers ChillerToggles
	step     int
	inflight bool
}

// NewWizard starts a wizard on the first step with all chillers off.
func NewWizard(record domain.IntakeRecord) *Wizard {
	rec := record.Clone()
	for _, name := range domain.MetricNames {
		if _, ok := rec.Metrics[name]; !ok {
			rec.Metrics[name] = ""
		}
	}
	return &Wizard{record: rec, chillers: NewChillerToggles()}
}

// Step returns the active step index.
func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// State returns a snapshot of the wizard with a fresh validation report.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	rep := Validate(w.record)
	complete := make([]bool, StepCount)
	for i, s := range steps {
		complete[i] = rep.StepComplete(s)
	}
	return State{
		Step:          w.step,
		StepName:      steps[w.step].Name,
		StepCount:     StepCount,
		StepsComplete: complete,
		Record:        w.record.Clone(),
		Chillers:      w.chillers.Status(),
		Errors:        rep.Errors(),
		CanAdvance:    w.step < StepCount-1 && complete[w.step],
		CanSubmit:     w.canSubmitLocked(rep),
		Submitting:    w.inflight,
	}
}

// Set updates one field and returns the re-evaluated report.
func (w *Wizard) Set(field, value string) (Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := SetField(&w.record, field, value); err != nil {
		return nil, err
	}
	return Validate(w.record), nil
}

// Advance moves to the next step when the current one validates. On the
// last step the index stays put.
func (w *Wizard) Advance() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	step := steps[w.step]
	if errs := Validate(w.record).StepErrors(step); len(errs) > 0 {
		return w.step, &ValidationError{Step: step.Name, Fields: errs}
	}
	if w.step < StepCount-1 {
		w.step++
	}
	return w.step, nil
}

// Retreat moves back one step. It never validates.
func (w *Wizard) Retreat() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > 0 {
		w.step--
	}
	return w.step
}

// Toggle flips a chiller unit and returns its new value.
func (w *Wizard) Toggle(unit string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chillers.Toggle(unit)
}

// CanSubmit reports whether submit is currently exposed and allowed.
func (w *Wizard) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canSubmitLocked(Validate(w.record))
}

func (w *Wizard) canSubmitLocked(rep Report) bool {
	return w.step == StepCount-1 && !w.inflight && rep.Valid()
}

// Payload assembles the submission snapshot. Every field of every step must
// validate, whether or not its page was visited.
func (w *Wizard) Payload() (domain.SubmissionPayload, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payloadLocked()
}

func (w *Wizard) payloadLocked() (domain.SubmissionPayload, error) {
	rep := Validate(w.record)
	if !rep.Valid() {
		return domain.SubmissionPayload{}, &ValidationError{Fields: rep.Errors()}
	}

	// validation guarantees every parse below succeeds
	hour, _ := utils.ParseNumber(w.record.StartHour)
	occupancy, _ := utils.ParseNumber(w.record.HotelOccupancy)
	metrics := make(map[string]float64, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		metrics[name], _ = utils.ParseNumber(w.record.Metrics[name])
	}

	return domain.SubmissionPayload{
		City:           strings.TrimSpace(w.record.City),
		Date:           strings.TrimSpace(w.record.Date),
		StartHour:      int(hour),
		HotelOccupancy: occupancy,
		Metrics:        metrics,
		Chillers:       w.chillers.Status(),
	}, nil
}

// Submit sends the payload through p. Only one submission may be
// outstanding; a failure leaves the step and every value as they were so
// the user can trigger submit again.
func (w *Wizard) Submit(ctx context.Context, p Predictor) (Submission, error) {
	w.mu.Lock()
	if w.step != StepCount-1 {
		w.mu.Unlock()
		return Submission{}, ErrNotSubmittable
	}
	if w.inflight {
		w.mu.Unlock()
		return Submission{}, ErrSubmissionInFlight
	}
	payload, err := w.payloadLocked()
	if err != nil {
		w.mu.Unlock()
		return Submission{}, err
	}
	w.inflight = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inflight = false
		w.mu.Unlock()
	}()

	result, err := p.Predict(ctx, payload)
	if err != nil {
		return Submission{}, err
	}
	return Submission{Payload: payload, Result: result}, nil
}
