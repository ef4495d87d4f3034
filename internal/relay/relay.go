// Package relay hands a prediction result from the intake flow to the
// results view. Each transfer is delivered at most once.
package relay

import (
	"sync"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ResultsPath is the route a ticket navigates to.
const ResultsPath = "/api/v1/results/"

// ErrNoPredictions is returned when a hand-off carries no result.
var ErrNoPredictions = eris.New("relay: prediction result is empty")

// Ticket identifies a pending transfer and where to collect it.
type Ticket struct {
	Token    string `json:"token"`
	Location string `json:"location"`
}

type pending struct {
	transfer domain.Transfer
	expires  time.Time
}

// Relay holds transfers between hand-off and receipt.
type Relay struct {
	mu      sync.Mutex
	pending map[string]pending
	ttl     time.Duration
	now     func() time.Time
}

// New creates a relay whose undelivered transfers expire after ttl.
func New(ttl time.Duration) *Relay {
	return &Relay{
		pending: make(map[string]pending),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Handoff stores the transfer for exactly one later Receive.
func (r *Relay) Handoff(result domain.PredictionResult, city string) (Ticket, error) {
	if result == nil {
		return Ticket{}, ErrNoPredictions
	}

	token := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()
	r.pending[token] = pending{
		transfer: domain.Transfer{Predictions: result, City: city},
		expires:  r.now().Add(r.ttl),
	}
	return Ticket{Token: token, Location: ResultsPath + token}, nil
}

// Receive removes and returns the transfer for token. The second call for
// the same token, an expired token, or an unknown one reports false.
func (r *Relay) Receive(token string) (domain.Transfer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[token]
	if !ok {
		return domain.Transfer{}, false
	}
	delete(r.pending, token)
	if r.now().After(p.expires) {
		return domain.Transfer{}, false
	}
	return p.transfer, true
}

// Pending returns the number of undelivered transfers.
func (r *Relay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	return len(r.pending)
}

func (r *Relay) evictLocked() {
	now := r.now()
	for token, p := range r.pending {
		if now.After(p.expires) {
			delete(r.pending, token)
		}
	}
}
