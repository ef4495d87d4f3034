package intake

import (
	"github.com/chillerops/backend/internal/domain"
	"github.com/rotisserie/eris"
)

// ChillerToggles holds the on/off flag of each chiller unit. It is not
// validated and always has a value, so it can be merged at any step.
type ChillerToggles struct {
	on map[string]bool
}

// NewChillerToggles returns toggles with every unit off.
func NewChillerToggles() ChillerToggles {
	t := ChillerToggles{on: make(map[string]bool, len(domain.ChillerUnits))}
	for _, unit := range domain.ChillerUnits {
		t.on[unit] = false
	}
	return t
}

// Toggle complements unit and returns its new value. Other units are untouched.
func (t *ChillerToggles) Toggle(unit string) (int, error) {
	cur, ok := t.on[unit]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownChiller, "unit %q", unit)
	}
	t.on[unit] = !cur
	return flag(!cur), nil
}

// Value returns 1 if unit is on, 0 otherwise.
func (t *ChillerToggles) Value(unit string) (int, error) {
	cur, ok := t.on[unit]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownChiller, "unit %q", unit)
	}
	return flag(cur), nil
}

// Status returns a copy of all flags.
func (t *ChillerToggles) Status() domain.ChillerStatus {
	out := make(domain.ChillerStatus, len(t.on))
	for unit, on := range t.on {
		out[unit] = flag(on)
	}
	return out
}

func flag(on bool) int {
	if on {
		return 1
	}
	return 0
}
