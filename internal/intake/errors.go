package intake

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
)

var (
	// ErrUnknownField is returned when a field address is not part of the record.
	ErrUnknownField = eris.New("intake: unknown field")

	// ErrUnknownChiller is returned for a chiller unit other than CH1..CH4.
	ErrUnknownChiller = eris.New("intake: unknown chiller unit")

	// ErrSubmissionInFlight rejects a second submit while one is outstanding.
	ErrSubmissionInFlight = eris.New("intake: submission already in flight")

	// ErrNotSubmittable is returned when submit is triggered before the last step.
	ErrNotSubmittable = eris.New("intake: submit is only available on the last step")
)

// ValidationError lists the fields that blocked navigation or submission.
type ValidationError struct {
	Step   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	if e.Step == "" {
		return fmt.Sprintf("intake: record is incomplete: %d invalid field(s) %v", len(names), names)
	}
	return fmt.Sprintf("intake: step %q is incomplete: %d invalid field(s) %v", e.Step, len(names), names)
}
