package intake

import (
	"strings"

	"github.com/chillerops/backend/internal/domain"
	"github.com/rotisserie/eris"
)

// Step is one page of the wizard and the fields it owns.
type Step struct {
	Index  int      `json:"index"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Step indexes.
const (
	StepGeneral = iota
	StepMetrics
	StepChillers

	// StepCount is the number of wizard pages.
	StepCount
)

// steps lists the wizard pages in order. The chiller step owns no
// validated fields.
var steps = [StepCount]Step{
	{
		Index: StepGeneral,
		Name:  "General Information",
		Fields: []string{
			domain.FieldCity,
			domain.FieldDate,
			domain.FieldHotelOccupancy,
			domain.FieldStartHour,
		},
	},
	{Index: StepMetrics, Name: "Operational Metrics", Fields: metricFields()},
	{Index: StepChillers, Name: "Chiller Status"},
}

// Steps returns a copy of the wizard pages in order.
func Steps() []Step {
	out := make([]Step, 0, StepCount)
	for i := range steps {
		out = append(out, StepAt(i))
	}
	return out
}

// StepAt returns a copy of the page at index i. It panics when i is out of
// range.
func StepAt(i int) Step {
	s := steps[i]
	s.Fields = append([]string(nil), s.Fields...)
	return s
}

func metricFields() []string {
	fields := make([]string, 0, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		fields = append(fields, domain.MetricField(name))
	}
	return fields
}

// SetField writes value into the field addressed by field.
func SetField(rec *domain.IntakeRecord, field, value string) error {
	switch field {
	case domain.FieldCity:
		rec.City = value
	case domain.FieldDate:
		rec.Date = value
	case domain.FieldStartHour:
		rec.StartHour = value
	case domain.FieldHotelOccupancy:
		rec.HotelOccupancy = value
	default:
		name, ok := strings.CutPrefix(field, domain.MetricFieldPrefix)
		if !ok || !isMetric(name) {
			return eris.Wrapf(ErrUnknownField, "field %q", field)
		}
		if rec.Metrics == nil {
			rec.Metrics = make(map[string]string, len(domain.MetricNames))
		}
		rec.Metrics[name] = value
	}
	return nil
}

func isMetric(name string) bool {
	for _, m := range domain.MetricNames {
		if m == name {
			return true
		}
	}
	return false
}
