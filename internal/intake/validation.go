// Package intake implements the chiller plant intake wizard: field
// validation, chiller toggles and the step controller that assembles the
// submission payload.
package intake

import (
	"strings"
	"time"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/pkg/utils"
)

// FieldResult is the outcome of one field rule.
type FieldResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Report maps field addresses to their validation outcome.
type Report map[string]FieldResult

// Valid reports whether every field passed.
func (r Report) Valid() bool {
	for _, res := range r {
		if !res.Valid {
			return false
		}
	}
	return true
}

// Errors returns the messages of failing fields only.
func (r Report) Errors() map[string]string {
	out := make(map[string]string)
	for field, res := range r {
		if !res.Valid {
			out[field] = res.Message
		}
	}
	return out
}

// StepErrors returns the failing fields owned by step.
func (r Report) StepErrors(step Step) map[string]string {
	out := make(map[string]string)
	for _, field := range step.Fields {
		if res, ok := r[field]; ok && !res.Valid {
			out[field] = res.Message
		}
	}
	return out
}

// StepComplete reports whether every field owned by step passed.
func (r Report) StepComplete(step Step) bool {
	return len(r.StepErrors(step)) == 0
}

type numberRule struct {
	required string
	notNum   string
	whole    string
	min, max *float64
	minMsg   string
	maxMsg   string
}

func bound(v float64) *float64 { return &v }

var (
	occupancyRule = numberRule{
		required: "Hotel occupancy is required",
		notNum:   "Hotel occupancy must be a number",
		min:      bound(0),
		max:      bound(100),
		minMsg:   "Minimum value is 0",
		maxMsg:   "Maximum value is 100",
	}
	startHourRule = numberRule{
		required: "Start hour is required",
		notNum:   "Start hour must be a number",
		whole:    "Start hour must be a whole number",
		min:      bound(0),
		max:      bound(23),
		minMsg:   "Minimum hour is 0",
		maxMsg:   "Maximum hour is 23",
	}
)

// Validate evaluates every field rule against rec. It has no side effects
// and is called after each input change.
func Validate(rec domain.IntakeRecord) Report {
	rep := make(Report, 4+len(domain.MetricNames))
	rep[domain.FieldCity] = checkRequired(rec.City, "City is required")
	rep[domain.FieldDate] = checkDate(rec.Date)
	rep[domain.FieldHotelOccupancy] = checkNumber(rec.HotelOccupancy, occupancyRule)
	rep[domain.FieldStartHour] = checkNumber(rec.StartHour, startHourRule)
	for _, name := range domain.MetricNames {
		rep[domain.MetricField(name)] = checkNumber(rec.Metrics[name], numberRule{
			required: name + " is required",
			notNum:   name + " must be a number",
		})
	}
	return rep
}

func checkRequired(raw, msg string) FieldResult {
	if strings.TrimSpace(raw) == "" {
		return FieldResult{Message: msg}
	}
	return FieldResult{Valid: true}
}

func checkDate(raw string) FieldResult {
	if res := checkRequired(raw, "Date is required"); !res.Valid {
		return res
	}
	if _, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw)); err != nil {
		return FieldResult{Message: "Date must be in YYYY-MM-DD format"}
	}
	return FieldResult{Valid: true}
}

func checkNumber(raw string, rule numberRule) FieldResult {
	if strings.TrimSpace(raw) == "" {
		return FieldResult{Message: rule.required}
	}
	v, ok := utils.ParseNumber(raw)
	if !ok {
		return FieldResult{Message: rule.notNum}
	}
	if rule.whole != "" && !utils.IsWhole(v) {
		return FieldResult{Message: rule.whole}
	}
	if rule.min != nil && v < *rule.min {
		return FieldResult{Message: rule.minMsg}
	}
	if rule.max != nil && v > *rule.max {
		return FieldResult{Message: rule.maxMsg}
	}
	return FieldResult{Valid: true}
}
