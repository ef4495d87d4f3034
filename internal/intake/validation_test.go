package intake

import (
	"testing"

	"github.com/chillerops/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SampleRecordPasses(t *testing.T) {
	rep := Validate(domain.SampleIntakeRecord())
	assert.True(t, rep.Valid(), "unexpected errors: %v", rep.Errors())
	assert.Len(t, rep, 4+len(domain.MetricNames))
}

func TestValidate_EmptyRecordFailsEveryField(t *testing.T) {
	rep := Validate(domain.NewIntakeRecord())
	errs := rep.Errors()
	assert.Len(t, errs, 4+len(domain.MetricNames))
	assert.Equal(t, "City is required", errs[domain.FieldCity])
	assert.Equal(t, "Date is required", errs[domain.FieldDate])
	assert.Equal(t, "Hotel occupancy is required", errs[domain.FieldHotelOccupancy])
	assert.Equal(t, "Start hour is required", errs[domain.FieldStartHour])
	assert.Equal(t, "kW_Tot is required", errs[domain.MetricField("kW_Tot")])
}

func TestValidate_GeneralFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		message string
	}{
		{"occupancy above range", domain.FieldHotelOccupancy, "150", "Maximum value is 100"},
		{"occupancy below range", domain.FieldHotelOccupancy, "-1", "Minimum value is 0"},
		{"occupancy not numeric", domain.FieldHotelOccupancy, "full", "Hotel occupancy must be a number"},
		{"occupancy upper bound", domain.FieldHotelOccupancy, "100", ""},
		{"occupancy lower bound", domain.FieldHotelOccupancy, "0", ""},
		{"hour above range", domain.FieldStartHour, "24", "Maximum hour is 23"},
		{"hour below range", domain.FieldStartHour, "-2", "Minimum hour is 0"},
		{"hour fractional", domain.FieldStartHour, "11.5", "Start hour must be a whole number"},
		{"hour upper bound", domain.FieldStartHour, "23", ""},
		{"blank city", domain.FieldCity, "   ", "City is required"},
		{"bad date", domain.FieldDate, "28/09/2024", "Date must be in YYYY-MM-DD format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.SampleIntakeRecord()
			require.NoError(t, SetField(&rec, tt.field, tt.value))
			res := Validate(rec)[tt.field]
			assert.Equal(t, tt.message == "", res.Valid)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestValidate_MetricsHaveNoRange(t *testing.T) {
	rec := domain.SampleIntakeRecord()
	rec.Metrics["DeltaCT"] = "-99999"
	rec.Metrics["kW_Tot"] = "1e6"
	assert.True(t, Validate(rec).Valid())

	rec.Metrics["WBT"] = "warm"
	res := Validate(rec)[domain.MetricField("WBT")]
	assert.False(t, res.Valid)
	assert.Equal(t, "WBT must be a number", res.Message)
}

func TestValidate_IsPure(t *testing.T) {
	rec := domain.SampleIntakeRecord()
	rec.HotelOccupancy = "150"
	before := rec.Clone()

	first := Validate(rec)
	second := Validate(rec)
	assert.Equal(t, first, second)
	assert.Equal(t, before, rec)
}

func TestReport_StepComplete(t *testing.T) {
	rec := domain.SampleIntakeRecord()
	rec.Metrics["Hz_CT"] = ""
	rep := Validate(rec)

	assert.True(t, rep.StepComplete(StepAt(StepGeneral)))
	assert.False(t, rep.StepComplete(StepAt(StepMetrics)))
	assert.True(t, rep.StepComplete(StepAt(StepChillers)))
	assert.Equal(t, map[string]string{"operational_metrics.Hz_CT": "Hz_CT is required"}, rep.StepErrors(StepAt(StepMetrics)))
}

func TestSetField_UnknownField(t *testing.T) {
	rec := domain.NewIntakeRecord()
	assert.ErrorIs(t, SetField(&rec, "operational_metrics.CH1", "1"), ErrUnknownField)
	assert.ErrorIs(t, SetField(&rec, "weather", "sunny"), ErrUnknownField)
}

func TestSteps_OwnDisjointFields(t *testing.T) {
	seen := map[string]int{}
	for _, s := range Steps() {
		for _, f := range s.Fields {
			seen[f]++
		}
	}
	assert.Len(t, seen, 4+len(domain.MetricNames))
	for f, n := range seen {
		assert.Equal(t, 1, n, f)
	}
}

func TestSteps_ReturnsCopies(t *testing.T) {
	all := Steps()
	require.Len(t, all, StepCount)

	all[StepGeneral].Name = "changed"
	all[StepGeneral].Fields[0] = "changed"
	page := StepAt(StepGeneral)
	page.Fields[1] = "changed"

	fresh := StepAt(StepGeneral)
	assert.Equal(t, "General Information", fresh.Name)
	assert.Equal(t, domain.FieldCity, fresh.Fields[0])
	assert.Equal(t, domain.FieldDate, fresh.Fields[1])
}
