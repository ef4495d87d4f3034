package domain

// Wire names of the general intake fields.
const (
	FieldCity           = "city"
	FieldDate           = "date"
	FieldStartHour      = "start_hour"
	FieldHotelOccupancy = "hotel_occupancy"
)

// MetricFieldPrefix namespaces operational metric keys in field addresses,
// e.g. "operational_metrics.kW_Tot".
const MetricFieldPrefix = "operational_metrics."

// DateLayout is the calendar date format the prediction service parses.
const DateLayout = "2006-01-02"

// MetricNames is the fixed set of plant readings every submission carries.
var MetricNames = []string{
	"kW_Tot", "kW_RT", "kW_CHH", "kW_CHP", "kW_CHS", "kW_CDS", "kW_CT",
	"DeltaCDW", "CDHI", "CDLO", "WBT", "DeltaCT",
	"Hz_CHP", "Hz_CHS", "Hz_CDS", "Hz_CT",
	"Precent_CHP", "Precent_CH", "Precent_CDS", "Precent_CT",
}

// ChillerUnits are the equipment flags toggled on the last wizard step.
var ChillerUnits = []string{"CH1", "CH2", "CH3", "CH4"}

// MetricField returns the field address of an operational metric.
func MetricField(name string) string {
	return MetricFieldPrefix + name
}

// IntakeRecord holds user entries exactly as typed. Values are parsed only
// by validation and payload assembly, so a partial or malformed record is
// always representable.
type IntakeRecord struct {
	City           string            `json:"city"`
	Date           string            `json:"date"`
	StartHour      string            `json:"start_hour"`
	HotelOccupancy string            `json:"hotel_occupancy"`
	Metrics        map[string]string `json:"operational_metrics"`
}

// NewIntakeRecord returns an empty record with every metric key present.
func NewIntakeRecord() IntakeRecord {
	r := IntakeRecord{Metrics: make(map[string]string, len(MetricNames))}
	for _, name := range MetricNames {
		r.Metrics[name] = ""
	}
	return r
}

// SampleIntakeRecord returns the Vellore reading used to prefill the form.
func SampleIntakeRecord() IntakeRecord {
	return IntakeRecord{
		City:           "Vellore",
		Date:           "2024-09-28",
		StartHour:      "11",
		HotelOccupancy: "95",
		Metrics: map[string]string{
			"kW_Tot":      "260.2",
			"kW_RT":       "0.815",
			"kW_CHH":      "184.5",
			"kW_CHP":      "24.3",
			"kW_CHS":      "0",
			"kW_CDS":      "31.6",
			"kW_CT":       "19.8",
			"DeltaCDW":    "5.6",
			"CDHI":        "87.6",
			"CDLO":        "82",
			"WBT":         "76.1",
			"DeltaCT":     "-5.9",
			"Hz_CHP":      "48",
			"Hz_CHS":      "0",
			"Hz_CDS":      "47",
			"Hz_CT":       "48",
			"Precent_CHP": "9.3",
			"Precent_CH":  "70.9",
			"Precent_CDS": "12.2",
			"Precent_CT":  "7.6",
		},
	}
}

// Clone returns a deep copy of the record.
func (r IntakeRecord) Clone() IntakeRecord {
	out := r
	out.Metrics = make(map[string]string, len(r.Metrics))
	for k, v := range r.Metrics {
		out.Metrics[k] = v
	}
	return out
}

// ChillerStatus maps each chiller unit to 0 (off) or 1 (on).
type ChillerStatus map[string]int
