package models

import "fmt"

// Field names one of the eight quantitative record attributes that carry a
// range filter.
type Field string

const (
	FieldMagnitude       Field = "magnitude"
	FieldDepth           Field = "depth"
	FieldDeaths          Field = "deaths"
	FieldMissing         Field = "missing"
	FieldInjuries        Field = "injuries"
	FieldDamage          Field = "damage"
	FieldHousesDestroyed Field = "housesDestroyed"
	FieldHousesDamaged   Field = "housesDamaged"
)

// Fields lists the quantitative fields in slider order.
var Fields = []Field{
	FieldMagnitude,
	FieldDepth,
	FieldDeaths,
	FieldMissing,
	FieldInjuries,
	FieldDamage,
	FieldHousesDestroyed,
	FieldHousesDamaged,
}

var fieldLabels = map[Field]string{
	FieldMagnitude:       "Magnitude",
	FieldDepth:           "Focal Depth (km)",
	FieldDeaths:          "Deaths",
	FieldMissing:         "Missing",
	FieldInjuries:        "Injuries",
	FieldDamage:          "Damage ($Mil)",
	FieldHousesDestroyed: "Houses Destroyed",
	FieldHousesDamaged:   "Houses Damaged",
}

func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldLabels[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

func (f Field) Label() string {
	return fieldLabels[f]
}

// Step is the slider precision: tenths for magnitude, whole units otherwise.
func (f Field) Step() float64 {
	if f == FieldMagnitude {
		return 0.1
	}
	return 1
}

// Metric selects what a chart sums or ranks by.
type Metric string

const (
	MetricCount           Metric = "count"
	MetricDeaths          Metric = "deaths"
	MetricMissing         Metric = "missing"
	MetricInjuries        Metric = "injuries"
	MetricDamage          Metric = "damage"
	MetricHousesDestroyed Metric = "housesDestroyed"
	MetricHousesDamaged   Metric = "housesDamaged"
)

var Metrics = []Metric{
	MetricCount,
	MetricDeaths,
	MetricMissing,
	MetricInjuries,
	MetricDamage,
	MetricHousesDestroyed,
	MetricHousesDamaged,
}

var metricLabels = map[Metric]string{
	MetricCount:           "Number of Earthquakes",
	MetricDeaths:          "Deaths",
	MetricMissing:         "Missing",
	MetricInjuries:        "Injuries",
	MetricDamage:          "Damage ($Mil)",
	MetricHousesDestroyed: "Houses Destroyed",
	MetricHousesDamaged:   "Houses Damaged",
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := metricLabels[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

func (m Metric) Label() string {
	return metricLabels[m]
}

// Value is the per-record contribution of a metric. Count contributes 1.
func (m Metric) Value(r *EarthquakeRecord) float64 {
	if m == MetricCount {
		return 1
	}
	return r.Value(Field(m))
}

// RankValue is the value a record is ranked by in a top-N list. Count has no
// per-record value, so magnitude stands in.
func (m Metric) RankValue(r *EarthquakeRecord) float64 {
	if m == MetricCount {
		return r.Magnitude
	}
	return r.Value(Field(m))
}
