package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrUnknownMetric = errors.New("unknown metric")
)

// EarthquakeRecord is one admitted catalog row. Records are never mutated
// after load.
type EarthquakeRecord struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"` // 0 = unknown
	Day             int     `json:"day"`   // 0 = unknown
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Magnitude       float64 `json:"magnitude"`
	Location        string  `json:"location"`
	Depth           float64 `json:"depth"`
	Deaths          int     `json:"deaths"`
	Missing         int     `json:"missing"`
	Injuries        int     `json:"injuries"`
	Damage          float64 `json:"damage"` // $ millions
	HousesDestroyed int     `json:"houses_destroyed"`
	HousesDamaged   int     `json:"houses_damaged"`
	Tsunami         bool    `json:"tsunami"`
	Volcano         bool    `json:"volcano"`
}

// Value returns the record's value for a quantitative field.
func (r *EarthquakeRecord) Value(f Field) float64 {
	switch f {
	case FieldMagnitude:
		return r.Magnitude
	case FieldDepth:
		return r.Depth
	case FieldDeaths:
		return float64(r.Deaths)
	case FieldMissing:
		return float64(r.Missing)
	case FieldInjuries:
		return float64(r.Injuries)
	case FieldDamage:
		return r.Damage
	case FieldHousesDestroyed:
		return float64(r.HousesDestroyed)
	case FieldHousesDamaged:
		return float64(r.HousesDamaged)
	}
	return 0
}

// Date formats the record date as YYYY-MM-DD with "?" standing in for an
// unknown month or day.
func (r *EarthquakeRecord) Date() string {
	return fmt.Sprintf("%d-%s-%s", r.Year, pad(r.Month), pad(r.Day))
}

func pad(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprintf("%02d", n)
}

type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Catalog is the immutable loaded dataset plus lookups derived once at load.
type Catalog struct {
	Records     []EarthquakeRecord `json:"-"`
	Years       []int              `json:"years"`
	FieldBounds map[Field]Bounds   `json:"field_bounds"`
}

// YearSpan returns the first and last catalog year. ok is false for an
// empty catalog.
func (c *Catalog) YearSpan() (first, last int, ok bool) {
	if len(c.Years) == 0 {
		return 0, 0, false
	}
	return c.Years[0], c.Years[len(c.Years)-1], true
}
