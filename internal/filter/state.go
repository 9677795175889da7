package filter

import (
	"math"

	"github.com/mr1hm/quake-explorer/internal/models"
)

// Hazards are AND-combined: enabling Tsunami together with NoHazard matches
// nothing.
type Hazards struct {
	Tsunami  bool `json:"tsunami"`
	Volcano  bool `json:"volcano"`
	NoHazard bool `json:"no_hazard"`
}

// Range is a quantitative slider: fixed Min/Max bounds and the current
// inclusive selection.
type Range struct {
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Current [2]float64 `json:"current"`
}

type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// State is the set of user-chosen constraints, excluding the spatial brush.
type State struct {
	Years        YearRange              `json:"years"`
	Hazards      Hazards                `json:"hazards"`
	Quantitative map[models.Field]Range `json:"quantitative"`

	yearMin, yearMax int
}

// NewState spans the full catalog: every year and every field bound.
func NewState(c *models.Catalog) State {
	first, last, _ := c.YearSpan()
	s := State{
		Years:        YearRange{Start: first, End: last},
		Quantitative: make(map[models.Field]Range, len(models.Fields)),
		yearMin:      first,
		yearMax:      last,
	}
	for _, f := range models.Fields {
		b := c.FieldBounds[f]
		s.Quantitative[f] = Range{Min: b.Min, Max: b.Max, Current: [2]float64{b.Min, b.Max}}
	}
	return s
}

// Clone returns a State that shares nothing with s.
func (s State) Clone() State {
	out := s
	out.Quantitative = make(map[models.Field]Range, len(s.Quantitative))
	for f, r := range s.Quantitative {
		out.Quantitative[f] = r
	}
	return out
}

// YearBounds returns the catalog's first and last year.
func (s State) YearBounds() (int, int) {
	return s.yearMin, s.yearMax
}

// SetYearRange swaps inverted input and clamps into the catalog span.
func (s *State) SetYearRange(start, end int) {
	if start > end {
		start, end = end, start
	}
	s.Years = YearRange{
		Start: clampInt(start, s.yearMin, s.yearMax),
		End:   clampInt(end, s.yearMin, s.yearMax),
	}
}

func (s *State) SetHazards(h Hazards) {
	s.Hazards = h
}

// SetRange rounds lo and hi to the field's slider step, swaps inverted
// input and clamps into the field bounds.
func (s *State) SetRange(f models.Field, lo, hi float64) error {
	if _, err := models.ParseField(string(f)); err != nil {
		return err
	}
	if s.Quantitative == nil {
		s.Quantitative = make(map[models.Field]Range, len(models.Fields))
	}
	r := s.Quantitative[f]
	lo, hi = roundTo(lo, f.Step()), roundTo(hi, f.Step())
	if lo > hi {
		lo, hi = hi, lo
	}
	r.Current = [2]float64{clamp(lo, r.Min, r.Max), clamp(hi, r.Min, r.Max)}
	s.Quantitative[f] = r
	return nil
}

// ResetRanges widens every quantitative selection back to its bounds.
func (s *State) ResetRanges() {
	for f, r := range s.Quantitative {
		r.Current = [2]float64{r.Min, r.Max}
		s.Quantitative[f] = r
	}
}

func roundTo(v, step float64) float64 {
	inv := 1 / step
	return math.Round(v*inv) / inv
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
