package aggregate

import "github.com/mr1hm/quake-explorer/internal/models"

const (
	tsunamiRingScale = 1.5
	volcanoRingScale = 1.3
)

// Marker is the map presentation of one record. Ring radii are zero when the
// record has no such hazard.
type Marker struct {
	Record      models.EarthquakeRecord `json:"record"`
	Bin         Bin                     `json:"bin"`
	Color       string                  `json:"color"`
	Radius      float64                 `json:"radius"`
	TsunamiRing float64                 `json:"tsunami_ring,omitempty"`
	VolcanoRing float64                 `json:"volcano_ring,omitempty"`
	Date        string                  `json:"date"`
}

func Markers(records []models.EarthquakeRecord) []Marker {
	out := make([]Marker, len(records))
	for i := range records {
		r := records[i]
		t := Classify(r.Magnitude)
		m := Marker{
			Record: r,
			Bin:    t.Bin,
			Color:  t.Color,
			Radius: t.Radius,
			Date:   r.Date(),
		}
		if r.Tsunami {
			m.TsunamiRing = t.Radius * tsunamiRingScale
		}
		if r.Volcano {
			m.VolcanoRing = t.Radius * volcanoRingScale
		}
		out[i] = m
	}
	return out
}
