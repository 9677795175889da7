package aggregate

import (
	"math"

	"github.com/mr1hm/quake-explorer/internal/models"
)

const (
	DefaultScatterX = models.FieldMagnitude
	DefaultScatterY = models.FieldDeaths
)

type Point struct {
	X      float64                 `json:"x"`
	Y      float64                 `json:"y"`
	Record models.EarthquakeRecord `json:"record"`
}

type Scatter struct {
	XField  models.Field  `json:"x_field"`
	YField  models.Field  `json:"y_field"`
	XLabel  string        `json:"x_label"`
	YLabel  string        `json:"y_label"`
	Points  []Point       `json:"points"`
	XDomain models.Bounds `json:"x_domain"`
	YDomain models.Bounds `json:"y_domain"`
}

// ScatterPoints pairs two quantitative fields per record, skipping pairs
// that are not finite. Domains cover the emitted points only.
func ScatterPoints(records []models.EarthquakeRecord, x, y models.Field) Scatter {
	out := Scatter{
		XField: x,
		YField: y,
		XLabel: x.Label(),
		YLabel: y.Label(),
		Points: make([]Point, 0, len(records)),
	}
	for i := range records {
		r := records[i]
		xv, yv := r.Value(x), r.Value(y)
		if !finite(xv) || !finite(yv) {
			continue
		}
		if len(out.Points) == 0 {
			out.XDomain = models.Bounds{Min: xv, Max: xv}
			out.YDomain = models.Bounds{Min: yv, Max: yv}
		}
		out.XDomain.Min = math.Min(out.XDomain.Min, xv)
		out.XDomain.Max = math.Max(out.XDomain.Max, xv)
		out.YDomain.Min = math.Min(out.YDomain.Min, yv)
		out.YDomain.Max = math.Max(out.YDomain.Max, yv)
		out.Points = append(out.Points, Point{X: xv, Y: yv, Record: r})
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
