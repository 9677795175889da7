package aggregate

import "github.com/mr1hm/quake-explorer/internal/models"

// YearBins holds one year's stacked totals.
type YearBins struct {
	Year   int     `json:"year"`
	Small  float64 `json:"small"`
	Medium float64 `json:"medium"`
	Large  float64 `json:"large"`
	Major  float64 `json:"major"`
}

func (y YearBins) Total() float64 {
	return y.Small + y.Medium + y.Large + y.Major
}

func (y *YearBins) add(b Bin, v float64) {
	switch b {
	case BinSmall:
		y.Small += v
	case BinMedium:
		y.Medium += v
	case BinLarge:
		y.Large += v
	case BinMajor:
		y.Major += v
	}
}

type StackedBars struct {
	Metric   models.Metric `json:"metric"`
	Label    string        `json:"label"`
	Years    []YearBins    `json:"years"`
	MaxTotal float64       `json:"max_total"`
}

// Stack sums metric per year and magnitude bin. Every year in
// [startYear, endYear] appears, zero-filled when nothing matched.
func Stack(records []models.EarthquakeRecord, metric models.Metric, startYear, endYear int) StackedBars {
	out := StackedBars{
		Metric: metric,
		Label:  metric.Label(),
		Years:  []YearBins{},
	}
	if endYear < startYear {
		return out
	}

	out.Years = make([]YearBins, endYear-startYear+1)
	for i := range out.Years {
		out.Years[i].Year = startYear + i
	}
	for i := range records {
		r := &records[i]
		if r.Year < startYear || r.Year > endYear {
			continue
		}
		out.Years[r.Year-startYear].add(Classify(r.Magnitude).Bin, metric.Value(r))
	}
	for _, y := range out.Years {
		out.MaxTotal = max(out.MaxTotal, y.Total())
	}
	return out
}
