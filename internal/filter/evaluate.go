package filter

import "github.com/mr1hm/quake-explorer/internal/models"

// Evaluate returns the records of c that satisfy every predicate of s, in
// catalog order. The result never aliases the catalog's storage.
func Evaluate(c *models.Catalog, s State) []models.EarthquakeRecord {
	out := make([]models.EarthquakeRecord, 0, len(c.Records))
	for i := range c.Records {
		if Match(&c.Records[i], s) {
			out = append(out, c.Records[i])
		}
	}
	return out
}

// Match applies the year, hazard and quantitative predicates to one record.
func Match(r *models.EarthquakeRecord, s State) bool {
	if r.Year < s.Years.Start || r.Year > s.Years.End {
		return false
	}
	if s.Hazards.Tsunami && !r.Tsunami {
		return false
	}
	if s.Hazards.Volcano && !r.Volcano {
		return false
	}
	if s.Hazards.NoHazard && (r.Tsunami || r.Volcano) {
		return false
	}
	for _, f := range models.Fields {
		q, ok := s.Quantitative[f]
		if !ok {
			continue
		}
		v := r.Value(f)
		if v < q.Current[0] || v > q.Current[1] {
			return false
		}
	}
	return true
}
