package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mr1hm/quake-explorer/internal/models"
)

const (
	DefaultTopN   = 10
	maxLabelRunes = 15
)

type Ranked struct {
	Record models.EarthquakeRecord `json:"record"`
	Value  float64                 `json:"value"`
	Label  string                  `json:"label"`
	Key    string                  `json:"key"`
}

type TopList struct {
	Metric     models.Metric `json:"metric"`
	ValueLabel string        `json:"value_label"`
	N          int           `json:"n"`
	Items      []Ranked      `json:"items"`
}

// ParseTopN reads the top-N input box. The leading integer is used, so
// "2.5" is 2 and "12 quakes" is 12. Text without a positive leading
// integer falls back to DefaultTopN.
func ParseTopN(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return DefaultTopN
	}
	return n
}

// Top ranks records descending by metric (magnitude for count) and keeps the
// first n. Ties keep their input order.
func Top(records []models.EarthquakeRecord, metric models.Metric, n int) TopList {
	if n <= 0 {
		n = DefaultTopN
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return metric.RankValue(&records[idx[a]]) > metric.RankValue(&records[idx[b]])
	})
	if len(idx) > n {
		idx = idx[:n]
	}

	out := TopList{
		Metric:     metric,
		ValueLabel: metric.Label(),
		N:          n,
		Items:      make([]Ranked, len(idx)),
	}
	if metric == models.MetricCount {
		out.ValueLabel = models.FieldMagnitude.Label()
	}
	for i, j := range idx {
		r := records[j]
		label := ShortLabel(r.Location)
		out.Items[i] = Ranked{
			Record: r,
			Value:  metric.RankValue(&r),
			Label:  label,
			Key:    fmt.Sprintf("%s-%d-%s-%d", label, r.Year, strconv.FormatFloat(r.Magnitude, 'f', -1, 64), i),
		}
	}
	return out
}

// ShortLabel is the first word of the location before any comma, cut to
// fifteen characters.
func ShortLabel(location string) string {
	s, _, _ := strings.Cut(location, ",")
	s, _, _ = strings.Cut(s, " ")
	if r := []rune(s); len(r) > maxLabelRunes {
		s = string(r[:maxLabelRunes])
	}
	return s
}
