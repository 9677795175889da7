// Package export writes the chart aggregates of a snapshot as a flat report,
// either YAML or an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
)

type BarRow struct {
	Year   int     `json:"year" yaml:"year"`
	Small  float64 `json:"small" yaml:"small"`
	Medium float64 `json:"medium" yaml:"medium"`
	Large  float64 `json:"large" yaml:"large"`
	Major  float64 `json:"major" yaml:"major"`
	Total  float64 `json:"total" yaml:"total"`
}

type TopRow struct {
	Rank      int     `json:"rank" yaml:"rank"`
	Label     string  `json:"label" yaml:"label"`
	Location  string  `json:"location" yaml:"location"`
	Date      string  `json:"date" yaml:"date"`
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`
	Value     float64 `json:"value" yaml:"value"`
}

type Report struct {
	StartYear  int      `json:"start_year" yaml:"start_year"`
	EndYear    int      `json:"end_year" yaml:"end_year"`
	Effective  int      `json:"effective" yaml:"effective"`
	Metric     string   `json:"metric" yaml:"metric"`
	ValueLabel string   `json:"value_label" yaml:"value_label"`
	Bars       []BarRow `json:"bars" yaml:"bars"`
	Top        []TopRow `json:"top" yaml:"top"`
}

func NewReport(s *dashboard.Snapshot) Report {
	r := Report{
		StartYear:  s.Filters.Years.Start,
		EndYear:    s.Filters.Years.End,
		Effective:  s.Effective,
		Metric:     string(s.Bars.Metric),
		ValueLabel: s.Top.ValueLabel,
		Bars:       make([]BarRow, 0, len(s.Bars.Years)),
		Top:        make([]TopRow, 0, len(s.Top.Items)),
	}
	for _, y := range s.Bars.Years {
		r.Bars = append(r.Bars, BarRow{
			Year:   y.Year,
			Small:  y.Small,
			Medium: y.Medium,
			Large:  y.Large,
			Major:  y.Major,
			Total:  y.Total(),
		})
	}
	for i, item := range s.Top.Items {
		r.Top = append(r.Top, TopRow{
			Rank:      i + 1,
			Label:     item.Label,
			Location:  item.Record.Location,
			Date:      item.Record.Date(),
			Magnitude: item.Record.Magnitude,
			Value:     item.Value,
		})
	}
	return r
}

func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("error encoding yaml: %w", err)
	}
	return enc.Close()
}
