package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mr1hm/quake-explorer/internal/aggregate"
	"github.com/mr1hm/quake-explorer/internal/dashboard"
	"github.com/mr1hm/quake-explorer/internal/export"
	"github.com/mr1hm/quake-explorer/internal/ingestion"
	"github.com/mr1hm/quake-explorer/internal/logging"
	"github.com/mr1hm/quake-explorer/internal/models"
)

const defaultSource = "./data/earthquakes-*.tsv"

var (
	reportSource   string
	reportTimeout  time.Duration
	reportYears    string
	reportTsunami  bool
	reportVolcano  bool
	reportNoHazard bool
	reportRanges   []string
	reportMetric   string
	reportTop      string
	reportFormat   string
	reportOutput   string
	reportXLSX     string
	reportLogLevel string
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&reportSource, "source", "", "Catalog path, glob or URL (default: $CATALOG_SOURCE)")
	f.DurationVar(&reportTimeout, "timeout", 30*time.Second, "Catalog download timeout")
	f.StringVar(&reportYears, "years", "", "Year range as START:END (default: whole catalog)")
	f.BoolVar(&reportTsunami, "tsunami", false, "Only earthquakes with a tsunami")
	f.BoolVar(&reportVolcano, "volcano", false, "Only earthquakes with a volcanic eruption")
	f.BoolVar(&reportNoHazard, "no-hazard", false, "Only earthquakes with neither hazard")
	f.StringArrayVar(&reportRanges, "range", nil, "Field range as FIELD=MIN:MAX (repeatable)")
	f.StringVar(&reportMetric, "metric", string(models.MetricCount), "Chart metric")
	f.StringVar(&reportTop, "top", strconv.Itoa(aggregate.DefaultTopN), "Number of ranked earthquakes")
	f.StringVar(&reportFormat, "format", "yaml", "Output format: yaml or json")
	f.StringVarP(&reportOutput, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&reportXLSX, "xlsx", "", "Also write the report as an XLSX workbook")
	f.StringVar(&reportLogLevel, "log-level", "warn", "Log level")
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := logging.New(os.Stderr, reportLogLevel)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	source := reportSource
	if source == "" {
		source = envOr("CATALOG_SOURCE", defaultSource)
	}
	catalog, _, err := ingestion.NewLoader(reportTimeout, logger).Load(ctx, source)
	if err != nil {
		return err
	}

	sync := dashboard.New(catalog, dashboard.WithLogger(logger))
	defer sync.Close()

	controls, err := buildControls(sync.Controls())
	if err != nil {
		return err
	}
	snap, err := sync.ApplyControls(ctx, controls)
	if err != nil {
		return err
	}
	report := export.NewReport(snap)

	if reportXLSX != "" {
		if err := writeFile(reportXLSX, func(w io.Writer) error { return export.WriteXLSX(w, report) }); err != nil {
			return err
		}
	}

	if reportOutput != "" {
		return writeFile(reportOutput, func(w io.Writer) error { return encode(w, reportFormat, report) })
	}
	return encode(cmd.OutOrStdout(), reportFormat, report)
}

// buildControls layers the command-line flags over the defaults.
func buildControls(c dashboard.Controls) (dashboard.Controls, error) {
	if reportYears != "" {
		start, end, err := parseYears(reportYears)
		if err != nil {
			return c, err
		}
		c.Years.Start, c.Years.End = start, end
	}
	c.Hazards.Tsunami = reportTsunami
	c.Hazards.Volcano = reportVolcano
	c.Hazards.NoHazard = reportNoHazard

	for _, raw := range reportRanges {
		field, lo, hi, err := parseRange(raw)
		if err != nil {
			return c, err
		}
		c.Ranges[field] = [2]float64{lo, hi}
	}

	metric, err := models.ParseMetric(reportMetric)
	if err != nil {
		return c, err
	}
	c.Metric = metric
	c.TopN = aggregate.ParseTopN(reportTop)
	return c, nil
}

func parseYears(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid year range %q: want START:END", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start year %q", a)
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end year %q", b)
	}
	return start, end, nil
}

func parseRange(s string) (models.Field, float64, float64, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid range %q: want FIELD=MIN:MAX", s)
	}
	field, err := models.ParseField(strings.TrimSpace(name))
	if err != nil {
		return "", 0, 0, err
	}
	a, b, ok := strings.Cut(bounds, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid range %q: want FIELD=MIN:MAX", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid minimum %q", a)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid maximum %q", b)
	}
	return field, lo, hi, nil
}

func encode(w io.Writer, format string, v export.Report) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return export.WriteYAML(w, v)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
