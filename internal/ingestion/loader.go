package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/quake-explorer/internal/models"
)

// MinYear is the earliest year admitted into the catalog.
const MinYear = 1900

// maxYear is the latest year admitted. Later years are data errors and
// would blow up the per-year bins.
func maxYear() int {
	return time.Now().Year() + 1
}

// Column names of the catalog export.
const (
	colYear            = "Year"
	colMonth           = "Mo"
	colDay             = "Dy"
	colLatitude        = "Latitude"
	colLongitude       = "Longitude"
	colMagnitude       = "Mag"
	colLocation        = "Location Name"
	colDepth           = "Focal Depth (km)"
	colDeaths          = "Deaths"
	colMissing         = "Missing"
	colInjuries        = "Injuries"
	colDamage          = "Damage ($Mil)"
	colHousesDestroyed = "Houses Destroyed"
	colHousesDamaged   = "Houses Damaged"
	colTsunami         = "Tsu"
	colVolcano         = "Vol"
)

var errMissingColumn = errors.New("missing required column")

// Stats summarises one load.
type Stats struct {
	Rows     int `json:"rows"`
	Admitted int `json:"admitted"`
	Dropped  int `json:"dropped"`
}

type Loader struct {
	client *http.Client
	logger *slog.Logger
}

func NewLoader(timeout time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Load reads the catalog from source once. Any failure is returned as a
// *LoadError.
func (l *Loader) Load(ctx context.Context, source string) (*models.Catalog, Stats, error) {
	rc, resolved, err := l.open(ctx, source)
	if err != nil {
		return nil, Stats{}, &LoadError{Source: resolved, Err: err}
	}
	defer rc.Close()

	r, err := decompress(rc)
	if err != nil {
		return nil, Stats{}, &LoadError{Source: resolved, Err: err}
	}

	catalog, stats, err := Parse(r)
	if err != nil {
		return nil, stats, &LoadError{Source: resolved, Err: err}
	}

	l.logger.Info("catalog loaded",
		"source", resolved,
		"rows", stats.Rows,
		"admitted", stats.Admitted,
		"dropped", stats.Dropped,
		"years", len(catalog.Years),
	)
	return catalog, stats, nil
}

// Parse reads tab-separated rows with a header line and normalises them
// into a catalog. Rows without a numeric Year >= MinYear, Latitude and
// Longitude are dropped.
func Parse(r io.Reader) (*models.Catalog, Stats, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("error reading header: %w", err)
	}
	cols := indexColumns(header)
	for _, name := range []string{colYear, colLatitude, colLongitude} {
		if _, ok := cols[name]; !ok {
			return nil, Stats{}, fmt.Errorf("%w: %s", errMissingColumn, name)
		}
	}

	var (
		stats   Stats
		records []models.EarthquakeRecord
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("error reading row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		rec, ok := normalize(row, cols)
		if !ok {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
		stats.Admitted++
	}

	return NewCatalog(records), stats, nil
}

// NewCatalog derives the year list and field bounds from admitted records.
func NewCatalog(records []models.EarthquakeRecord) *models.Catalog {
	c := &models.Catalog{
		Records:     records,
		Years:       []int{},
		FieldBounds: make(map[models.Field]models.Bounds, len(models.Fields)),
	}

	seen := make(map[int]struct{})
	for i := range records {
		if _, ok := seen[records[i].Year]; !ok {
			seen[records[i].Year] = struct{}{}
			c.Years = append(c.Years, records[i].Year)
		}
	}
	sort.Ints(c.Years)

	for _, f := range models.Fields {
		var b models.Bounds
		for i := range records {
			v := records[i].Value(f)
			if i == 0 || v < b.Min {
				b.Min = v
			}
			if i == 0 || v > b.Max {
				b.Max = v
			}
		}
		c.FieldBounds[f] = b
	}
	return c
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func normalize(row []string, cols map[string]int) (models.EarthquakeRecord, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	year, ok := parseNumber(get(colYear))
	if !ok || year < MinYear || year > float64(maxYear()) || year != math.Trunc(year) {
		return models.EarthquakeRecord{}, false
	}
	lat, ok := parseNumber(get(colLatitude))
	if !ok || math.IsInf(lat, 0) {
		return models.EarthquakeRecord{}, false
	}
	lon, ok := parseNumber(get(colLongitude))
	if !ok || math.IsInf(lon, 0) {
		return models.EarthquakeRecord{}, false
	}

	location := strings.TrimSpace(get(colLocation))
	if location == "" {
		location = "Unknown"
	}

	return models.EarthquakeRecord{
		Year:            int(year),
		Month:           int(numberOrZero(get(colMonth))),
		Day:             int(numberOrZero(get(colDay))),
		Latitude:        lat,
		Longitude:       lon,
		Magnitude:       numberOrZero(get(colMagnitude)),
		Location:        location,
		Depth:           numberOrZero(get(colDepth)),
		Deaths:          int(numberOrZero(get(colDeaths))),
		Missing:         int(numberOrZero(get(colMissing))),
		Injuries:        int(numberOrZero(get(colInjuries))),
		Damage:          numberOrZero(get(colDamage)),
		HousesDestroyed: int(numberOrZero(get(colHousesDestroyed))),
		HousesDamaged:   int(numberOrZero(get(colHousesDamaged))),
		Tsunami:         strings.TrimSpace(get(colTsunami)) != "",
		Volcano:         strings.TrimSpace(get(colVolcano)) != "",
	}, true
}

// parseNumber reports ok=false for blank or non-numeric input.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func numberOrZero(s string) float64 {
	v, ok := parseNumber(s)
	if !ok || math.IsInf(v, 0) {
		return 0
	}
	return v
}
