package ingestion

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/mr1hm/quake-explorer/internal/models"
)

const header = "Year\tMo\tDy\tTsu\tVol\tLocation Name\tLatitude\tLongitude\tFocal Depth (km)\tMag\tDeaths\tMissing\tInjuries\tDamage ($Mil)\tHouses Destroyed\tHouses Damaged\n"

func tsv(rows ...string) string {
	return header + strings.Join(rows, "\n") + "\n"
}

func TestParse_AdmissionRules(t *testing.T) {
	input := tsv(
		"2004\t12\t26\t1\t\tINDONESIA: SUMATRA\t3.316\t95.854\t30\t9.1\t227899\t\t\t10000\t\t",
		"1899\t1\t1\t\t\tTOO OLD\t10\t10\t\t5\t\t\t\t\t\t",
		"\t1\t1\t\t\tNO YEAR\t10\t10\t\t5\t\t\t\t\t\t",
		"1950\t\t\t\t\tNO LAT\t\t10\t\t5\t\t\t\t\t\t",
		"1950\t\t\t\t\tBAD LON\t10\tabc\t\t5\t\t\t\t\t\t",
		"1900\t\t\t\t \t\t-10\t20\t\t\t\t\t\t\t\t",
		"abc\t1\t1\t\t\tWORD YEAR\t10\t10\t\t5\t\t\t\t\t\t",
	)

	catalog, stats, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, Stats{Rows: 7, Admitted: 2, Dropped: 5}, stats)
	require.Len(t, catalog.Records, 2)

	first := catalog.Records[0]
	assert.Equal(t, 2004, first.Year)
	assert.Equal(t, 12, first.Month)
	assert.Equal(t, 26, first.Day)
	assert.Equal(t, 9.1, first.Magnitude)
	assert.Equal(t, 227899, first.Deaths)
	assert.Equal(t, 10000.0, first.Damage)
	assert.True(t, first.Tsunami)
	assert.False(t, first.Volcano)

	second := catalog.Records[1]
	assert.Equal(t, 1900, second.Year)
	assert.Equal(t, "Unknown", second.Location)
	assert.Equal(t, 0.0, second.Magnitude)
	assert.Equal(t, 0, second.Month)
	assert.False(t, second.Volcano, "whitespace-only Vol is not a volcano flag")
}

func TestParse_RejectsImplausibleYears(t *testing.T) {
	catalog, stats, err := Parse(strings.NewReader("Year\tLatitude\tLongitude\tMag\n" +
		"1950\t0\t0\t6\n" +
		"1e15\t0\t0\t7\n" +
		"1000000000\t0\t0\t7\n" +
		"1950.5\t0\t0\t7\n" +
		strconv.Itoa(maxYear()+1) + "\t0\t0\t7\n" +
		strconv.Itoa(maxYear()) + "\t0\t0\t7\n"))
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 2, stats.Admitted)
	assert.Equal(t, []int{1950, maxYear()}, catalog.Years)
}

func TestParse_OutOfRangeLatitudeIsAdmitted(t *testing.T) {
	// Only numeric-ness gates admission; coordinate ranges are not checked.
	catalog, _, err := Parse(strings.NewReader(tsv("1960\t5\t22\t\t\tSOMEWHERE\t200\t10\t\t9.5\t\t\t\t\t\t")))
	require.NoError(t, err)
	require.Len(t, catalog.Records, 1)
	assert.Equal(t, 200.0, catalog.Records[0].Latitude)
}

func TestParse_NonNumericDefaultsToZero(t *testing.T) {
	catalog, _, err := Parse(strings.NewReader(tsv("1960\tx\ty\t\t\tCHILE\t-38\t-73\tdeep\tbig\tmany\t?\t-\tn/a\t\t")))
	require.NoError(t, err)
	require.Len(t, catalog.Records, 1)

	r := catalog.Records[0]
	assert.Zero(t, r.Month)
	assert.Zero(t, r.Day)
	assert.Zero(t, r.Depth)
	assert.Zero(t, r.Magnitude)
	assert.Zero(t, r.Deaths)
	assert.Zero(t, r.Missing)
	assert.Zero(t, r.Injuries)
	assert.Zero(t, r.Damage)
}

func TestParse_YearsAndBounds(t *testing.T) {
	catalog, _, err := Parse(strings.NewReader(tsv(
		"2010\t\t\t\t\tA\t0\t0\t10\t7.0\t5\t\t\t\t\t",
		"1990\t\t\t\t\tB\t0\t0\t33\t6.2\t0\t\t\t\t\t",
		"2010\t\t\t\t\tC\t0\t0\t5\t8.8\t500\t\t\t\t\t",
		"1850\t\t\t\t\tD\t0\t0\t700\t9.9\t99999\t\t\t\t\t",
	)))
	require.NoError(t, err)

	assert.Equal(t, []int{1990, 2010}, catalog.Years)
	assert.Equal(t, models.Bounds{Min: 6.2, Max: 8.8}, catalog.FieldBounds[models.FieldMagnitude])
	assert.Equal(t, models.Bounds{Min: 5, Max: 33}, catalog.FieldBounds[models.FieldDepth])
	assert.Equal(t, models.Bounds{Min: 0, Max: 500}, catalog.FieldBounds[models.FieldDeaths])
	assert.Len(t, catalog.FieldBounds, len(models.Fields))

	first, last, ok := catalog.YearSpan()
	assert.True(t, ok)
	assert.Equal(t, 1990, first)
	assert.Equal(t, 2010, last)
}

func TestParse_EmptyCatalog(t *testing.T) {
	catalog, stats, err := Parse(strings.NewReader(header))
	require.NoError(t, err)

	assert.Empty(t, catalog.Records)
	assert.Empty(t, catalog.Years)
	assert.Equal(t, 0, stats.Rows)
	for _, f := range models.Fields {
		assert.Equal(t, models.Bounds{}, catalog.FieldBounds[f], f)
	}
	_, _, ok := catalog.YearSpan()
	assert.False(t, ok)
}

func TestParse_ColumnOrderIrrelevant(t *testing.T) {
	input := "Longitude\tMag\tLatitude\tYear\tExtra\n142.4\t9.1\t38.3\t2011\tignored\n"
	catalog, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, catalog.Records, 1)
	assert.Equal(t, 142.4, catalog.Records[0].Longitude)
	assert.Equal(t, 38.3, catalog.Records[0].Latitude)
	assert.Equal(t, 9.1, catalog.Records[0].Magnitude)
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	_, _, err := Parse(strings.NewReader("Year\tLatitude\n2000\t1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingColumn))
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.tsv")
	require.NoError(t, os.WriteFile(path, []byte(tsv("2000\t\t\t\t\tA\t1\t2\t\t5\t\t\t\t\t\t")), 0o600))

	l := NewLoader(time.Second, nil)
	catalog, stats, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Admitted)
	assert.Len(t, catalog.Records, 1)
}

func TestLoader_LoadCompressed(t *testing.T) {
	body := tsv("2000\t\t\t\t\tA\t1\t2\t\t5\t\t\t\t\t\t", "2001\t\t\t\t\tB\t1\t2\t\t6\t\t\t\t\t\t")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	dir := t.TempDir()
	for name, data := range map[string][]byte{"catalog.tsv.gz": gz.Bytes(), "catalog.tsv.xz": xzBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			catalog, _, err := NewLoader(time.Second, nil).Load(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, []int{2000, 2001}, catalog.Years)
		})
	}
}

func TestLoader_GlobPicksNewest(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "earthquakes-2024-01-01.tsv")
	newer := filepath.Join(dir, "earthquakes-2025-04-19.tsv")
	require.NoError(t, os.WriteFile(older, []byte(tsv("1990\t\t\t\t\tOLD\t1\t2\t\t5\t\t\t\t\t\t")), 0o600))
	require.NoError(t, os.WriteFile(newer, []byte(tsv("2020\t\t\t\t\tNEW\t1\t2\t\t5\t\t\t\t\t\t")), 0o600))

	catalog, _, err := NewLoader(time.Second, nil).Load(context.Background(), filepath.Join(dir, "earthquakes-*.tsv"))
	require.NoError(t, err)
	assert.Equal(t, []int{2020}, catalog.Years)
}

func TestLoader_LoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog.tsv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(tsv("2011\t3\t11\t1\t\tJAPAN\t38.3\t142.4\t29\t9.1\t18428\t\t\t220000\t\t")))
	}))
	defer srv.Close()

	l := NewLoader(time.Second, nil)

	catalog, _, err := l.Load(context.Background(), srv.URL+"/catalog.tsv")
	require.NoError(t, err)
	assert.Len(t, catalog.Records, 1)

	_, _, err = l.Load(context.Background(), srv.URL+"/missing.tsv")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, srv.URL+"/missing.tsv", loadErr.Source)
}

func TestLoader_MissingSourceIsLoadError(t *testing.T) {
	l := NewLoader(time.Second, nil)

	_, _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "absent.tsv"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)

	_, _, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "*.tsv"))
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, errNoMatch)
}
