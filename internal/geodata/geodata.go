// Package geodata loads the auxiliary map layers: world country topology and
// tectonic plate boundaries. Both are optional. A failed layer is reported
// and left unavailable while the rest of the dashboard keeps working.
package geodata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	geojson "github.com/paulmach/go.geojson"

	"github.com/mr1hm/quake-explorer/internal/observability"
	"github.com/mr1hm/quake-explorer/internal/worker"
)

type Dataset string

const (
	World  Dataset = "world"
	Plates Dataset = "plates"
)

const countriesPath = "$.objects.countries.geometries"

var (
	ErrUnavailable = errors.New("dataset unavailable")
	ErrNotLoaded   = errors.New("dataset not loaded")
)

var countriesExpr = jp.MustParseString(countriesPath)

// Store holds whatever loaded successfully. The zero value reports every
// dataset as not loaded.
type Store struct {
	mu     sync.RWMutex
	world  []byte
	plates *geojson.FeatureCollection
	errs   map[Dataset]error
}

// World returns the raw TopoJSON document.
func (s *Store) World() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.world == nil {
		return nil, s.errLocked(World)
	}
	return s.world, nil
}

func (s *Store) Plates() (*geojson.FeatureCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plates == nil {
		return nil, s.errLocked(Plates)
	}
	return s.plates, nil
}

func (s *Store) errLocked(d Dataset) error {
	if err, ok := s.errs[d]; ok {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, d, err)
	}
	return fmt.Errorf("%w: %s", ErrNotLoaded, d)
}

func (s *Store) fail(d Dataset, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errs == nil {
		s.errs = make(map[Dataset]error)
	}
	s.errs[d] = err
}

type Sources struct {
	WorldURL  string
	PlatesURL string
}

type Loader struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *observability.Metrics
	sources Sources
	workers int
}

func NewLoader(sources Sources, timeout time.Duration, workers int, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
		sources: sources,
		workers: workers,
	}
}

// Load fetches every configured dataset concurrently and returns once all
// attempts have finished. There are no retries.
func (l *Loader) Load(ctx context.Context) *Store {
	store := &Store{}
	l.LoadInto(ctx, store)
	return store
}

// LoadInto fills store as datasets arrive, so readers may use it while the
// load is still running.
func (l *Loader) LoadInto(ctx context.Context, store *Store) {
	pool := worker.NewPool(l.workers, 2, func(ctx context.Context, d Dataset) error {
		return l.loadOne(ctx, store, d)
	})
	pool.OnError(func(d Dataset, err error) {
		store.fail(d, err)
		l.record(d, "error")
		l.logger.Warn("geodata layer unavailable", "dataset", d, "error", err)
	})
	pool.Start(ctx)

	for _, d := range []Dataset{World, Plates} {
		if l.source(d) == "" {
			continue
		}
		if err := pool.Submit(ctx, d); err != nil {
			store.fail(d, err)
		}
	}
	pool.Stop()
}

func (l *Loader) source(d Dataset) string {
	switch d {
	case World:
		return l.sources.WorldURL
	case Plates:
		return l.sources.PlatesURL
	}
	return ""
}

func (l *Loader) loadOne(ctx context.Context, store *Store, d Dataset) error {
	start := time.Now()
	data, err := l.read(ctx, l.source(d))
	if err != nil {
		return err
	}

	switch d {
	case World:
		if err := ValidateTopology(data); err != nil {
			return err
		}
		store.mu.Lock()
		store.world = data
		store.mu.Unlock()
	case Plates:
		fc, err := ParsePlates(data)
		if err != nil {
			return err
		}
		store.mu.Lock()
		store.plates = fc
		store.mu.Unlock()
	}

	l.record(d, "success")
	l.logger.Info("geodata layer loaded", "dataset", d, "bytes", len(data), "duration", time.Since(start))
	return nil
}

func (l *Loader) record(d Dataset, outcome string) {
	if l.metrics == nil {
		return
	}
	l.metrics.GeodataLoads.WithLabelValues(string(d), outcome).Inc()
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading file: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}
	return data, nil
}

// ValidateTopology checks that data is a TopoJSON document with a non-empty
// countries geometry collection.
func ValidateTopology(data []byte) error {
	doc, err := oj.Parse(data)
	if err != nil {
		return fmt.Errorf("error parsing topology: %w", err)
	}

	results := countriesExpr.Get(doc)
	if len(results) == 0 {
		return fmt.Errorf("topology has no %s", countriesPath)
	}
	geometries, ok := results[0].([]any)
	if !ok {
		return fmt.Errorf("%s is %T, not an array", countriesPath, results[0])
	}
	if len(geometries) == 0 {
		return fmt.Errorf("%s is empty", countriesPath)
	}
	return nil
}

// ParsePlates decodes a FeatureCollection and keeps only its line features.
func ParsePlates(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing plate boundaries: %w", err)
	}

	lines := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if f.Geometry.IsLineString() || f.Geometry.IsMultiLineString() {
			lines.AddFeature(f)
		}
	}
	if len(lines.Features) == 0 {
		return nil, errors.New("plate boundaries contain no line features")
	}
	return lines, nil
}
