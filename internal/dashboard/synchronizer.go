package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/quake-explorer/internal/aggregate"
	"github.com/mr1hm/quake-explorer/internal/brush"
	"github.com/mr1hm/quake-explorer/internal/filter"
	"github.com/mr1hm/quake-explorer/internal/models"
	"github.com/mr1hm/quake-explorer/internal/observability"
	"github.com/mr1hm/quake-explorer/internal/projection"
)

// Renderer receives every snapshot. Render is called synchronously while
// the synchronizer holds its lock, so implementations must not block.
type Renderer interface {
	Render(ctx context.Context, s *Snapshot) error
}

type RendererFunc func(ctx context.Context, s *Snapshot) error

func (f RendererFunc) Render(ctx context.Context, s *Snapshot) error {
	return f(ctx, s)
}

type namedRenderer struct {
	name string
	r    Renderer
}

type Option func(*Synchronizer)

func WithClock(c clockwork.Clock) Option {
	return func(s *Synchronizer) { s.clock = c }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// WithViewport sets the screen size the projections are built for.
func WithViewport(width, height float64) Option {
	return func(s *Synchronizer) { s.width, s.height = width, height }
}

type Synchronizer struct {
	mu        sync.Mutex
	catalog   *models.Catalog
	state     State
	renderers []namedRenderer
	current   *Snapshot
	anim      *animation

	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
	width   float64
	height  float64

	wg sync.WaitGroup
}

// New builds the initial state spanning the whole catalog and computes the
// first snapshot. Nothing is rendered until the first action or Sync.
func New(c *models.Catalog, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		catalog: c,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		width:   projection.DefaultWidth,
		height:  projection.DefaultHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	s.state = newState(c, s.width, s.height)
	s.current = s.build()
	return s
}

// AddRenderer registers r under name. The name labels render error metrics.
func (s *Synchronizer) AddRenderer(name string, r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderers = append(s.renderers, namedRenderer{name: name, r: r})
}

// Current returns the most recent snapshot.
func (s *Synchronizer) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Synchronizer) Catalog() *models.Catalog {
	return s.catalog
}

// Controls returns the persistable part of the current state.
func (s *Synchronizer) Controls() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.controls()
}

// Sync recomputes and renders without changing state.
func (s *Synchronizer) Sync(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

func (s *Synchronizer) SetYearRange(ctx context.Context, start, end int) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAnimationLocked()
	s.state.Filters.SetYearRange(start, end)
	return s.syncLocked(ctx)
}

func (s *Synchronizer) SetHazards(ctx context.Context, h filter.Hazards) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters.SetHazards(h)
	return s.syncLocked(ctx)
}

func (s *Synchronizer) SetRange(ctx context.Context, f models.Field, lo, hi float64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.Filters.SetRange(f, lo, hi); err != nil {
		return nil, err
	}
	return s.syncLocked(ctx), nil
}

func (s *Synchronizer) ResetRanges(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Filters.ResetRanges()
	return s.syncLocked(ctx)
}

func (s *Synchronizer) SetMetric(ctx context.Context, m models.Metric) (*Snapshot, error) {
	if _, err := models.ParseMetric(string(m)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Metric = m
	return s.syncLocked(ctx), nil
}

// SetTopN takes the raw input box text; invalid input means the default.
func (s *Synchronizer) SetTopN(ctx context.Context, raw string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TopN = aggregate.ParseTopN(raw)
	return s.syncLocked(ctx)
}

func (s *Synchronizer) SetScatterAxes(ctx context.Context, x, y models.Field) (*Snapshot, error) {
	for _, f := range []models.Field{x, y} {
		if _, err := models.ParseField(string(f)); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ScatterX, s.state.ScatterY = x, y
	return s.syncLocked(ctx), nil
}

// ApplyControls replaces filters and chart choices in one action.
func (s *Synchronizer) ApplyControls(ctx context.Context, c Controls) (*Snapshot, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAnimationLocked()

	s.state.Filters.SetYearRange(c.Years.Start, c.Years.End)
	s.state.Filters.SetHazards(c.Hazards)
	s.state.Filters.ResetRanges()
	for f, r := range c.Ranges {
		if err := s.state.Filters.SetRange(f, r[0], r[1]); err != nil {
			return nil, err
		}
	}
	s.state.Metric = c.Metric
	s.state.TopN = c.TopN
	if s.state.TopN <= 0 {
		s.state.TopN = aggregate.DefaultTopN
	}
	s.state.ScatterX, s.state.ScatterY = c.ScatterX, c.ScatterY
	return s.syncLocked(ctx), nil
}

// SetViewMode switches between globe and flat map. A live brush selection
// belongs to the old projection and is cleared.
func (s *Synchronizer) SetViewMode(ctx context.Context, mode ViewMode) (*Snapshot, error) {
	if _, err := ParseViewMode(string(mode)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Brush.Cancel() {
		s.recordBrushLocked()
	}
	s.state.View.setMode(mode)
	return s.syncLocked(ctx), nil
}

// Zoom applies a zoom button press; delta is normally ±ZoomStep.
func (s *Synchronizer) Zoom(ctx context.Context, delta float64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Brush.InteractionsEnabled() {
		return nil, ErrInteractionSuspended
	}
	s.state.View.zoomBy(delta)
	return s.syncLocked(ctx), nil
}

// Drag rotates or pans the view. A manual drag always stops the animation.
func (s *Synchronizer) Drag(ctx context.Context, dx, dy float64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Brush.InteractionsEnabled() {
		return nil, ErrInteractionSuspended
	}
	s.stopAnimationLocked()
	s.state.View.drag(dx, dy)
	return s.syncLocked(ctx), nil
}

// ToggleBrush handles the select-region button. Arming the brush stops the
// animation.
func (s *Synchronizer) ToggleBrush(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Brush.Phase() == brush.PhaseIdle {
		s.stopAnimationLocked()
	}
	if s.state.Brush.Toggle() {
		s.recordBrushLocked()
	}
	return s.syncLocked(ctx)
}

func (s *Synchronizer) BeginBrush(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.Brush.Begin(); err != nil {
		return nil, err
	}
	s.stopAnimationLocked()
	s.recordBrushLocked()
	return s.syncLocked(ctx), nil
}

// ReleaseBrush finishes a drag. The rectangle is clipped to the viewport and
// frozen together with the projection on screen right now.
func (s *Synchronizer) ReleaseBrush(ctx context.Context, r brush.Rect) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r = r.Clip(s.state.View.Width, s.state.View.Height)
	if err := s.state.Brush.Release(r, s.state.View.Projector()); err != nil {
		return nil, err
	}
	s.recordBrushLocked()
	return s.syncLocked(ctx), nil
}

// CancelBrush handles a click outside the view surface.
func (s *Synchronizer) CancelBrush(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Brush.Cancel() {
		s.recordBrushLocked()
	}
	return s.syncLocked(ctx)
}

func (s *Synchronizer) recordBrushLocked() {
	s.metrics.BrushTransitions.WithLabelValues(string(s.state.Brush.Phase())).Inc()
}

// effectiveLocked is the filter output, further restricted by the brush
// while a selection is live.
func (s *Synchronizer) effectiveLocked() []models.EarthquakeRecord {
	records := filter.Evaluate(s.catalog, s.state.Filters)
	if sel := s.state.Brush.Selection(); sel != nil {
		records = sel.Apply(records)
	}
	return records
}

func (s *Synchronizer) build() *Snapshot {
	records := s.effectiveLocked()
	years := s.state.Filters.Years

	snap := &Snapshot{
		Filters: s.state.Filters.Clone(),
		Brush: BrushView{
			Phase:               s.state.Brush.Phase(),
			InteractionsEnabled: s.state.Brush.InteractionsEnabled(),
		},
		View:      s.state.View,
		Effective: len(records),
		Legend:    aggregate.Legend(),
		Markers:   aggregate.Markers(records),
		Bars:      aggregate.Stack(records, s.state.Metric, years.Start, years.End),
		Top:       aggregate.Top(records, s.state.Metric, s.state.TopN),
		Scatter:   aggregate.ScatterPoints(records, s.state.ScatterX, s.state.ScatterY),
	}
	if sel := s.state.Brush.Selection(); sel != nil {
		rect := sel.Rect
		snap.Brush.Rect = &rect
	}
	if s.anim != nil {
		snap.Animation = AnimationView{Playing: true, Speed: s.anim.speed}
	}
	if err := snap.seal(); err != nil {
		s.logger.Error("failed to fingerprint snapshot", "error", err)
	}
	return snap
}

// syncLocked is the single choke point: build one snapshot and hand it to
// every renderer before returning.
func (s *Synchronizer) syncLocked(ctx context.Context) *Snapshot {
	start := time.Now()
	snap := s.build()
	s.current = snap

	for _, nr := range s.renderers {
		if err := nr.r.Render(ctx, snap); err != nil {
			s.metrics.RenderErrors.WithLabelValues(nr.name).Inc()
			s.logger.Error("renderer failed", "renderer", nr.name, "error", err)
		}
	}

	s.metrics.Syncs.Inc()
	s.metrics.EffectiveSize.Set(float64(snap.Effective))
	s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("views synchronized", "effective", snap.Effective, "fingerprint", snap.Fingerprint)
	return snap
}
