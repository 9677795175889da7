package dashboard

import (
	"errors"
	"fmt"
	"math"

	"github.com/mr1hm/quake-explorer/internal/aggregate"
	"github.com/mr1hm/quake-explorer/internal/brush"
	"github.com/mr1hm/quake-explorer/internal/filter"
	"github.com/mr1hm/quake-explorer/internal/models"
	"github.com/mr1hm/quake-explorer/internal/projection"
)

var (
	ErrInteractionSuspended = errors.New("view interaction suspended while selecting a region")
	ErrUnknownViewMode      = errors.New("unknown view mode")
)

type ViewMode string

const (
	ViewGlobe ViewMode = "globe"
	ViewMap   ViewMode = "map"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewGlobe, ViewMap:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownViewMode, s)
}

const (
	ZoomStep = 0.2

	globeZoomMin = 0.8
	mapZoomMin   = 0.5
	zoomMax      = 10

	// degrees of globe rotation per dragged pixel
	dragSensitivity = 0.25
)

// View is the camera: projection kind, zoom and rotation or pan.
type View struct {
	Mode          ViewMode   `json:"mode"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
	Zoom          float64    `json:"zoom"`
	Rotate        [3]float64 `json:"rotate"`
	MapLon        float64    `json:"map_lon"`
	MapTranslateY float64    `json:"map_translate_y"`
}

func newView(width, height float64) View {
	return View{
		Mode:          ViewMap,
		Width:         width,
		Height:        height,
		Zoom:          1,
		MapTranslateY: height / 2,
	}
}

// Projector returns the projection currently on screen.
func (v View) Projector() projection.Projector {
	if v.Mode == ViewMap {
		return projection.Equirectangular{
			Scale:      projection.MapScale(v.Width, v.Zoom),
			TranslateX: v.Width / 2,
			TranslateY: v.MapTranslateY,
			RotateLon:  v.MapLon,
		}
	}
	return projection.Orthographic{
		Scale:      projection.GlobeBaseScale * v.Zoom,
		TranslateX: v.Width / 2,
		TranslateY: v.Height / 2,
		Rotate:     v.Rotate,
	}
}

func (v View) zoomBounds() (float64, float64) {
	if v.Mode == ViewMap {
		return mapZoomMin, zoomMax
	}
	return globeZoomMin, zoomMax
}

func (v *View) zoomBy(delta float64) {
	lo, hi := v.zoomBounds()
	v.Zoom = math.Max(lo, math.Min(hi, v.Zoom+delta))
}

// drag rotates the globe, or on the flat map turns horizontal motion into
// longitude rotation and vertical motion into a pan.
func (v *View) drag(dx, dy float64) {
	if v.Mode == ViewMap {
		scale := projection.MapScale(v.Width, v.Zoom)
		dLon := dx / scale * 180 / math.Pi
		v.MapLon = math.Mod(v.MapLon+dLon+540, 360) - 180
		v.MapTranslateY += dy
		return
	}
	v.Rotate = [3]float64{
		v.Rotate[0] + dx*dragSensitivity,
		math.Max(-90, math.Min(90, v.Rotate[1]-dy*dragSensitivity)),
		v.Rotate[2],
	}
}

// setMode rebuilds the projection for mode. Zoom and globe rotation start
// over; the flat map keeps its longitude.
func (v *View) setMode(mode ViewMode) {
	v.Mode = mode
	v.Zoom = 1
	v.Rotate = [3]float64{}
	v.MapTranslateY = v.Height / 2
}

// State is everything the user controls. It is owned by a Synchronizer.
type State struct {
	Filters  filter.State
	Metric   models.Metric
	TopN     int
	ScatterX models.Field
	ScatterY models.Field
	View     View
	Brush    *brush.Machine
}

func newState(c *models.Catalog, width, height float64) State {
	return State{
		Filters:  filter.NewState(c),
		Metric:   models.MetricCount,
		TopN:     aggregate.DefaultTopN,
		ScatterX: aggregate.DefaultScatterX,
		ScatterY: aggregate.DefaultScatterY,
		View:     newView(width, height),
		Brush:    brush.NewMachine(),
	}
}

// Controls is the persistable subset of State: filters and chart choices,
// never catalog data or camera position.
type Controls struct {
	Years    filter.YearRange            `json:"years"`
	Hazards  filter.Hazards              `json:"hazards"`
	Ranges   map[models.Field][2]float64 `json:"ranges"`
	Metric   models.Metric               `json:"metric"`
	TopN     int                         `json:"top_n"`
	ScatterX models.Field                `json:"scatter_x"`
	ScatterY models.Field                `json:"scatter_y"`
}

func (s *State) controls() Controls {
	c := Controls{
		Years:    s.Filters.Years,
		Hazards:  s.Filters.Hazards,
		Ranges:   make(map[models.Field][2]float64, len(s.Filters.Quantitative)),
		Metric:   s.Metric,
		TopN:     s.TopN,
		ScatterX: s.ScatterX,
		ScatterY: s.ScatterY,
	}
	for f, r := range s.Filters.Quantitative {
		c.Ranges[f] = r.Current
	}
	return c
}

// validate checks every enumerated value before anything is applied.
func (c Controls) validate() error {
	if _, err := models.ParseMetric(string(c.Metric)); err != nil {
		return err
	}
	for _, f := range []models.Field{c.ScatterX, c.ScatterY} {
		if _, err := models.ParseField(string(f)); err != nil {
			return err
		}
	}
	for f := range c.Ranges {
		if _, err := models.ParseField(string(f)); err != nil {
			return err
		}
	}
	return nil
}
