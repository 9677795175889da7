package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/quake-explorer/internal/brush"
	"github.com/mr1hm/quake-explorer/internal/dashboard"
	"github.com/mr1hm/quake-explorer/internal/filter"
	"github.com/mr1hm/quake-explorer/internal/geodata"
	internalgrpc "github.com/mr1hm/quake-explorer/internal/grpc"
	"github.com/mr1hm/quake-explorer/internal/models"
	"github.com/mr1hm/quake-explorer/internal/repository"
)

type Handler struct {
	sync        *dashboard.Synchronizer
	presets     repository.PresetRepository
	geo         *geodata.Store
	broadcaster *internalgrpc.Broadcaster
	logger      *slog.Logger
}

// NewHandler wires the control API. presets, geo and broadcaster may be nil;
// the routes that need them then answer 503.
func NewHandler(sync *dashboard.Synchronizer, presets repository.PresetRepository, geo *geodata.Store, broadcaster *internalgrpc.Broadcaster) *Handler {
	return &Handler{
		sync:        sync,
		presets:     presets,
		geo:         geo,
		broadcaster: broadcaster,
		logger:      slog.Default(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/catalog", h.getCatalog)
	api.GET("/snapshot", h.getSnapshot)
	api.GET("/markers", h.getMarkers)
	api.GET("/stream", h.stream)

	api.GET("/controls", h.getControls)
	api.PUT("/controls", h.putControls)

	filters := api.Group("/filters")
	filters.PUT("/years", h.setYears)
	filters.PUT("/hazards", h.setHazards)
	filters.PUT("/ranges/:field", h.setRange)
	filters.DELETE("/ranges", h.resetRanges)

	charts := api.Group("/charts")
	charts.PUT("/metric", h.setMetric)
	charts.PUT("/top", h.setTopN)
	charts.PUT("/scatter", h.setScatter)

	view := api.Group("/view")
	view.PUT("/mode", h.setViewMode)
	view.POST("/zoom", h.zoom)
	view.POST("/drag", h.drag)

	b := api.Group("/brush")
	b.POST("/toggle", h.toggleBrush)
	b.POST("/begin", h.beginBrush)
	b.POST("/release", h.releaseBrush)
	b.POST("/outside", h.cancelBrush)

	anim := api.Group("/animation")
	anim.POST("/play", h.play)
	anim.POST("/pause", h.pause)

	api.GET("/presets", h.listPresets)
	api.POST("/presets", h.createPreset)
	api.GET("/presets/:id", h.getPreset)
	api.POST("/presets/:id/apply", h.applyPreset)

	api.GET("/geo/world", h.getWorld)
	api.GET("/geo/plates", h.getPlates)

	api.GET("/export/top.xlsx", h.exportXLSX)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type fieldInfo struct {
	Name  models.Field `json:"name"`
	Label string       `json:"label"`
	Step  float64      `json:"step"`
	Min   float64      `json:"min"`
	Max   float64      `json:"max"`
}

type metricInfo struct {
	Name  models.Metric `json:"name"`
	Label string        `json:"label"`
}

func (h *Handler) getCatalog(c *gin.Context) {
	catalog := h.sync.Catalog()

	fields := make([]fieldInfo, 0, len(models.Fields))
	for _, f := range models.Fields {
		b := catalog.FieldBounds[f]
		fields = append(fields, fieldInfo{Name: f, Label: f.Label(), Step: f.Step(), Min: b.Min, Max: b.Max})
	}
	metrics := make([]metricInfo, 0, len(models.Metrics))
	for _, m := range models.Metrics {
		metrics = append(metrics, metricInfo{Name: m, Label: m.Label()})
	}

	c.JSON(http.StatusOK, gin.H{
		"records": len(catalog.Records),
		"years":   catalog.Years,
		"fields":  fields,
		"metrics": metrics,
	})
}

func (h *Handler) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Current())
}

func (h *Handler) getControls(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Controls())
}

func (h *Handler) putControls(c *gin.Context) {
	var req dashboard.Controls
	if !bind(c, &req) {
		return
	}
	respond(c)(h.sync.ApplyControls(c.Request.Context(), req))
}

func (h *Handler) setYears(c *gin.Context) {
	var req filter.YearRange
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sync.SetYearRange(c.Request.Context(), req.Start, req.End))
}

func (h *Handler) setHazards(c *gin.Context) {
	var req filter.Hazards
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sync.SetHazards(c.Request.Context(), req))
}

func (h *Handler) setRange(c *gin.Context) {
	field, err := models.ParseField(c.Param("field"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}
	if !bind(c, &req) {
		return
	}
	respond(c)(h.sync.SetRange(c.Request.Context(), field, req.Min, req.Max))
}

func (h *Handler) resetRanges(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.ResetRanges(c.Request.Context()))
}

func (h *Handler) setMetric(c *gin.Context) {
	var req struct {
		Metric string `json:"metric"`
	}
	if !bind(c, &req) {
		return
	}
	m, err := models.ParseMetric(req.Metric)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c)(h.sync.SetMetric(c.Request.Context(), m))
}

// setTopN takes the raw input box text; invalid text falls back to the
// default N instead of failing.
func (h *Handler) setTopN(c *gin.Context) {
	var req struct {
		N any `json:"n"`
	}
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sync.SetTopN(c.Request.Context(), rawString(req.N)))
}

func (h *Handler) setScatter(c *gin.Context) {
	var req struct {
		X string `json:"x"`
		Y string `json:"y"`
	}
	if !bind(c, &req) {
		return
	}
	x, err := models.ParseField(req.X)
	if err != nil {
		respondError(c, err)
		return
	}
	y, err := models.ParseField(req.Y)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c)(h.sync.SetScatterAxes(c.Request.Context(), x, y))
}

func (h *Handler) setViewMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !bind(c, &req) {
		return
	}
	mode, err := dashboard.ParseViewMode(req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c)(h.sync.SetViewMode(c.Request.Context(), mode))
}

func (h *Handler) zoom(c *gin.Context) {
	var req struct {
		Delta float64 `json:"delta"`
	}
	if !bind(c, &req) {
		return
	}
	respond(c)(h.sync.Zoom(c.Request.Context(), req.Delta))
}

func (h *Handler) drag(c *gin.Context) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if !bind(c, &req) {
		return
	}
	respond(c)(h.sync.Drag(c.Request.Context(), req.DX, req.DY))
}

func (h *Handler) toggleBrush(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.ToggleBrush(c.Request.Context()))
}

func (h *Handler) beginBrush(c *gin.Context) {
	respond(c)(h.sync.BeginBrush(c.Request.Context()))
}

func (h *Handler) releaseBrush(c *gin.Context) {
	var req brush.Rect
	if !bind(c, &req) {
		return
	}
	respond(c)(h.sync.ReleaseBrush(c.Request.Context(), req))
}

func (h *Handler) cancelBrush(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.CancelBrush(c.Request.Context()))
}

func (h *Handler) play(c *gin.Context) {
	var req struct {
		Speed int `json:"speed"`
	}
	// an empty body plays at the default speed
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.sync.Play(c.Request.Context(), req.Speed))
}

func (h *Handler) pause(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Pause(c.Request.Context()))
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func respond(c *gin.Context) func(*dashboard.Snapshot, error) {
	return func(s *dashboard.Snapshot, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, brush.ErrInvalidTransition), errors.Is(err, dashboard.ErrInteractionSuspended):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnknownField), errors.Is(err, models.ErrUnknownMetric),
		errors.Is(err, dashboard.ErrUnknownViewMode):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func rawString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
