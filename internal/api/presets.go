package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/quake-explorer/internal/dashboard"
	"github.com/mr1hm/quake-explorer/internal/models"
)

const maxPresetLimit = 200

func (h *Handler) listPresets(c *gin.Context) {
	if !h.presetsAvailable(c) {
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxPresetLimit {
			limit = lim
		}
	}

	presets, err := h.presets.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list presets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list presets"})
		return
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	c.JSON(http.StatusOK, presets)
}

// createPreset saves the controls in the body, or the live controls when the
// body carries none.
func (h *Handler) createPreset(c *gin.Context) {
	if !h.presetsAvailable(c) {
		return
	}

	var req struct {
		Name     string              `json:"name"`
		Controls *dashboard.Controls `json:"controls"`
	}
	if !bind(c, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	controls := h.sync.Controls()
	if req.Controls != nil {
		controls = *req.Controls
	}
	data, err := json.Marshal(controls)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode controls"})
		return
	}

	p := &models.Preset{Name: req.Name, Controls: data}
	if err := h.presets.Add(c.Request.Context(), p); err != nil {
		h.logger.Error("failed to save preset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preset"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) getPreset(c *gin.Context) {
	p, ok := h.lookupPreset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) applyPreset(c *gin.Context) {
	p, ok := h.lookupPreset(c)
	if !ok {
		return
	}

	var controls dashboard.Controls
	if err := json.Unmarshal(p.Controls, &controls); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "stored preset is corrupt"})
		return
	}
	respond(c)(h.sync.ApplyControls(c.Request.Context(), controls))
}

func (h *Handler) lookupPreset(c *gin.Context) (*models.Preset, bool) {
	if !h.presetsAvailable(c) {
		return nil, false
	}

	p, err := h.presets.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to fetch preset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch preset"})
		return nil, false
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
		return nil, false
	}
	return p, true
}

func (h *Handler) presetsAvailable(c *gin.Context) bool {
	if h.presets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "preset store unavailable"})
		return false
	}
	return true
}
