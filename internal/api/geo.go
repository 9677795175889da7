package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/quake-explorer/internal/export"
)

func (h *Handler) getWorld(c *gin.Context) {
	if h.geo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "world layer unavailable"})
		return
	}
	data, err := h.geo.World()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *Handler) getPlates(c *gin.Context) {
	if h.geo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plates layer unavailable"})
		return
	}
	fc, err := h.geo.Plates()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode plates"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) exportXLSX(c *gin.Context) {
	report := export.NewReport(h.sync.Current())

	c.Header("Content-Disposition", `attachment; filename="top.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, report); err != nil {
		h.logger.Error("failed to write workbook", "error", err)
	}
}
