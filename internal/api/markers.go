package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/mr1hm/quake-explorer/internal/aggregate"
)

func (h *Handler) getMarkers(c *gin.Context) {
	fc := toGeoJSON(h.sync.Current().Markers)

	data, err := fc.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode markers"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

func toGeoJSON(markers []aggregate.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		r := m.Record
		f := geojson.NewPointFeature([]float64{r.Longitude, r.Latitude})
		f.SetProperty("date", m.Date)
		f.SetProperty("location", r.Location)
		f.SetProperty("magnitude", r.Magnitude)
		f.SetProperty("depth", r.Depth)
		f.SetProperty("deaths", r.Deaths)
		f.SetProperty("bin", string(m.Bin))
		f.SetProperty("color", m.Color)
		f.SetProperty("radius", m.Radius)
		if m.TsunamiRing > 0 {
			f.SetProperty("tsunami_ring", m.TsunamiRing)
		}
		if m.VolcanoRing > 0 {
			f.SetProperty("volcano_ring", m.VolcanoRing)
		}
		fc.AddFeature(f)
	}
	return fc
}
