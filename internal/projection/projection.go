// Package projection maps geographic coordinates onto the dashboard's
// screen space. The brush only depends on the Projector interface, so it
// works the same under the globe and the flat map.
package projection

import "math"

const (
	DefaultWidth  = 800
	DefaultHeight = 500

	// GlobeBaseScale is the orthographic scale at zoom 1.
	GlobeBaseScale = 250
)

// Projector maps lon/lat degrees to screen pixels. ok is false when the point
// is not visible under the current view (the far side of the globe).
type Projector interface {
	Project(lon, lat float64) (x, y float64, ok bool)
}

const rad = math.Pi / 180

// Equirectangular is the flat map: longitude rotated by RotateLon and then
// scaled linearly.
type Equirectangular struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	RotateLon  float64 `json:"rotate_lon"`
}

// MapScale is the equirectangular scale at zoom k for a view of width w.
func MapScale(width, k float64) float64 {
	return width / (2 * math.Pi) * k
}

func (p Equirectangular) Project(lon, lat float64) (float64, float64, bool) {
	l := wrapLon(lon + p.RotateLon)
	return p.TranslateX + p.Scale*l*rad, p.TranslateY - p.Scale*lat*rad, true
}

// Orthographic is the globe. Rotate holds the [lambda, phi, gamma] view
// rotation in degrees.
type Orthographic struct {
	Scale      float64    `json:"scale"`
	TranslateX float64    `json:"translate_x"`
	TranslateY float64    `json:"translate_y"`
	Rotate     [3]float64 `json:"rotate"`
}

func (p Orthographic) Project(lon, lat float64) (float64, float64, bool) {
	lambda, phi := rotate(lon*rad, lat*rad, p.Rotate[0]*rad, p.Rotate[1]*rad, p.Rotate[2]*rad)

	cosPhi := math.Cos(phi)
	if cosPhi*math.Cos(lambda) < 0 {
		return 0, 0, false
	}
	x := cosPhi * math.Sin(lambda)
	y := math.Sin(phi)
	return p.TranslateX + p.Scale*x, p.TranslateY - p.Scale*y, true
}

// rotate applies a yaw of dl followed by pitch dp and roll dg, all radians.
func rotate(lambda, phi, dl, dp, dg float64) (float64, float64) {
	lambda = wrapRad(lambda + dl)
	if dp == 0 && dg == 0 {
		return lambda, phi
	}

	cosDp, sinDp := math.Cos(dp), math.Sin(dp)
	cosDg, sinDg := math.Cos(dg), math.Sin(dg)

	cosPhi := math.Cos(phi)
	x := math.Cos(lambda) * cosPhi
	y := math.Sin(lambda) * cosPhi
	z := math.Sin(phi)
	k := z*cosDp + x*sinDp

	return math.Atan2(y*cosDg-k*sinDg, x*cosDp-z*sinDp),
		math.Asin(clampUnit(k*cosDg + y*sinDg))
}

func wrapLon(deg float64) float64 {
	if deg > 180 {
		return deg - 360
	}
	if deg < -180 {
		return deg + 360
	}
	return deg
}

func wrapRad(r float64) float64 {
	if r > math.Pi {
		return r - 2*math.Pi
	}
	if r < -math.Pi {
		return r + 2*math.Pi
	}
	return r
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
