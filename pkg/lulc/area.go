package lulc

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// squareMetersPerKm2 converts m² to km².
const squareMetersPerKm2 = 1e6

// GeodesicAreaKm2 returns the area of g on the WGS84 sphere in km².
// Coordinates are longitude/latitude degrees. Non-areal and invalid
// geometries yield 0.
func GeodesicAreaKm2(g orb.Geometry) (area float64) {
	if g == nil {
		return 0
	}

	defer func() {
		if recover() != nil {
			area = 0
		}
	}()

	return nonNegative(geo.Area(g) / squareMetersPerKm2)
}

// ResolveAreaKm2 picks the area of a feature: an explicit non-negative area
// property first, then the geodesic area of geom, else 0.
func ResolveAreaKm2(props geojson.Properties, geom orb.Geometry) float64 {
	if explicit, ok := AreaFields.Resolve(props); ok && explicit >= 0 {
		return explicit
	}

	return GeodesicAreaKm2(geom)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}
