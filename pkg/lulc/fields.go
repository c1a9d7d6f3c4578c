package lulc

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// Accessor reads one numeric value from feature properties.
// It reports false when the value is absent, null, or not numeric.
type Accessor func(props geojson.Properties) (float64, bool)

// Field returns an Accessor reading the property key.
// Numbers and numeric strings are accepted.
func Field(key string) Accessor {
	return func(props geojson.Properties) (float64, bool) {
		raw, ok := props[key]
		if !ok || raw == nil {
			return 0, false
		}

		return toFloat(raw)
	}
}

// Chain is an ordered list of accessors tried in priority order.
type Chain []Accessor

// FieldChain builds a Chain of Field accessors for keys.
func FieldChain(keys ...string) Chain {
	chain := make(Chain, len(keys))
	for i, key := range keys {
		chain[i] = Field(key)
	}

	return chain
}

// Resolve returns the first defined match.
func (c Chain) Resolve(props geojson.Properties) (float64, bool) {
	for _, access := range c {
		if v, ok := access(props); ok {
			return v, true
		}
	}

	return 0, false
}

// ResolveInt returns the first defined match as an int. A fractional or
// out-of-range match resolves to nothing.
func (c Chain) ResolveInt(props geojson.Properties) (int, bool) {
	v, ok := c.Resolve(props)
	if !ok || math.Trunc(v) != v || v < math.MinInt || v >= math.MaxInt {
		return 0, false
	}

	return int(v), true
}

// Property name chains. Upstream exports disagree on naming, so each value has
// several spellings, most specific first.
var (
	FromYearFields  = FieldChain("from_year", "year_from", "start_year", "y1")
	ToYearFields    = FieldChain("to_year", "year_to", "end_year", "y2")
	FromClassFields = FieldChain("from_class_code", "class_from", "source", "c1")
	ToClassFields   = FieldChain("to_class_code", "class_to", "target", "c2")
	AreaFields      = FieldChain("area_km2", "areaKm2", "area")
	CodeFields      = FieldChain("code", "class_code")
)

func toFloat(raw any) (float64, bool) {
	var v float64

	switch val := raw.(type) {
	case float64:
		v = val
	case float32:
		v = float64(val)
	case int:
		v = float64(val)
	case int64:
		v = float64(val)
	case int32:
		v = float64(val)
	case uint:
		v = float64(val)
	case uint64:
		v = float64(val)
	case bool:
		return 0, false
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}

		v = parsed
	case interface{ Float64() (float64, error) }:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}

		v = parsed
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}
