// Package lulc defines the land-use/land-cover domain: class codes, the class
// catalog, transition and snapshot records, and their normalisation from
// heterogeneous GeoJSON feature properties.
package lulc

import (
	"slices"
	"strconv"
)

// ClassCode identifies a land-cover class in the upstream raster encoding.
type ClassCode int

// NoData is the raster no-data value. It is never a valid class.
const NoData ClassCode = 0

// Valid reports whether the code denotes a real class.
func (c ClassCode) Valid() bool {
	return c != NoData
}

// String returns the decimal form of the code.
func (c ClassCode) String() string {
	return strconv.Itoa(int(c))
}

// Class is one catalog entry.
type Class struct {
	Code  ClassCode `json:"code"  yaml:"code"  mapstructure:"code"`
	Label string    `json:"label" yaml:"label" mapstructure:"label"`
	Color string    `json:"color" yaml:"color" mapstructure:"color"`
}

// Catalog is a fixed, ordered code → class lookup table.
type Catalog struct {
	classes []Class
	byCode  map[ClassCode]int
}

// FallbackColor is used for codes missing from the catalog.
const FallbackColor = "#9e9e9e"

// Default classes of the Dynamic World / ESRI 10m land-cover product.
var defaultClasses = []Class{
	{Code: 1, Label: "Water", Color: "#419bdf"},
	{Code: 2, Label: "Trees", Color: "#397d49"},
	{Code: 4, Label: "Flooded Vegetation", Color: "#7a87c6"},
	{Code: 5, Label: "Crops", Color: "#e49635"},
	{Code: 7, Label: "Built Area", Color: "#c4281b"},
	{Code: 8, Label: "Bare Ground", Color: "#a59b8f"},
	{Code: 9, Label: "Snow/Ice", Color: "#a8ebff"},
	{Code: 10, Label: "Clouds", Color: "#616161"},
	{Code: 11, Label: "Rangeland", Color: "#e3e2c3"},
}

// DefaultCatalog returns the built-in nine-class catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultClasses)
}

// NewCatalog builds a catalog from classes, keeping their order.
// Entries with an invalid code are skipped; a repeated code keeps its first position
// but takes the later label and color.
func NewCatalog(classes []Class) *Catalog {
	cat := &Catalog{
		classes: make([]Class, 0, len(classes)),
		byCode:  make(map[ClassCode]int, len(classes)),
	}

	for _, cls := range classes {
		if !cls.Code.Valid() {
			continue
		}

		if idx, ok := cat.byCode[cls.Code]; ok {
			cat.classes[idx] = cls

			continue
		}

		cat.byCode[cls.Code] = len(cat.classes)
		cat.classes = append(cat.classes, cls)
	}

	return cat
}

// Classes returns a copy of the catalog entries in catalog order.
func (c *Catalog) Classes() []Class {
	return slices.Clone(c.classes)
}

// Len returns the number of classes.
func (c *Catalog) Len() int {
	return len(c.classes)
}

// Lookup returns the class for code.
func (c *Catalog) Lookup(code ClassCode) (Class, bool) {
	idx, ok := c.byCode[code]
	if !ok {
		return Class{}, false
	}

	return c.classes[idx], true
}

// Label returns the class label, or "Class N" for unknown codes.
func (c *Catalog) Label(code ClassCode) string {
	if cls, ok := c.Lookup(code); ok && cls.Label != "" {
		return cls.Label
	}

	return "Class " + code.String()
}

// Color returns the class color, or FallbackColor for unknown codes.
func (c *Catalog) Color(code ClassCode) string {
	if cls, ok := c.Lookup(code); ok && cls.Color != "" {
		return cls.Color
	}

	return FallbackColor
}
