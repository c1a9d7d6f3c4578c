package lulc

import (
	"github.com/paulmach/orb/geojson"
)

// TransitionRecord is one observed class change between two points in time.
// Zero codes and zero years mean the value could not be resolved.
type TransitionRecord struct {
	FromClass ClassCode `json:"from_class"`
	ToClass   ClassCode `json:"to_class"`
	FromYear  int       `json:"from_year,omitempty"`
	ToYear    int       `json:"to_year,omitempty"`
	AreaKm2   float64   `json:"area_km2"`
}

// IsSelfTransition reports whether the record stays in the same class.
func (r TransitionRecord) IsSelfTransition() bool {
	return r.FromClass == r.ToClass
}

// HasDestination reports whether the destination year and class are resolved.
func (r TransitionRecord) HasDestination() bool {
	return r.ToYear != 0 && r.ToClass.Valid()
}

// HasClasses reports whether both class codes are resolved.
func (r TransitionRecord) HasClasses() bool {
	return r.FromClass.Valid() && r.ToClass.Valid()
}

// Snapshot is one feature of a single-year classification.
type Snapshot struct {
	Code    ClassCode `json:"code"`
	AreaKm2 float64   `json:"area_km2"`
}

// TransitionFromFeature normalises a class-change feature.
// It never fails: unresolvable fields are left at zero.
func TransitionFromFeature(f *geojson.Feature) TransitionRecord {
	if f == nil {
		return TransitionRecord{}
	}

	props := f.Properties

	rec := TransitionRecord{
		AreaKm2: ResolveAreaKm2(props, f.Geometry),
	}

	if v, ok := FromYearFields.ResolveInt(props); ok {
		rec.FromYear = v
	}

	if v, ok := ToYearFields.ResolveInt(props); ok {
		rec.ToYear = v
	}

	if v, ok := FromClassFields.ResolveInt(props); ok {
		rec.FromClass = ClassCode(v)
	}

	if v, ok := ToClassFields.ResolveInt(props); ok {
		rec.ToClass = ClassCode(v)
	}

	return rec
}

// TransitionsFromCollection normalises every feature of fc.
func TransitionsFromCollection(fc *geojson.FeatureCollection) []TransitionRecord {
	if fc == nil {
		return []TransitionRecord{}
	}

	records := make([]TransitionRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		records = append(records, TransitionFromFeature(f))
	}

	return records
}

// SnapshotFromFeature normalises a single-year classification feature.
// The boolean is false when the feature carries no class code.
func SnapshotFromFeature(f *geojson.Feature) (Snapshot, bool) {
	if f == nil {
		return Snapshot{}, false
	}

	code, ok := CodeFields.ResolveInt(f.Properties)
	if !ok || !ClassCode(code).Valid() {
		return Snapshot{}, false
	}

	return Snapshot{
		Code:    ClassCode(code),
		AreaKm2: ResolveAreaKm2(f.Properties, f.Geometry),
	}, true
}

// SnapshotsFromCollection normalises fc, dropping features without a class.
func SnapshotsFromCollection(fc *geojson.FeatureCollection) []Snapshot {
	if fc == nil {
		return []Snapshot{}
	}

	snaps := make([]Snapshot, 0, len(fc.Features))
	for _, f := range fc.Features {
		if s, ok := SnapshotFromFeature(f); ok {
			snaps = append(snaps, s)
		}
	}

	return snaps
}
