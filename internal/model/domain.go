package model

import (
	"sort"
	"strings"
)

// ValueDomain summarizes the distinct values observed per column in a
// listings snapshot. It is fed into the extractor prompt so the model
// constrains itself to realistic values, and into the responder prompt so
// the assistant only offers choices that still exist post-filtering.
type ValueDomain struct {
	Count         int
	MinBeds       float64
	MaxBeds       float64
	MinBaths      float64
	MaxBaths      float64
	MinRent       float64
	MaxRent       float64
	Boroughs      []string
	Neighborhoods []string
	Exposures     []string
	Amenities     []string

	// FeatureAll/FeatureSome report per boolean feature whether all or some
	// listings have it.
	FeatureAll  map[Key]bool
	FeatureSome map[Key]bool

	// amenityCase maps lowercased amenity names to their canonical casing as
	// found in the snapshot.
	amenityCase map[string]string
}

// ComputeValueDomain scans a snapshot and builds its value domain.
func ComputeValueDomain(listings []ListingRecord) *ValueDomain {
	d := &ValueDomain{
		Count:       len(listings),
		FeatureAll:  make(map[Key]bool),
		FeatureSome: make(map[Key]bool),
		amenityCase: make(map[string]string),
	}
	if len(listings) == 0 {
		return d
	}

	boroughs := make(map[string]struct{})
	neighborhoods := make(map[string]struct{})
	exposures := make(map[string]struct{})

	for _, k := range BooleanFeatureKeys {
		d.FeatureAll[k] = true
	}

	for i, l := range listings {
		if i == 0 {
			d.MinBeds, d.MaxBeds = l.Beds, l.Beds
			d.MinBaths, d.MaxBaths = l.Baths, l.Baths
			d.MinRent, d.MaxRent = l.ActualRent, l.ActualRent
		} else {
			d.MinBeds = min(d.MinBeds, l.Beds)
			d.MaxBeds = max(d.MaxBeds, l.Beds)
			d.MinBaths = min(d.MinBaths, l.Baths)
			d.MaxBaths = max(d.MaxBaths, l.Baths)
			d.MinRent = min(d.MinRent, l.ActualRent)
			d.MaxRent = max(d.MaxRent, l.ActualRent)
		}

		if v := strings.TrimSpace(l.Borough); len(v) > 1 {
			boroughs[v] = struct{}{}
		}
		if v := strings.TrimSpace(l.Neighborhood); len(v) > 1 {
			neighborhoods[v] = struct{}{}
		}
		if v := strings.TrimSpace(l.Exposure); len(v) > 1 {
			exposures[v] = struct{}{}
		}
		for _, a := range l.BuildingAmenities {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if _, ok := d.amenityCase[strings.ToLower(a)]; !ok {
				d.amenityCase[strings.ToLower(a)] = a
			}
		}
		for _, k := range BooleanFeatureKeys {
			v, _ := l.BoolFeature(k)
			if v {
				d.FeatureSome[k] = true
			} else {
				d.FeatureAll[k] = false
			}
		}
	}

	d.Boroughs = sortedKeys(boroughs)
	d.Neighborhoods = sortedKeys(neighborhoods)
	d.Exposures = sortedKeys(exposures)
	for _, canonical := range d.amenityCase {
		d.Amenities = append(d.Amenities, canonical)
	}
	sort.Strings(d.Amenities)

	return d
}

// CanonicalAmenity resolves a free-text amenity mention to the exact casing
// present in the snapshot. Returns false when no amenity matches.
func (d *ValueDomain) CanonicalAmenity(name string) (string, bool) {
	canonical, ok := d.amenityCase[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
