package service

import (
	"fmt"
	"strings"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

// FilterResult is the outcome of applying a preference store to a snapshot.
type FilterResult struct {
	// Listings is the surviving candidate set. Never empty while the
	// snapshot itself is non-empty: any constraint that would zero it out is
	// evicted instead of applied.
	Listings []model.ListingRecord
	// Accepted is the preference store with evicted constraints removed.
	// This is what the session keeps.
	Accepted *model.PreferenceStore
	// Evictions records what was dropped and why, for the responder.
	Evictions []model.Eviction
}

// Filter applies the store's constraints to the snapshot one key at a time,
// in insertion order. A constraint that would leave zero listings is evicted:
// skipped, removed from the accepted store, and recorded with an explanation
// built against the set that survived the constraints before it. Control keys
// pass through without filtering.
//
// Amenity constraints evict per entry rather than as a whole: each required
// amenity is applied independently so one impossible amenity does not take
// the rest down with it.
func Filter(snapshot []model.ListingRecord, store *model.PreferenceStore) FilterResult {
	result := FilterResult{
		Listings: snapshot,
		Accepted: store.Clone(),
	}

	for _, key := range store.Keys() {
		if model.IsControlKey(key) {
			continue
		}
		val, _ := store.Get(key)

		if key == model.KeyBuildingAmenities {
			result.applyAmenities(val)
			continue
		}

		narrowed := applyConstraint(result.Listings, key, val)
		if len(narrowed) == 0 {
			result.evict(key, val, "")
			continue
		}
		result.Listings = narrowed
	}

	return result
}

// applyAmenities narrows by each required amenity independently, evicting
// only the entries that zero out the set.
func (r *FilterResult) applyAmenities(val model.Value) {
	kept := make([]string, 0, len(val.List))
	for _, amenity := range val.List {
		narrowed := filterByAmenity(r.Listings, amenity)
		if len(narrowed) == 0 {
			r.evict(model.KeyBuildingAmenities, val, amenity)
			continue
		}
		r.Listings = narrowed
		kept = append(kept, amenity)
	}

	if len(kept) == 0 {
		r.Accepted.Delete(model.KeyBuildingAmenities)
	} else {
		r.Accepted.Set(model.KeyBuildingAmenities, model.StringSet(kept...))
	}
}

// evict drops a constraint from the accepted store and records the reason.
// For amenity evictions only the named entry is dropped; the Accepted list is
// rebuilt by applyAmenities afterwards.
func (r *FilterResult) evict(key model.Key, val model.Value, amenity string) {
	reason := evictionReason(r.Listings, key, val, amenity)
	if amenity == "" {
		r.Accepted.Delete(key)
	}
	r.Evictions = append(r.Evictions, model.Eviction{
		Key:     key,
		Value:   val,
		Reason:  reason,
		Amenity: amenity,
	})
}

// applyConstraint narrows listings by a single non-amenity constraint.
// Numeric rules: beds match exactly, baths and sqft are minimums, rent
// bounds are inclusive. String rules: borough and neighborhood compare
// case-insensitively, exposure is a case-insensitive substring match.
func applyConstraint(listings []model.ListingRecord, key model.Key, val model.Value) []model.ListingRecord {
	out := make([]model.ListingRecord, 0, len(listings))
	for _, l := range listings {
		if matchesConstraint(&l, key, val) {
			out = append(out, l)
		}
	}
	return out
}

func matchesConstraint(l *model.ListingRecord, key model.Key, val model.Value) bool {
	switch key {
	case model.KeyBeds:
		return l.Beds == val.Num
	case model.KeyBaths:
		return l.Baths >= val.Num
	case model.KeyMaximumRent:
		return l.ActualRent <= val.Num
	case model.KeyMinimumRent:
		return l.ActualRent >= val.Num
	case model.KeySqft:
		return l.Sqft != nil && *l.Sqft >= val.Num
	case model.KeyBorough:
		return strings.EqualFold(l.Borough, val.Str)
	case model.KeyNeighborhood:
		return strings.EqualFold(l.Neighborhood, val.Str)
	case model.KeyExposure:
		return strings.Contains(strings.ToLower(l.Exposure), strings.ToLower(val.Str))
	}

	if want, ok := l.BoolFeature(key); ok {
		return want == val.Bool
	}

	// Unrecognized keys never filter; sanitization upstream should make this
	// unreachable.
	return true
}

func filterByAmenity(listings []model.ListingRecord, amenity string) []model.ListingRecord {
	out := make([]model.ListingRecord, 0, len(listings))
	for _, l := range listings {
		for _, a := range l.BuildingAmenities {
			if strings.EqualFold(a, amenity) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// evictionReason explains why a constraint matched nothing, phrased against
// the listings that survived the constraints applied before it.
func evictionReason(listings []model.ListingRecord, key model.Key, val model.Value, amenity string) string {
	domain := model.ComputeValueDomain(listings)

	switch key {
	case model.KeyBeds:
		return fmt.Sprintf("No matching listings have %s bedrooms; available listings range from %g to %g.",
			val.Display(), domain.MinBeds, domain.MaxBeds)
	case model.KeyBaths:
		return fmt.Sprintf("No matching listings have %s or more bathrooms; available listings range from %g to %g.",
			val.Display(), domain.MinBaths, domain.MaxBaths)
	case model.KeyMaximumRent:
		return fmt.Sprintf("No matching listings rent for $%s or less; prices range from $%g to $%g.",
			val.Display(), domain.MinRent, domain.MaxRent)
	case model.KeyMinimumRent:
		return fmt.Sprintf("No matching listings rent for $%s or more; prices range from $%g to $%g.",
			val.Display(), domain.MinRent, domain.MaxRent)
	case model.KeySqft:
		return fmt.Sprintf("No matching listings have %s sqft or more.", val.Display())
	case model.KeyBorough:
		return fmt.Sprintf("No matching listings are in %s; available boroughs: %s.",
			val.Display(), strings.Join(domain.Boroughs, ", "))
	case model.KeyNeighborhood:
		return fmt.Sprintf("No matching listings are in %s; available neighborhoods: %s.",
			val.Display(), strings.Join(domain.Neighborhoods, ", "))
	case model.KeyExposure:
		return fmt.Sprintf("No matching listings have %s exposure; available exposures: %s.",
			val.Display(), strings.Join(domain.Exposures, ", "))
	case model.KeyBuildingAmenities:
		return fmt.Sprintf("No matching listings offer %s.", amenity)
	}

	if key.IsBooleanFeatureKey() {
		feature := strings.ReplaceAll(string(key), "_", " ")
		if val.Bool {
			return fmt.Sprintf("No matching listings have %s.", feature)
		}
		return fmt.Sprintf("All matching listings have %s.", feature)
	}

	return "No matching listings satisfy this preference."
}
