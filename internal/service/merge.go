package service

import (
	"github.com/Vector-IT-Drew/Dash/internal/model"
)

// Merge folds a sanitized delta and the turn's removal hints into a copy of
// the store. The input store is never mutated; the caller swaps the result in
// only after the whole turn succeeds.
//
// Scalars replace. Amenity lists accumulate as a union preserving first-seen
// order. A null delta value deletes the key. Hints remove single amenities or
// boolean feature keys without disturbing anything else.
func Merge(store *model.PreferenceStore, delta model.Delta, hints []RemovalHint) *model.PreferenceStore {
	next := store.Clone()

	// Vocabulary order keeps merges deterministic across turns.
	for _, key := range model.KeyVocabulary {
		val, ok := delta[key]
		if !ok {
			continue
		}

		if val.Kind == model.KindNull {
			next.Delete(key)
			continue
		}

		expected, _ := model.ExpectedKind(key)
		if val.Kind != expected {
			continue
		}

		if key == model.KeyBuildingAmenities {
			next.Set(key, unionAmenities(next, val.List))
			continue
		}

		next.Set(key, val)
	}

	for _, hint := range hints {
		applyRemovalHint(next, hint)
	}

	return next
}

// unionAmenities appends incoming amenities that are not already present,
// keeping the existing order stable.
func unionAmenities(store *model.PreferenceStore, incoming []string) model.Value {
	existing, _ := store.Get(model.KeyBuildingAmenities)

	merged := make([]string, 0, len(existing.List)+len(incoming))
	seen := make(map[string]bool, len(existing.List)+len(incoming))
	for _, name := range existing.List {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	for _, name := range incoming {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return model.StringSet(merged...)
}

// applyRemovalHint drops one amenity entry or one boolean feature key. An
// amenity removal that empties the list deletes the key outright.
func applyRemovalHint(store *model.PreferenceStore, hint RemovalHint) {
	if hint.Key != "" {
		store.Delete(hint.Key)
		return
	}

	val, ok := store.Get(model.KeyBuildingAmenities)
	if !ok {
		return
	}
	remaining := make([]string, 0, len(val.List))
	for _, name := range val.List {
		if name != hint.Amenity {
			remaining = append(remaining, name)
		}
	}
	if len(remaining) == 0 {
		store.Delete(model.KeyBuildingAmenities)
		return
	}
	store.Set(model.KeyBuildingAmenities, model.StringSet(remaining...))
}
