package service

import (
	"testing"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

func TestMerge_ScalarReplace(t *testing.T) {
	store := storeWith(model.KeyBeds, model.Number(2))
	delta := model.Delta{model.KeyBeds: model.Number(3)}

	next := Merge(store, delta, nil)

	v, _ := next.Get(model.KeyBeds)
	if v.Num != 3 {
		t.Errorf("beds = %g, want 3", v.Num)
	}
	// Input store untouched.
	orig, _ := store.Get(model.KeyBeds)
	if orig.Num != 2 {
		t.Errorf("input store mutated: beds = %g", orig.Num)
	}
}

func TestMerge_AmenityAccumulation(t *testing.T) {
	store := storeWith(model.KeyBuildingAmenities, model.StringSet("Gym"))
	delta := model.Delta{model.KeyBuildingAmenities: model.StringSet("Pool")}

	next := Merge(store, delta, nil)

	v, _ := next.Get(model.KeyBuildingAmenities)
	if len(v.List) != 2 || v.List[0] != "Gym" || v.List[1] != "Pool" {
		t.Errorf("amenities = %v, want [Gym Pool]", v.List)
	}
}

func TestMerge_AmenityUnionDeduplicates(t *testing.T) {
	store := storeWith(model.KeyBuildingAmenities, model.StringSet("Gym", "Pool"))
	delta := model.Delta{model.KeyBuildingAmenities: model.StringSet("Pool", "Sauna")}

	next := Merge(store, delta, nil)

	v, _ := next.Get(model.KeyBuildingAmenities)
	want := []string{"Gym", "Pool", "Sauna"}
	if len(v.List) != len(want) {
		t.Fatalf("amenities = %v, want %v", v.List, want)
	}
	for i := range want {
		if v.List[i] != want[i] {
			t.Errorf("amenities = %v, want %v", v.List, want)
		}
	}
}

func TestMerge_NullDeletesKey(t *testing.T) {
	store := storeWith(
		model.KeyBeds, model.Number(2),
		model.KeyBorough, model.String("Brooklyn"),
	)
	delta := model.Delta{model.KeyBorough: model.Null()}

	next := Merge(store, delta, nil)

	if _, ok := next.Get(model.KeyBorough); ok {
		t.Error("null delta value must delete the key")
	}
	if _, ok := next.Get(model.KeyBeds); !ok {
		t.Error("unrelated key must survive")
	}
}

func TestMerge_TypeMismatchDropped(t *testing.T) {
	store := model.NewPreferenceStore()
	delta := model.Delta{model.KeyBeds: model.String("two")}

	next := Merge(store, delta, nil)

	if _, ok := next.Get(model.KeyBeds); ok {
		t.Error("type-mismatched delta value must be dropped")
	}
}

func TestMerge_RemovalHints(t *testing.T) {
	tests := []struct {
		name          string
		store         *model.PreferenceStore
		hints         []RemovalHint
		wantAmenities []string
		wantNoKey     model.Key
	}{
		{
			name:          "single amenity removed",
			store:         storeWith(model.KeyBuildingAmenities, model.StringSet("Gym", "Pool")),
			hints:         []RemovalHint{{Amenity: "Gym"}},
			wantAmenities: []string{"Pool"},
		},
		{
			name:      "last amenity removal deletes key",
			store:     storeWith(model.KeyBuildingAmenities, model.StringSet("Gym")),
			hints:     []RemovalHint{{Amenity: "Gym"}},
			wantNoKey: model.KeyBuildingAmenities,
		},
		{
			name:      "boolean key deleted",
			store:     storeWith(model.KeyDoorman, model.Boolean(true)),
			hints:     []RemovalHint{{Key: model.KeyDoorman}},
			wantNoKey: model.KeyDoorman,
		},
		{
			name:          "hint for absent amenity is a no-op",
			store:         storeWith(model.KeyBuildingAmenities, model.StringSet("Pool")),
			hints:         []RemovalHint{{Amenity: "Sauna"}},
			wantAmenities: []string{"Pool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Merge(tt.store, model.Delta{}, tt.hints)

			if tt.wantNoKey != "" {
				if _, ok := next.Get(tt.wantNoKey); ok {
					t.Errorf("key %s should have been removed", tt.wantNoKey)
				}
				return
			}
			v, _ := next.Get(model.KeyBuildingAmenities)
			if len(v.List) != len(tt.wantAmenities) {
				t.Fatalf("amenities = %v, want %v", v.List, tt.wantAmenities)
			}
			for i := range tt.wantAmenities {
				if v.List[i] != tt.wantAmenities[i] {
					t.Errorf("amenities = %v, want %v", v.List, tt.wantAmenities)
				}
			}
		})
	}
}
