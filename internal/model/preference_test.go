package model

import (
	"encoding/json"
	"testing"
)

func TestPreferenceStore_InsertionOrder(t *testing.T) {
	store := NewPreferenceStore()
	store.Set(KeyBorough, String("Brooklyn"))
	store.Set(KeyBeds, Number(2))
	store.Set(KeyDoorman, Boolean(true))

	// Re-setting an existing key must not move it.
	store.Set(KeyBorough, String("Queens"))

	want := []Key{KeyBorough, KeyBeds, KeyDoorman}
	got := store.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys = %v, want %v", got, want)
		}
	}

	store.Delete(KeyBeds)
	store.Set(KeyBeds, Number(3))
	got = store.Keys()
	if got[len(got)-1] != KeyBeds {
		t.Errorf("re-inserted key must move to the end, keys = %v", got)
	}
}

func TestPreferenceStore_CloneIsDeep(t *testing.T) {
	store := NewPreferenceStore()
	store.Set(KeyBuildingAmenities, StringSet("Gym"))

	clone := store.Clone()
	v, _ := clone.Get(KeyBuildingAmenities)
	v.List[0] = "Pool"
	clone.Set(KeyBeds, Number(2))

	orig, _ := store.Get(KeyBuildingAmenities)
	if orig.List[0] != "Gym" {
		t.Error("mutating a clone's list leaked into the original")
	}
	if _, ok := store.Get(KeyBeds); ok {
		t.Error("setting a key on a clone leaked into the original")
	}
}

func TestPreferenceStore_MarshalJSON(t *testing.T) {
	store := NewPreferenceStore()
	store.Set(KeyBeds, Number(2))
	store.Set(KeyBorough, String("Brooklyn"))
	store.Set(KeyDoorman, Boolean(true))
	store.Set(KeyBuildingAmenities, StringSet("Gym", "Pool"))

	data, err := json.Marshal(store)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"beds":2,"borough":"Brooklyn","doorman":true,"building_amenities":["Gym","Pool"]}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestValue_Display(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"whole number", Number(3000), "3000"},
		{"fractional number", Number(1.5), "1.5"},
		{"string", String("Brooklyn"), "Brooklyn"},
		{"bool true", Boolean(true), "yes"},
		{"bool false", Boolean(false), "no"},
		{"set", StringSet("Gym", "Pool"), "Gym, Pool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.val.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVocabulary(t *testing.T) {
	if IsVocabularyKey("parking_spaces") {
		t.Error("unknown key must not be in the vocabulary")
	}
	if !IsVocabularyKey(KeyShowListings) || !IsControlKey(KeyShowListings) {
		t.Error("show_listings is a vocabulary control key")
	}
	if KeyShowListings.IsBooleanFeatureKey() {
		t.Error("control keys are not boolean features")
	}
	if !KeyDoorman.IsBooleanFeatureKey() {
		t.Error("doorman is a boolean feature key")
	}
}
