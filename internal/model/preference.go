package model

import (
	"encoding/json"
	"fmt"
)

// Key is a preference key drawn from the fixed vocabulary. Anything outside
// the vocabulary is dropped at the extraction boundary.
type Key string

const (
	KeyBeds              Key = "beds"
	KeyBaths             Key = "baths"
	KeyMaximumRent       Key = "maximum_rent"
	KeyMinimumRent       Key = "minimum_rent"
	KeyBorough           Key = "borough"
	KeyNeighborhood      Key = "neighborhood"
	KeySqft              Key = "sqft"
	KeyExposure          Key = "exposure"
	KeyBuildingAmenities Key = "building_amenities"

	KeyDoorman           Key = "doorman"
	KeyElevator          Key = "elevator"
	KeyWheelchairAccess  Key = "wheelchair_access"
	KeySmokeFree         Key = "smoke_free"
	KeyLaundryInUnit     Key = "laundry_in_unit"
	KeyLaundryInBuilding Key = "laundry_in_building"
	KeyPetFriendly       Key = "pet_friendly"
	KeyLiveInSuper       Key = "live_in_super"
	KeyConcierge         Key = "concierge"

	// Control keys are carried through the filter engine without filtering.
	KeyShowListings Key = "show_listings"
	KeyListingCount Key = "listing_count"
)

// Kind is the expected value type of a preference key.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindStringSet
	// KindNull marks an explicit removal in a delta.
	KindNull
)

// keyKinds maps every vocabulary key to its expected value kind.
// KeyListingCount is numeric, KeyShowListings boolean.
var keyKinds = map[Key]Kind{
	KeyBeds:              KindNumber,
	KeyBaths:             KindNumber,
	KeyMaximumRent:       KindNumber,
	KeyMinimumRent:       KindNumber,
	KeySqft:              KindNumber,
	KeyBorough:           KindString,
	KeyNeighborhood:      KindString,
	KeyExposure:          KindString,
	KeyBuildingAmenities: KindStringSet,
	KeyDoorman:           KindBool,
	KeyElevator:          KindBool,
	KeyWheelchairAccess:  KindBool,
	KeySmokeFree:         KindBool,
	KeyLaundryInUnit:     KindBool,
	KeyLaundryInBuilding: KindBool,
	KeyPetFriendly:       KindBool,
	KeyLiveInSuper:       KindBool,
	KeyConcierge:         KindBool,
	KeyShowListings:      KindBool,
	KeyListingCount:      KindNumber,
}

// KeyVocabulary lists all vocabulary keys in a stable order. The order is
// also used when iterating deltas so merges are deterministic.
var KeyVocabulary = []Key{
	KeyBeds, KeyBaths, KeyMaximumRent, KeyMinimumRent,
	KeyBorough, KeyNeighborhood, KeySqft, KeyExposure,
	KeyBuildingAmenities,
	KeyDoorman, KeyElevator, KeyWheelchairAccess, KeySmokeFree,
	KeyLaundryInUnit, KeyLaundryInBuilding, KeyPetFriendly,
	KeyLiveInSuper, KeyConcierge,
	KeyShowListings, KeyListingCount,
}

// BooleanFeatureKeys lists the per-listing boolean feature columns.
var BooleanFeatureKeys = []Key{
	KeyDoorman, KeyElevator, KeyWheelchairAccess, KeySmokeFree,
	KeyLaundryInUnit, KeyLaundryInBuilding, KeyPetFriendly,
	KeyLiveInSuper, KeyConcierge,
}

// IsVocabularyKey reports whether k belongs to the fixed vocabulary.
func IsVocabularyKey(k Key) bool {
	_, ok := keyKinds[k]
	return ok
}

// IsControlKey reports whether k is carried through filtering untouched.
func IsControlKey(k Key) bool {
	return k == KeyShowListings || k == KeyListingCount
}

// IsBooleanFeatureKey reports whether k names a boolean listing column.
func (k Key) IsBooleanFeatureKey() bool {
	kind, ok := keyKinds[k]
	return ok && kind == KindBool && !IsControlKey(k)
}

// ExpectedKind returns the value kind a key's value must have.
func ExpectedKind(k Key) (Kind, bool) {
	kind, ok := keyKinds[k]
	return kind, ok
}

// Value is a preference value, polymorphic by key.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	List []string
}

func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

func String(v string) Value { return Value{Kind: KindString, Str: v} }

func Boolean(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func StringSet(v ...string) Value { return Value{Kind: KindStringSet, List: v} }

func Null() Value { return Value{Kind: KindNull} }

// MarshalJSON emits the natural JSON form of the value.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindStringSet:
		if v.List == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.List)
	case KindNull:
		return []byte("null"), nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// Equal compares two values for semantic equality.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == other.Num
	case KindString:
		return v.Str == other.Str
	case KindBool:
		return v.Bool == other.Bool
	case KindStringSet:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
		return true
	}
	return true
}

// Display renders the value for user-facing eviction messages.
func (v Value) Display() string {
	switch v.Kind {
	case KindNumber:
		if v.Num == float64(int64(v.Num)) {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "yes"
		}
		return "no"
	case KindStringSet:
		out := ""
		for i, s := range v.List {
			if i > 0 {
				out += ", "
			}
			out += s
		}
		return out
	}
	return ""
}

// Delta is the candidate preference changes proposed for one turn, prior to
// merge. A KindNull value marks an explicit removal.
type Delta map[Key]Value

// PreferenceStore is an insertion-ordered mapping of preference key to value,
// scoped to one conversation session. Constraints are applied by the filter
// engine in the order keys were first inserted.
type PreferenceStore struct {
	order  []Key
	values map[Key]Value
}

// NewPreferenceStore creates an empty store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{values: make(map[Key]Value)}
}

// Set stores a value, appending the key to the iteration order on first set.
func (s *PreferenceStore) Set(k Key, v Value) {
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = v
}

// Get returns the value for a key.
func (s *PreferenceStore) Get(k Key) (Value, bool) {
	v, ok := s.values[k]
	return v, ok
}

// Delete removes a key entirely.
func (s *PreferenceStore) Delete(k Key) {
	if _, ok := s.values[k]; !ok {
		return
	}
	delete(s.values, k)
	for i, key := range s.order {
		if key == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (s *PreferenceStore) Keys() []Key {
	out := make([]Key, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored preferences.
func (s *PreferenceStore) Len() int {
	return len(s.values)
}

// Clone returns a deep copy. Merge operates on a clone so a parse failure
// later in the turn can discard the result without touching the original.
func (s *PreferenceStore) Clone() *PreferenceStore {
	c := NewPreferenceStore()
	for _, k := range s.order {
		v := s.values[k]
		if v.Kind == KindStringSet {
			list := make([]string, len(v.List))
			copy(list, v.List)
			v.List = list
		}
		c.Set(k, v)
	}
	return c
}

// MarshalJSON renders the store as a flat JSON object in insertion order.
func (s *PreferenceStore) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, k := range s.order {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}
