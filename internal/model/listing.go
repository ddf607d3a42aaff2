package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

// ListingRecord represents one rentable unit snapshot. Records are read-only
// for the duration of a conversation turn; the core never mutates them.
type ListingRecord struct {
	UnitID            int64           `json:"unit_id" db:"unit_id"`
	Address           string          `json:"address" db:"address"`
	Unit              string          `json:"unit" db:"unit"`
	Beds              float64         `json:"beds" db:"beds"`
	Baths             float64         `json:"baths" db:"baths"`
	ActualRent        float64         `json:"actual_rent" db:"actual_rent"`
	Sqft              *float64        `json:"sqft,omitempty" db:"sqft"`
	Borough           string          `json:"borough" db:"borough"`
	Neighborhood      string          `json:"neighborhood" db:"neighborhood"`
	Exposure          string          `json:"exposure" db:"exposure"`
	BuildingName      *string         `json:"building_name,omitempty" db:"building_name"`
	Doorman           bool            `json:"doorman" db:"doorman"`
	Elevator          bool            `json:"elevator" db:"elevator"`
	WheelchairAccess  bool            `json:"wheelchair_access" db:"wheelchair_access"`
	SmokeFree         bool            `json:"smoke_free" db:"smoke_free"`
	LaundryInUnit     bool            `json:"laundry_in_unit" db:"laundry_in_unit"`
	LaundryInBuilding bool            `json:"laundry_in_building" db:"laundry_in_building"`
	PetFriendly       bool            `json:"pet_friendly" db:"pet_friendly"`
	LiveInSuper       bool            `json:"live_in_super" db:"live_in_super"`
	Concierge         bool            `json:"concierge" db:"concierge"`
	BuildingAmenities JSONArray       `json:"building_amenities" db:"building_amenities"`
	Embedding         pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// BoolFeature returns the value of the named boolean feature column and
// whether the key names one.
func (l *ListingRecord) BoolFeature(key Key) (bool, bool) {
	switch key {
	case KeyDoorman:
		return l.Doorman, true
	case KeyElevator:
		return l.Elevator, true
	case KeyWheelchairAccess:
		return l.WheelchairAccess, true
	case KeySmokeFree:
		return l.SmokeFree, true
	case KeyLaundryInUnit:
		return l.LaundryInUnit, true
	case KeyLaundryInBuilding:
		return l.LaundryInBuilding, true
	case KeyPetFriendly:
		return l.PetFriendly, true
	case KeyLiveInSuper:
		return l.LiveInSuper, true
	case KeyConcierge:
		return l.Concierge, true
	}
	return false, false
}

// ListingsResult is the envelope returned by the listings source.
type ListingsResult struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Data   []ListingRecord `json:"data"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
