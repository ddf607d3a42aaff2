package service

import (
	"testing"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

func TestParseRemovalHints(t *testing.T) {
	domain := testDomain(t)

	tests := []struct {
		name        string
		message     string
		wantAmenity string
		wantKey     model.Key
		wantNone    bool
	}{
		{
			name:        "remove amenity",
			message:     "Please remove the gym",
			wantAmenity: "Gym",
		},
		{
			name:        "no longer want amenity",
			message:     "I no longer want bike storage",
			wantAmenity: "Bike Storage",
		},
		{
			name:    "dont need boolean feature",
			message: "Actually I don't need a doorman anymore",
			wantKey: model.KeyDoorman,
		},
		{
			name:    "cancel with requirement suffix",
			message: "cancel the elevator requirement",
			wantKey: model.KeyElevator,
		},
		{
			name:        "target stops at clause boundary",
			message:     "remove the pool, and show me what's left",
			wantAmenity: "Pool",
		},
		{
			name:     "unresolvable target ignored",
			message:  "remove the helicopter pad",
			wantNone: true,
		},
		{
			name:     "no removal phrase",
			message:  "I want a gym and a doorman",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := ParseRemovalHints(tt.message, domain)

			if tt.wantNone {
				if len(hints) != 0 {
					t.Fatalf("expected no hints, got %+v", hints)
				}
				return
			}
			if len(hints) != 1 {
				t.Fatalf("got %d hints, want 1: %+v", len(hints), hints)
			}
			if hints[0].Amenity != tt.wantAmenity {
				t.Errorf("amenity = %q, want %q", hints[0].Amenity, tt.wantAmenity)
			}
			if hints[0].Key != tt.wantKey {
				t.Errorf("key = %q, want %q", hints[0].Key, tt.wantKey)
			}
		})
	}
}
