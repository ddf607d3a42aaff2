package service

import (
	"strings"
	"testing"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

func TestBuildResponderPrompt(t *testing.T) {
	snapshot := testSnapshot()
	// Units 1 and 2: both have an elevator, only unit 1 has a doorman.
	filtered := snapshot[:2]

	turn := &TurnContext{
		Preferences:  storeWith(model.KeyBeds, model.Number(2)),
		Filtered:     filtered,
		Domain:       model.ComputeValueDomain(filtered),
		FullDomain:   model.ComputeValueDomain(snapshot),
		ListingCount: 2,
		Evictions: []model.Eviction{
			{Key: model.KeyBorough, Value: model.String("Queens"), Reason: "No matching listings are in Queens; available boroughs: Brooklyn."},
		},
	}

	prompt := buildResponderPrompt(turn)

	if !strings.Contains(prompt, "Features every match has: elevator") {
		t.Error("prompt must list features shared by all matches")
	}
	if !strings.Contains(prompt, "only some matches have") || !strings.Contains(prompt, "doorman") {
		t.Error("prompt must list partially available features for steering")
	}
	if !strings.Contains(prompt, "No matching listings are in Queens") {
		t.Error("prompt must carry eviction explanations")
	}
	// Eviction context draws on the unfiltered inventory ranges.
	if !strings.Contains(prompt, "$3000 to $4000") {
		t.Errorf("prompt must include full-inventory rent range, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "2 listings currently match") {
		t.Error("prompt must state the match count")
	}
}

func TestBuildResponderPrompt_NoPreferences(t *testing.T) {
	turn := &TurnContext{
		Preferences:  model.NewPreferenceStore(),
		Domain:       model.ComputeValueDomain(nil),
		ListingCount: 0,
	}

	prompt := buildResponderPrompt(turn)

	if !strings.Contains(prompt, "has not stated any preferences") {
		t.Error("prompt must ask an opening question when the store is empty")
	}
}
