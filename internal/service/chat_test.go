package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Vector-IT-Drew/Dash/internal/config"
	"github.com/Vector-IT-Drew/Dash/internal/model"
	"github.com/Vector-IT-Drew/Dash/internal/session"
)

type fakeSource struct {
	listings []model.ListingRecord
	err      error
	status   string
}

func (f *fakeSource) GetListings(_ context.Context, _ int) (*model.ListingsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == "" {
		status = "success"
	}
	return &model.ListingsResult{Status: status, Count: len(f.listings), Data: f.listings}, nil
}

// fakeExtractor replays scripted raw outputs, one per turn. Setting err
// simulates a failed extraction call.
type fakeExtractor struct {
	outputs []string
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []model.ChatMessage, _ *model.ValueDomain) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.outputs) {
		return "{}", nil
	}
	out := f.outputs[f.calls]
	f.calls++
	return out, nil
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		RevealThreshold:    5,
		MaxReveal:          5,
		DetailContextLimit: 15,
		SessionTTL:         time.Minute,
		SnapshotLimit:      1000,
	}
}

func newTestService(t *testing.T, source ListingsSource, extractor Extractor) (*ChatService, *session.Store) {
	t.Helper()
	sessions := session.NewStore(time.Minute)
	t.Cleanup(sessions.Close)
	return NewChatService(source, sessions, extractor, nil, nil, testChatConfig()), sessions
}

func TestChatService_EndToEnd(t *testing.T) {
	// Three listings: two 2-bed Brooklyn units at $3000/$3200, one 3-bed
	// Queens unit at $4000.
	extractor := &fakeExtractor{outputs: []string{
		`{"beds": 2}`,
		`{"maximum_rent": 3100}`,
		`{"borough": "Queens"}`,
	}}
	svc, _ := newTestService(t, &fakeSource{listings: testSnapshot()}, extractor)

	start, err := svc.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if start.SessionID == "" || start.Message == "" {
		t.Fatal("start response must carry a session id and welcome message")
	}

	// Turn 1: "I want 2 bedrooms" -> 2 matches.
	resp, err := svc.Turn(context.Background(), start.SessionID, "I want 2 bedrooms")
	if err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}
	if resp.ListingCount != 2 {
		t.Fatalf("turn 1 count = %d, want 2", resp.ListingCount)
	}
	if v, ok := resp.Preferences.Get(model.KeyBeds); !ok || v.Num != 2 {
		t.Errorf("turn 1 beds = %+v, want 2", v)
	}

	// Turn 2: "under 3100" -> only the $3000 listing.
	resp, err = svc.Turn(context.Background(), start.SessionID, "under 3100")
	if err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}
	if resp.ListingCount != 1 {
		t.Fatalf("turn 2 count = %d, want 1", resp.ListingCount)
	}
	if v, ok := resp.Preferences.Get(model.KeyMaximumRent); !ok || v.Num != 3100 {
		t.Errorf("turn 2 maximum_rent = %+v, want 3100", v)
	}

	// Turn 3: "actually in Queens" conflicts with the surviving listing;
	// the borough must be evicted and reported, not silently dropped.
	resp, err = svc.Turn(context.Background(), start.SessionID, "actually in Queens")
	if err != nil {
		t.Fatalf("turn 3 error = %v", err)
	}
	if resp.ListingCount != 1 {
		t.Fatalf("turn 3 count = %d, want 1", resp.ListingCount)
	}
	if _, ok := resp.Preferences.Get(model.KeyBorough); ok {
		t.Error("evicted borough must not remain in preferences")
	}
	if len(resp.Evictions) != 1 || resp.Evictions[0].Key != model.KeyBorough {
		t.Fatalf("turn 3 evictions = %+v, want borough", resp.Evictions)
	}
	if resp.Evictions[0].Reason == "" {
		t.Error("eviction must be explained")
	}
	if v, ok := resp.Preferences.Get(model.KeyBeds); !ok || v.Num != 2 {
		t.Errorf("beds should survive turn 3, got %+v", v)
	}
}

func TestChatService_RevealIsOneShot(t *testing.T) {
	extractor := &fakeExtractor{outputs: []string{
		`{"show_listings": true}`,
		`{}`,
	}}
	svc, sessions := newTestService(t, &fakeSource{listings: testSnapshot()}, extractor)

	start, err := svc.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	resp, err := svc.Turn(context.Background(), start.SessionID, "show me the listings")
	if err != nil {
		t.Fatalf("turn error = %v", err)
	}
	if len(resp.Listings) == 0 {
		t.Fatal("explicit ask must attach listings")
	}

	// The flag must not leak into persisted state.
	sess := sessions.Get(start.SessionID)
	if _, ok := sess.Preferences.Get(model.KeyShowListings); ok {
		t.Error("show_listings must never persist")
	}

	if v, ok := sess.Preferences.Get(model.KeyListingCount); !ok || int(v.Num) != resp.ListingCount {
		t.Errorf("listing_count control key = %+v, want %d", v, resp.ListingCount)
	}
}

func TestChatService_RevealAtThreshold(t *testing.T) {
	// 3 listings <= threshold 5, so listings attach without an explicit ask.
	extractor := &fakeExtractor{outputs: []string{`{}`}}
	svc, _ := newTestService(t, &fakeSource{listings: testSnapshot()}, extractor)

	start, _ := svc.StartSession(context.Background())
	resp, err := svc.Turn(context.Background(), start.SessionID, "hi")
	if err != nil {
		t.Fatalf("turn error = %v", err)
	}
	if len(resp.Listings) != 3 {
		t.Errorf("got %d attached listings, want 3", len(resp.Listings))
	}
}

func TestChatService_ParseErrorLeavesStoreUntouched(t *testing.T) {
	extractor := &fakeExtractor{outputs: []string{
		`{"beds": 2}`,
		`total garbage, not json`,
	}}
	svc, sessions := newTestService(t, &fakeSource{listings: testSnapshot()}, extractor)

	start, _ := svc.StartSession(context.Background())
	if _, err := svc.Turn(context.Background(), start.SessionID, "2 bedrooms please"); err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}

	resp, err := svc.Turn(context.Background(), start.SessionID, "???")
	if err != nil {
		t.Fatalf("parse-failure turn must not error, got %v", err)
	}
	if resp.Message != parseRetryMessage {
		t.Errorf("message = %q, want retry prompt", resp.Message)
	}
	// The count must reflect the session's filtered state, not the raw
	// snapshot size.
	if resp.ListingCount != 2 {
		t.Errorf("listing count = %d, want the stored count 2", resp.ListingCount)
	}

	sess := sessions.Get(start.SessionID)
	if v, ok := sess.Preferences.Get(model.KeyBeds); !ok || v.Num != 2 {
		t.Errorf("store changed on parse failure: beds = %+v", v)
	}
}

func TestChatService_ExtractorFailureAbortsTurn(t *testing.T) {
	extractor := &fakeExtractor{outputs: []string{
		`{"beds": 2, "building_amenities": ["Gym"]}`,
	}}
	svc, sessions := newTestService(t, &fakeSource{listings: testSnapshot()}, extractor)

	start, _ := svc.StartSession(context.Background())
	if _, err := svc.Turn(context.Background(), start.SessionID, "2 bedrooms with a gym"); err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}

	// The extraction call itself fails. The turn must abort: no merge, no
	// removal hints, no filter output written back.
	extractor.err = errors.New("request timeout")
	resp, err := svc.Turn(context.Background(), start.SessionID, "also a doorman, remove the gym")
	if err != nil {
		t.Fatalf("extractor-failure turn must not error, got %v", err)
	}
	if resp.Message != extractorDownMessage {
		t.Errorf("message = %q, want the try-again prompt", resp.Message)
	}
	if resp.ListingCount != 2 {
		t.Errorf("listing count = %d, want the stored count 2", resp.ListingCount)
	}

	sess := sessions.Get(start.SessionID)
	if v, ok := sess.Preferences.Get(model.KeyBeds); !ok || v.Num != 2 {
		t.Errorf("beds = %+v, want untouched 2", v)
	}
	if v, ok := sess.Preferences.Get(model.KeyBuildingAmenities); !ok || len(v.List) != 1 || v.List[0] != "Gym" {
		t.Errorf("amenities = %v, removal hint must not apply on an aborted turn", v.List)
	}
	if _, ok := sess.Preferences.Get(model.KeyDoorman); ok {
		t.Error("no new preference may land on an aborted turn")
	}
	if v, ok := sess.Preferences.Get(model.KeyListingCount); !ok || v.Num != 2 {
		t.Errorf("listing_count = %+v, must stay at 2", v)
	}
}

func TestChatService_ListingsUnavailable(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{err: errors.New("connection refused")}, nil)

	if _, err := svc.StartSession(context.Background()); !errors.Is(err, ErrListingsUnavailable) {
		t.Errorf("error = %v, want ErrListingsUnavailable", err)
	}

	svc2, _ := newTestService(t, &fakeSource{status: "error"}, nil)
	if _, err := svc2.StartSession(context.Background()); !errors.Is(err, ErrListingsUnavailable) {
		t.Errorf("error = %v, want ErrListingsUnavailable on non-success status", err)
	}
}

func TestChatService_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &fakeSource{listings: testSnapshot()}, nil)

	if _, err := svc.Turn(context.Background(), "nope", "hello"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestChatService_ResetStartsFresh(t *testing.T) {
	extractor := &fakeExtractor{outputs: []string{`{"beds": 2}`}}
	svc, sessions := newTestService(t, &fakeSource{listings: testSnapshot()}, extractor)

	start, _ := svc.StartSession(context.Background())
	if _, err := svc.Turn(context.Background(), start.SessionID, "2 bedrooms"); err != nil {
		t.Fatalf("turn error = %v", err)
	}

	fresh, err := svc.ResetSession(context.Background(), start.SessionID)
	if err != nil {
		t.Fatalf("ResetSession() error = %v", err)
	}
	if fresh.SessionID == start.SessionID {
		t.Error("reset must issue a new session id")
	}
	if sessions.Get(start.SessionID) != nil {
		t.Error("old session must be gone after reset")
	}
	sess := sessions.Get(fresh.SessionID)
	if sess == nil || sess.Preferences.Len() != 0 {
		t.Error("new session must start with an empty preference store")
	}
}

func TestChatService_RemovalHintWithoutExtraction(t *testing.T) {
	// No extractor wired: removal hints alone still update the store.
	svc, sessions := newTestService(t, &fakeSource{listings: testSnapshot()}, nil)

	start, _ := svc.StartSession(context.Background())
	sess := sessions.Get(start.SessionID)
	sess.Preferences.Set(model.KeyBuildingAmenities, model.StringSet("Gym", "Pool"))
	sessions.Save(sess)

	resp, err := svc.Turn(context.Background(), start.SessionID, "remove the pool")
	if err != nil {
		t.Fatalf("turn error = %v", err)
	}
	v, _ := resp.Preferences.Get(model.KeyBuildingAmenities)
	if len(v.List) != 1 || v.List[0] != "Gym" {
		t.Errorf("amenities = %v, want [Gym]", v.List)
	}
}

func TestFallbackSummary(t *testing.T) {
	turn := &TurnContext{
		ListingCount: 12,
		NarrowDown:   true,
		Domain: &model.ValueDomain{
			Count:         12,
			Neighborhoods: []string{"Astoria", "Boerum Hill", "Chelsea"},
		},
		Evictions: []model.Eviction{{Key: model.KeyBorough, Reason: "No matching listings are in Queens."}},
	}

	reply := FallbackSummary(turn)

	if reply == "" {
		t.Fatal("fallback must always produce content")
	}
	for _, want := range []string{"No matching listings are in Queens.", "12 listings", "Astoria"} {
		if !strings.Contains(reply, want) {
			t.Errorf("fallback reply missing %q: %s", want, reply)
		}
	}
}
