package model

import "time"

// Message roles in a conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single role-tagged message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationSession holds one conversation's message history, preference
// store, and the listings snapshot fetched when the session started. All
// turn operations take the session explicitly; there is no ambient state.
type ConversationSession struct {
	ID          string           `json:"id"`
	Messages    []ChatMessage    `json:"messages"`
	Preferences *PreferenceStore `json:"preferences"`
	Snapshot    []ListingRecord  `json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Eviction records a preference that was accepted by the extractor but
// removed by the filter engine because applying it would zero out the
// candidate listings. Evictions are data, not errors: they are threaded into
// the next prompt so the assistant can explain the infeasibility.
type Eviction struct {
	Key     Key    `json:"key"`
	Value   Value  `json:"value"`
	Reason  string `json:"reason"`
	Amenity string `json:"amenity,omitempty"`
}

// TurnRequest is an incoming user utterance for one turn.
type TurnRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// TurnResponse is the result of one conversation turn.
type TurnResponse struct {
	SessionID    string           `json:"session_id"`
	Message      string           `json:"message"`
	Preferences  *PreferenceStore `json:"preferences"`
	ListingCount int              `json:"listing_count"`
	// Listings is attached only when disclosure was decided this turn:
	// either the user explicitly asked, or the match count dropped to the
	// reveal threshold. The flag is one-shot, never persisted.
	Listings []ListingRecord `json:"listings,omitempty"`
	// Evictions reports preferences dropped this turn for zeroing out the
	// result set.
	Evictions []Eviction `json:"evictions,omitempty"`
}

// StartResponse is returned when a session is created or reset.
type StartResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}
