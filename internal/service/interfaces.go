package service

import (
	"context"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

// ListingsSource returns the current candidate listing snapshot. The core
// treats it as a refreshable, read-only collaborator; the Postgres
// repository is the production implementation.
type ListingsSource interface {
	GetListings(ctx context.Context, limit int) (*model.ListingsResult, error)
}

// Extractor turns a conversation history plus the snapshot's value domain
// into raw model output for the preference delta. The output is free text
// and potentially malformed; the sanitize layer downstream never trusts it.
type Extractor interface {
	Extract(ctx context.Context, history []model.ChatMessage, domain *model.ValueDomain) (string, error)
}

// Responder composes the assistant's next reply from the turn's context.
// Implementations may call an LLM; the controller falls back to a
// deterministic summary when composition fails.
type Responder interface {
	Compose(ctx context.Context, turn *TurnContext) (string, error)
	// ComposeStream streams the reply through the callback and returns the
	// full text. Thinking output from reasoning models arrives in the first
	// argument, reply content in the second; only content counts toward the
	// returned text.
	ComposeStream(ctx context.Context, turn *TurnContext, callback func(thinking, content string) error) (string, error)
}

// TurnContext carries everything the responder needs to compose a reply:
// the conversation so far, the accepted preferences, the post-filter value
// domain, and any preferences evicted this turn (which must be explained to
// the user, never silently dropped).
type TurnContext struct {
	History      []model.ChatMessage
	Preferences  *model.PreferenceStore
	Filtered     []model.ListingRecord
	Domain       *model.ValueDomain
	FullDomain   *model.ValueDomain
	Evictions    []model.Eviction
	ListingCount int
	// NarrowDown is set when there are more matches than the reveal
	// threshold, steering the assistant to keep asking questions.
	NarrowDown bool
	// DetailContext embeds per-listing detail in the prompt when the match
	// set is small (reference only, never shown verbatim).
	DetailContext string
}
