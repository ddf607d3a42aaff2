package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Vector-IT-Drew/Dash/internal/config"
	"github.com/Vector-IT-Drew/Dash/internal/model"
	"github.com/Vector-IT-Drew/Dash/internal/session"
)

// WelcomeMessage opens every new session.
const WelcomeMessage = "Hi! I'm here to help you find your next apartment in NYC. Tell me a bit about what you're looking for, like a budget, a neighborhood, or how many bedrooms you need."

// parseRetryMessage is returned when extraction output could not be parsed.
// The preference store is untouched, so the user can simply rephrase.
const parseRetryMessage = "Sorry, I didn't quite catch that. Could you rephrase what you're looking for?"

// extractorDownMessage is returned when the extraction call itself failed.
// The turn is aborted with the session unchanged.
const extractorDownMessage = "Sorry, something went wrong on my end. Could you say that again?"

// TurnLogger records completed turns for offline analysis. Logging is
// best-effort; a failure never affects the turn.
type TurnLogger interface {
	LogTurn(ctx context.Context, sessionID, utterance string, preferences []byte, listingCount, tookMs int) error
}

// ChatService runs the conversation loop: extract preferences from the
// user's message, merge them into the session store, filter the snapshot,
// and compose a reply. Each turn is atomic: either every step succeeds and
// the session is saved, or the session state is unchanged except for the
// message history.
type ChatService struct {
	listings  ListingsSource
	sessions  *session.Store
	extractor Extractor
	responder Responder
	turnLog   TurnLogger
	cfg       config.ChatConfig
}

// NewChatService wires the conversation controller. extractor, responder and
// turnLog may be nil; the service degrades to removal-hint-only updates and
// deterministic replies.
func NewChatService(listings ListingsSource, sessions *session.Store, extractor Extractor, responder Responder, turnLog TurnLogger, cfg config.ChatConfig) *ChatService {
	return &ChatService{
		listings:  listings,
		sessions:  sessions,
		extractor: extractor,
		responder: responder,
		turnLog:   turnLog,
		cfg:       cfg,
	}
}

// StartSession fetches a fresh listings snapshot and creates a session bound
// to it. The snapshot stays fixed for the session's lifetime so filtering is
// stable across turns.
func (s *ChatService) StartSession(ctx context.Context) (*model.StartResponse, error) {
	result, err := s.listings.GetListings(ctx, s.cfg.SnapshotLimit)
	if err != nil {
		return nil, errors.Join(ErrListingsUnavailable, err)
	}
	if result.Status != "success" {
		return nil, ErrListingsUnavailable
	}

	sess := s.sessions.Create(result.Data)
	sess.Messages = append(sess.Messages, model.ChatMessage{Role: model.RoleAssistant, Content: WelcomeMessage})
	s.sessions.Save(sess)

	return &model.StartResponse{SessionID: sess.ID, Message: WelcomeMessage}, nil
}

// ResetSession discards a session's history and preferences and starts a new
// one with a fresh snapshot.
func (s *ChatService) ResetSession(ctx context.Context, sessionID string) (*model.StartResponse, error) {
	s.sessions.Delete(sessionID)
	return s.StartSession(ctx)
}

// Turn runs one conversation turn and returns the reply.
func (s *ChatService) Turn(ctx context.Context, sessionID, message string) (*model.TurnResponse, error) {
	return s.runTurn(ctx, sessionID, message, nil)
}

// TurnStream runs one turn, streaming reply content through the callback as
// it is composed. Thinking content from reasoning models arrives separately
// from reply content. The returned response carries the full reply text.
func (s *ChatService) TurnStream(ctx context.Context, sessionID, message string, callback func(thinking, content string) error) (*model.TurnResponse, error) {
	return s.runTurn(ctx, sessionID, message, callback)
}

func (s *ChatService) runTurn(ctx context.Context, sessionID, message string, stream func(thinking, content string) error) (*model.TurnResponse, error) {
	started := time.Now()

	sess := s.sessions.Get(sessionID)
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	history := append(cloneMessages(sess.Messages), model.ChatMessage{Role: model.RoleUser, Content: message})
	fullDomain := model.ComputeValueDomain(sess.Snapshot)

	delta, extractErr := s.extractDelta(ctx, history, fullDomain)
	if extractErr != nil {
		// Boundary failure aborts the turn: the store is untouched, only
		// the exchange is recorded.
		reply := extractorDownMessage
		var parseErr *ExtractionParseError
		if errors.As(extractErr, &parseErr) {
			reply = parseRetryMessage
		}
		sess.Messages = append(history, model.ChatMessage{Role: model.RoleAssistant, Content: reply})
		s.sessions.Save(sess)
		if stream != nil {
			if err := stream("", reply); err != nil {
				return nil, err
			}
		}
		return &model.TurnResponse{
			SessionID:    sess.ID,
			Message:      reply,
			Preferences:  sess.Preferences,
			ListingCount: s.currentCount(sess),
		}, nil
	}

	hints := ParseRemovalHints(message, fullDomain)
	merged := Merge(sess.Preferences, delta, hints)

	filtered := Filter(sess.Snapshot, merged)
	count := len(filtered.Listings)
	filtered.Accepted.Set(model.KeyListingCount, model.Number(float64(count)))

	// Disclosure is one-shot: an explicit ask or a small enough match set
	// attaches listings to this response only.
	explicitShow := false
	if v, ok := filtered.Accepted.Get(model.KeyShowListings); ok {
		explicitShow = v.Bool
		filtered.Accepted.Delete(model.KeyShowListings)
	}
	reveal := explicitShow || count <= s.cfg.RevealThreshold
	var shown []model.ListingRecord
	if reveal && count > 0 {
		limit := s.cfg.MaxReveal
		if count < limit {
			limit = count
		}
		shown = filtered.Listings[:limit]
	}

	turnCtx := &TurnContext{
		History:      history,
		Preferences:  filtered.Accepted,
		Filtered:     filtered.Listings,
		Domain:       model.ComputeValueDomain(filtered.Listings),
		FullDomain:   fullDomain,
		Evictions:    filtered.Evictions,
		ListingCount: count,
		NarrowDown:   !reveal && count > s.cfg.RevealThreshold,
	}
	if count > 0 && count < s.cfg.DetailContextLimit {
		turnCtx.DetailContext = BuildDetailContext(filtered.Listings)
	}

	reply := s.compose(ctx, turnCtx, stream)

	sess.Messages = append(history, model.ChatMessage{Role: model.RoleAssistant, Content: reply})
	sess.Preferences = filtered.Accepted
	s.sessions.Save(sess)

	s.logTurn(sess.ID, message, filtered.Accepted, count, time.Since(started))

	return &model.TurnResponse{
		SessionID:    sess.ID,
		Message:      reply,
		Preferences:  filtered.Accepted,
		ListingCount: count,
		Listings:     shown,
		Evictions:    filtered.Evictions,
	}, nil
}

// extractDelta runs extraction and sanitization. With no extractor wired the
// delta is empty and only removal hints act. Any extraction failure, whether
// the call itself or parsing its output, is a boundary error: the caller
// aborts the turn rather than proceed on a guessed or partial delta.
func (s *ChatService) extractDelta(ctx context.Context, history []model.ChatMessage, domain *model.ValueDomain) (model.Delta, error) {
	if s.extractor == nil {
		return model.Delta{}, nil
	}

	raw, err := s.extractor.Extract(ctx, history, domain)
	if err != nil {
		log.Printf("preference extraction failed: %v", err)
		return nil, err
	}

	delta, err := ParseDelta(raw, domain)
	if err != nil {
		log.Printf("unparseable extraction output: %v", err)
		return nil, err
	}
	return delta, nil
}

// currentCount returns the session's stored match count, falling back to the
// snapshot size before any turn has filtered.
func (s *ChatService) currentCount(sess *model.ConversationSession) int {
	if v, ok := sess.Preferences.Get(model.KeyListingCount); ok {
		return int(v.Num)
	}
	return len(sess.Snapshot)
}

// compose builds the reply, falling back to the deterministic summary when
// no responder is wired or the call fails. The fallback is also pushed
// through the stream callback so streaming clients always get content.
func (s *ChatService) compose(ctx context.Context, turnCtx *TurnContext, stream func(thinking, content string) error) string {
	if s.responder != nil {
		var reply string
		var err error
		if stream != nil {
			reply, err = s.responder.ComposeStream(ctx, turnCtx, stream)
		} else {
			reply, err = s.responder.Compose(ctx, turnCtx)
		}
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			log.Printf("reply composition failed, using fallback: %v", err)
		}
	}

	reply := FallbackSummary(turnCtx)
	if stream != nil {
		if err := stream("", reply); err != nil {
			log.Printf("stream write failed: %v", err)
		}
	}
	return reply
}

func (s *ChatService) logTurn(sessionID, message string, prefs *model.PreferenceStore, count int, took time.Duration) {
	if s.turnLog == nil {
		return
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		prefsJSON = []byte("{}")
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.turnLog.LogTurn(ctx, sessionID, message, prefsJSON, count, int(took.Milliseconds())); err != nil {
			log.Printf("turn log write failed: %v", err)
		}
	}()
}

func cloneMessages(messages []model.ChatMessage) []model.ChatMessage {
	out := make([]model.ChatMessage, len(messages))
	copy(out, messages)
	return out
}
