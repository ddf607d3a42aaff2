package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

// OpenAIResponder composes assistant replies with an OpenAI-compatible chat
// completion. The controller swaps in FallbackSummary when the call fails.
type OpenAIResponder struct {
	client    *OpenAIClient
	model     string
	temp      float64
	maxTokens int
}

// NewOpenAIResponder creates a responder backed by the given client.
func NewOpenAIResponder(client *OpenAIClient, modelName string, temperature float64, maxTokens int) *OpenAIResponder {
	return &OpenAIResponder{client: client, model: modelName, temp: temperature, maxTokens: maxTokens}
}

var _ Responder = (*OpenAIResponder)(nil)

func (r *OpenAIResponder) Compose(ctx context.Context, turn *TurnContext) (string, error) {
	resp, err := r.client.ChatCompletion(ctx, r.buildRequest(turn, false))
	if err != nil {
		return "", fmt.Errorf("reply composition failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from composition call")
	}
	return resp.Choices[0].Message.Content, nil
}

func (r *OpenAIResponder) ComposeStream(ctx context.Context, turn *TurnContext, callback func(thinking, content string) error) (string, error) {
	var full strings.Builder
	err := r.client.ChatCompletionStream(ctx, r.buildRequest(turn, true), func(chunk *StreamChunk) error {
		if chunk == nil {
			return nil
		}
		// Reasoning models emit thinking separately; it streams to the
		// client but never becomes part of the saved reply.
		if chunk.ThinkingContent != "" {
			if err := callback(chunk.ThinkingContent, ""); err != nil {
				return err
			}
		}
		if chunk.Content == "" {
			return nil
		}
		full.WriteString(chunk.Content)
		return callback("", chunk.Content)
	})
	if err != nil {
		return "", fmt.Errorf("streamed reply composition failed: %w", err)
	}
	return full.String(), nil
}

func (r *OpenAIResponder) buildRequest(turn *TurnContext, stream bool) ChatCompletionRequest {
	messages := make([]Message, 0, len(turn.History)+1)
	messages = append(messages, Message{Role: model.RoleSystem, Content: buildResponderPrompt(turn)})
	for _, msg := range turn.History {
		if msg.Role == model.RoleSystem {
			continue
		}
		messages = append(messages, Message{Role: msg.Role, Content: msg.Content})
	}
	return ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: r.temp,
		MaxTokens:   r.maxTokens,
		Stream:      stream,
	}
}

// buildResponderPrompt renders the system context: role, accepted
// preferences, the post-filter value domain (so the assistant only offers
// options that still exist), evictions to explain, and steering based on how
// many listings remain.
func buildResponderPrompt(turn *TurnContext) string {
	var b strings.Builder

	b.WriteString(`You are a friendly NYC apartment search assistant. You help the user narrow down listings by asking about their preferences one or two at a time.

Rules:
- Be concise and conversational. No markdown headers or bullet walls.
- Only offer options that actually exist in the data below. Never invent listings, prices, or neighborhoods.
- Never mention databases, filters, or internal mechanics.
`)

	prefsJSON, err := json.Marshal(turn.Preferences)
	if err != nil || turn.Preferences == nil || turn.Preferences.Len() == 0 {
		b.WriteString("\nThe user has not stated any preferences yet. Welcome them and ask an opening question.\n")
	} else {
		fmt.Fprintf(&b, "\nPreferences so far: %s\n", prefsJSON)
	}

	fmt.Fprintf(&b, "\n%d listings currently match.\n", turn.ListingCount)

	if d := turn.Domain; d != nil && d.Count > 0 {
		fmt.Fprintf(&b, `
Remaining options across the matching listings:
    Beds: %g to %g
    Baths: %g to %g
    Price: $%g to $%g
    Boroughs: %s
    Neighborhoods: %s
    Exposures: %s
    Amenities: %s
`,
			d.MinBeds, d.MaxBeds,
			d.MinBaths, d.MaxBaths,
			d.MinRent, d.MaxRent,
			strings.Join(d.Boroughs, ", "),
			strings.Join(d.Neighborhoods, ", "),
			strings.Join(d.Exposures, ", "),
			strings.Join(d.Amenities, ", "),
		)
		if all := featureNames(d.FeatureAll); len(all) > 0 {
			fmt.Fprintf(&b, "    Features every match has: %s\n", strings.Join(all, ", "))
		}
		if some := partialFeatureNames(d); len(some) > 0 {
			fmt.Fprintf(&b, "    Features only some matches have (good follow-up questions): %s\n", strings.Join(some, ", "))
		}
	}

	if len(turn.Evictions) > 0 {
		b.WriteString("\nSome requests could not be satisfied and were set aside. Explain each one gently and suggest what IS available:\n")
		for _, ev := range turn.Evictions {
			fmt.Fprintf(&b, "- %s\n", ev.Reason)
		}
		if fd := turn.FullDomain; fd != nil && fd.Count > 0 {
			fmt.Fprintf(&b, "For context, the full inventory before their filters spans $%g to $%g and %g to %g bedrooms across %s.\n",
				fd.MinRent, fd.MaxRent, fd.MinBeds, fd.MaxBeds, strings.Join(fd.Boroughs, ", "))
		}
	}

	if turn.NarrowDown {
		b.WriteString("\nThere are still too many matches to show. Ask a follow-up question that would narrow them down, using the remaining options above.\n")
	}

	if turn.DetailContext != "" {
		fmt.Fprintf(&b, "\nDetails of the matching listings (for answering questions, do not dump verbatim):\n%s\n", turn.DetailContext)
	}

	return b.String()
}

// featureNames lists the boolean features marked true in the given map, in
// vocabulary order, with readable names.
func featureNames(set map[model.Key]bool) []string {
	var out []string
	for _, k := range model.BooleanFeatureKeys {
		if set[k] {
			out = append(out, strings.ReplaceAll(string(k), "_", " "))
		}
	}
	return out
}

// partialFeatureNames lists features present in some but not all matches,
// the ones worth asking about to narrow down.
func partialFeatureNames(d *model.ValueDomain) []string {
	var out []string
	for _, k := range model.BooleanFeatureKeys {
		if d.FeatureSome[k] && !d.FeatureAll[k] {
			out = append(out, strings.ReplaceAll(string(k), "_", " "))
		}
	}
	return out
}

// BuildDetailContext renders compact per-listing lines for the prompt when
// few matches remain.
func BuildDetailContext(listings []model.ListingRecord) string {
	var b strings.Builder
	for _, l := range listings {
		fmt.Fprintf(&b, "- %s #%s: %g bed / %g bath, $%g/mo, %s (%s)",
			l.Address, l.Unit, l.Beds, l.Baths, l.ActualRent, l.Neighborhood, l.Borough)
		if l.Sqft != nil {
			fmt.Fprintf(&b, ", %g sqft", *l.Sqft)
		}
		if len(l.BuildingAmenities) > 0 {
			fmt.Fprintf(&b, ", amenities: %s", strings.Join(l.BuildingAmenities, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FallbackSummary is the deterministic reply used when no language model is
// configured or the composition call fails. It still explains evictions and
// keeps the conversation moving.
func FallbackSummary(turn *TurnContext) string {
	var b strings.Builder

	for _, ev := range turn.Evictions {
		b.WriteString(ev.Reason)
		b.WriteString(" ")
	}

	switch {
	case turn.ListingCount == 0:
		b.WriteString("I couldn't find any matching listings right now.")
	case turn.ListingCount == 1:
		b.WriteString("I found 1 listing that matches what you're looking for.")
	default:
		fmt.Fprintf(&b, "I found %d listings that match so far.", turn.ListingCount)
	}

	if turn.NarrowDown && turn.Domain != nil {
		if len(turn.Domain.Neighborhoods) > 1 {
			fmt.Fprintf(&b, " Would you like to focus on a neighborhood? Options include %s.",
				strings.Join(firstN(turn.Domain.Neighborhoods, 5), ", "))
		} else {
			fmt.Fprintf(&b, " Tell me more about what you're looking for, like a budget or bedroom count, and I'll narrow it down.")
		}
	} else if turn.ListingCount > 0 {
		b.WriteString(" Say \"show me the listings\" whenever you want to see them.")
	}

	return strings.TrimSpace(b.String())
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
