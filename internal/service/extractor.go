package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vector-IT-Drew/Dash/internal/model"
	"github.com/Vector-IT-Drew/Dash/internal/utils"
)

// OpenAIExtractor extracts user-stated preferences from a conversation using
// an OpenAI-compatible chat completion.
type OpenAIExtractor struct {
	client *OpenAIClient
	model  string
	temp   float64
}

// NewOpenAIExtractor creates an extractor backed by the given client.
func NewOpenAIExtractor(client *OpenAIClient, modelName string, temperature float64) *OpenAIExtractor {
	return &OpenAIExtractor{client: client, model: modelName, temp: temperature}
}

var _ Extractor = (*OpenAIExtractor)(nil)

// Extract runs one extraction call and returns the raw model output. The
// caller parses and sanitizes; this layer never interprets the content.
func (e *OpenAIExtractor) Extract(ctx context.Context, history []model.ChatMessage, domain *model.ValueDomain) (string, error) {
	prompt := buildExtractionPrompt(history, domain)

	req := ChatCompletionRequest{
		Model: e.model,
		Messages: []Message{
			{Role: "system", Content: prompt},
		},
		Temperature:    e.temp,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	resp, err := e.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("extraction call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from extraction call")
	}

	return resp.Choices[0].Message.Content, nil
}

// buildExtractionPrompt renders the extraction instruction with the current
// conversation and the snapshot's observed value ranges, so the model
// constrains itself to values that actually exist.
func buildExtractionPrompt(history []model.ChatMessage, domain *model.ValueDomain) string {
	var convo strings.Builder
	for _, msg := range history {
		if msg.Role == model.RoleSystem {
			continue
		}
		fmt.Fprintf(&convo, "%s: %s\n", msg.Role, msg.Content)
	}

	var b strings.Builder
	b.WriteString(`Your goal is to take this conversation history and extract all the user's apartment preferences.

The user may change their preferences over time, so always use the most recent statement for each preference.
Only make small corrections yourself ("5k" means 5000, fix obvious misspellings, match amenities against the available options).

Return ONLY a JSON object mapping preference keys to values. Only include preferences the user EXPLICITLY stated or retracted in their most recent message.
Set a key to null when the user asks to remove or reset that preference ("remove X", "no longer want X", "don't need X", "cancel X").

PRICE VALIDATION:
- If the user's maximum_rent is below the minimum available price, DO NOT set maximum_rent.
- If the user's minimum_rent is above the maximum available price, DO NOT set minimum_rent.

BOOLEAN FEATURES VS AMENITIES:
- doorman, elevator, wheelchair_access, smoke_free, laundry_in_building, laundry_in_unit, pet_friendly, live_in_super, concierge are BOOLEAN keys.
- "I want a doorman" means doorman=true, NEVER building_amenities=["Doorman"].
- Only add entries to building_amenities when they match the amenities list below, using the EXACT case shown there.

Set "show_listings" to true ONLY when the user explicitly asks to see the listings or results ("show me the listings", "let me see the apartments", "what options do you have?"). Never set it while they are still discussing preferences.

Preference keys and types:
    beds - Number
    baths - Number
    maximum_rent - Number
    minimum_rent - Number
    borough - String
    neighborhood - String
    sqft - Number (minimum square footage)
    exposure - String (North, South, East, West, Northeast, ...)
    building_amenities - List of Strings
    doorman, elevator, wheelchair_access, smoke_free, laundry_in_unit, laundry_in_building, pet_friendly, live_in_super, concierge - Boolean
    show_listings - Boolean

`)

	fmt.Fprintf(&b, `Database overview (current listings):
    Beds: %g to %g
    Baths: %g to %g
    Price: %g to %g
    Boroughs: %s
    Neighborhoods: %s
    Exposures: %s
    Amenities (CASE SENSITIVE, USE EXACT CASE): %s

`,
		domain.MinBeds, domain.MaxBeds,
		domain.MinBaths, domain.MaxBaths,
		domain.MinRent, domain.MaxRent,
		strings.Join(domain.Boroughs, ", "),
		strings.Join(domain.Neighborhoods, ", "),
		strings.Join(domain.Exposures, ", "),
		strings.Join(domain.Amenities, ", "),
	)

	fmt.Fprintf(&b, "Conversation history:\n%s\nReturn ONLY the JSON object.", convo.String())

	return b.String()
}

// ParseDelta parses and sanitizes raw extractor output into a typed delta.
// Unknown keys are dropped silently (expected noise from a free-text
// extractor); type-mismatched values are dropped; infeasible rent bounds are
// dropped; amenity entries are canonicalized to the snapshot's casing.
// Unparseable output is an *ExtractionParseError and the caller must leave
// the preference store untouched.
func ParseDelta(raw string, domain *model.ValueDomain) (model.Delta, error) {
	var decoded map[string]interface{}
	if err := utils.ParseAIJSON(raw, &decoded); err != nil {
		return nil, &ExtractionParseError{Raw: raw, Err: err}
	}

	delta := model.Delta{}
	for rawKey, rawVal := range decoded {
		key := model.Key(strings.ToLower(strings.TrimSpace(rawKey)))
		if !model.IsVocabularyKey(key) {
			continue
		}
		// listing_count is derived, never user-stated
		if key == model.KeyListingCount {
			continue
		}

		if rawVal == nil {
			delta[key] = model.Null()
			continue
		}

		kind, _ := model.ExpectedKind(key)
		switch kind {
		case model.KindNumber:
			num, ok := rawVal.(float64)
			if !ok {
				continue
			}
			if key == model.KeyMaximumRent && num < domain.MinRent {
				continue
			}
			if key == model.KeyMinimumRent && num > domain.MaxRent {
				continue
			}
			delta[key] = model.Number(num)

		case model.KindString:
			str, ok := rawVal.(string)
			if !ok || strings.TrimSpace(str) == "" {
				continue
			}
			delta[key] = model.String(strings.TrimSpace(str))

		case model.KindBool:
			boolVal, ok := rawVal.(bool)
			if !ok {
				continue
			}
			if key == model.KeyShowListings && !boolVal {
				continue
			}
			delta[key] = model.Boolean(boolVal)

		case model.KindStringSet:
			list, ok := rawVal.([]interface{})
			if !ok {
				continue
			}
			canonical := make([]string, 0, len(list))
			for _, item := range list {
				name, ok := item.(string)
				if !ok {
					continue
				}
				// Boolean feature words never go into the amenity set.
				if featureKey, isFeature := booleanFeatureFromText(name); isFeature {
					if _, present := delta[featureKey]; !present {
						delta[featureKey] = model.Boolean(true)
					}
					continue
				}
				if exact, found := domain.CanonicalAmenity(name); found {
					canonical = append(canonical, exact)
				}
			}
			if len(canonical) > 0 {
				delta[key] = model.StringSet(canonical...)
			}
		}
	}

	return delta, nil
}

// booleanFeatureFromText resolves a free-text feature mention ("doorman",
// "laundry in unit") to its boolean preference key.
func booleanFeatureFromText(name string) (model.Key, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	key := model.Key(normalized)
	if key.IsBooleanFeatureKey() {
		return key, true
	}
	return "", false
}
