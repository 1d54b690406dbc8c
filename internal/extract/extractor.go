// Package extract turns a conversation transcript into a structured
// slot set. The language model does the reading; deterministic
// post-processing enforces the rules the model does not reliably
// honor (range widening, "no children" negation).
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/touraibot/tourai/internal/dialog"
	"github.com/touraibot/tourai/internal/llm"
	"github.com/touraibot/tourai/internal/session"
	"github.com/touraibot/tourai/internal/trip"
)

// ErrMalformedResponse marks an extraction reply that was not the
// required JSON object.
var ErrMalformedResponse = errors.New("extract: malformed extraction response")

const extractionTemperature = 0.1

// systemPrompt instructs the model to pull travel parameters out of a
// free-form conversation without inventing anything.
const systemPrompt = `You are an AI assistant specialized in extracting travel booking details from natural conversations.

Your task is to analyze the conversation and identify the following travel parameters:

1. departureCity - The city the user wants to depart from
2. destinationCountry - The country or destination the user wants to visit
3. nightsFrom - Minimum number of nights (integer only)
4. nightsTo - Maximum number of nights (integer only)
5. adults - Number of adults traveling (integer only)
6. children - Number of children traveling (integer only)

IMPORTANT GUIDELINES:
- Extract information ONLY when it's clearly stated or strongly implied
- For specific numbers like "7 days" or "10 nights": set both nightsFrom and nightsTo to that number
- For ranges like "7-10 nights": set nightsFrom to 7 and nightsTo to 10
- For "one week" set both values to 7, for "two weeks" set both to 14
- For "weekend trip": set nightsFrom to 2 and nightsTo to 3
- For adults/children, infer from context when possible ("We're a couple" = 2 adults, "на двоих" = 2 adults)
- Common phrases like "тур в Турцию" should be interpreted as destinationCountry: "Турция"
- If information is contradicted later in the conversation, use the most recent mention
- Recognize both formal country names and colloquial references ("ОАЭ", "Эмираты")
- ONLY extract what's actually in the conversation - do not make assumptions about missing information
- VERY IMPORTANT: when the user says "нет", "нет детей", "без детей" or similar phrases indicating no children, set children: 0 (not null)

Return ONLY a JSON object with these parameters. If a parameter cannot be determined with confidence, set it to null.
For example: {"departureCity":"Москва","destinationCountry":"Турция","nightsFrom":7,"nightsTo":10,"adults":2,"children":1}`

// payload is the nullable wire form of an extraction result.
type payload struct {
	DepartureCity      *string `json:"departureCity"`
	DestinationCountry *string `json:"destinationCountry"`
	NightsFrom         *int    `json:"nightsFrom"`
	NightsTo           *int    `json:"nightsTo"`
	Adults             *int    `json:"adults"`
	Children           *int    `json:"children"`
}

// Extractor runs extraction calls and applies the post-processing
// policy on top of the raw model output.
type Extractor struct {
	client   llm.Client
	detector dialog.IntentDetector
	logger   *slog.Logger
}

// New creates an Extractor.
func New(client llm.Client, detector dialog.IntentDetector, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, detector: detector, logger: logger}
}

// Extract reads the transcript and returns the merged slot set. The
// returned set is complete and consistent or an error is returned; the
// current slots are never partially updated.
func (e *Extractor) Extract(ctx context.Context, transcript []trip.Message, current trip.SlotSet) (trip.SlotSet, error) {
	// The bare trigger keyword at conversation start carries no travel
	// content; an extraction call would be wasted.
	if last, ok := lastUserText(transcript); ok &&
		e.detector.IsSearchTrigger(last) && len(transcript) <= 2 {
		return current, nil
	}

	noChildren := e.detector.IndicatesNoChildren(transcript)

	raw, err := e.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    toChatMessages(recentSuffix(transcript)),
		JSONMode:    true,
		Temperature: extractionTemperature,
	})
	if err != nil {
		return current, fmt.Errorf("extraction call failed: %w", err)
	}

	var p payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err != nil {
		return current, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	merged := current.Merge(toSlotSet(p))

	if noChildren && !merged.Children.Known() {
		e.logger.DebugContext(ctx, "negation override: children resolved to zero")
		merged.Children = trip.NoChildren()
	}

	merged.NightsFrom, merged.NightsTo = widenNights(merged.NightsFrom, merged.NightsTo)

	return merged, nil
}

// widenNights loosens the requested night range so the search backend
// returns more candidate offers. An exact N-night request becomes a
// 1..N+k window; an explicit range keeps its upper bound but starts
// from one night.
func widenNights(from, to int) (int, int) {
	if from <= 0 {
		return from, to
	}
	if to <= 0 {
		to = from
	}
	if from > to {
		from, to = to, from
	}

	if from == to && from > 1 {
		n := from
		switch {
		case n >= 14:
			return 1, n + 2
		case n >= 7:
			return 1, n + 1
		default:
			return 1, n + 2
		}
	}
	if from > 1 {
		return 1, to
	}
	return from, to
}

func toSlotSet(p payload) trip.SlotSet {
	var s trip.SlotSet
	if p.DepartureCity != nil {
		s.DepartureCity = strings.TrimSpace(*p.DepartureCity)
	}
	if p.DestinationCountry != nil {
		s.DestinationCountry = strings.TrimSpace(*p.DestinationCountry)
	}
	if p.NightsFrom != nil && *p.NightsFrom > 0 {
		s.NightsFrom = *p.NightsFrom
	}
	if p.NightsTo != nil && *p.NightsTo > 0 {
		s.NightsTo = *p.NightsTo
	}
	if p.Adults != nil && *p.Adults > 0 {
		s.Adults = *p.Adults
	}
	if p.Children != nil {
		s.Children = trip.Children(*p.Children)
	}
	return s
}

func toChatMessages(transcript []trip.Message) []llm.Message {
	out := make([]llm.Message, 0, len(transcript))
	for _, m := range transcript {
		role := llm.RoleUser
		if m.Role == trip.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}

func recentSuffix(transcript []trip.Message) []trip.Message {
	if len(transcript) <= session.TranscriptSuffix {
		return transcript
	}
	return transcript[len(transcript)-session.TranscriptSuffix:]
}

func lastUserText(transcript []trip.Message) (string, bool) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == trip.RoleUser {
			return transcript[i].Text, true
		}
	}
	return "", false
}
