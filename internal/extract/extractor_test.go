package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/touraibot/tourai/internal/dialog"
	"github.com/touraibot/tourai/internal/extract"
	"github.com/touraibot/tourai/internal/llm"
	"github.com/touraibot/tourai/internal/trip"
)

func newExtractor(client llm.Client) *extract.Extractor {
	return extract.New(client, dialog.NewPatternDetector("тур", nil), nil)
}

func transcriptOf(texts ...string) []trip.Message {
	msgs := make([]trip.Message, 0, len(texts))
	for i, t := range texts {
		role := trip.RoleUser
		if i%2 == 1 {
			role = trip.RoleAssistant
		}
		msgs = append(msgs, trip.Message{Role: role, Text: t})
	}
	return msgs
}

func TestExtract_NightWideningTiers(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantFrom int
		wantTo   int
	}{
		{
			name:     "week widens to 1-8",
			response: `{"departureCity":null,"destinationCountry":null,"nightsFrom":7,"nightsTo":7,"adults":null,"children":null}`,
			wantFrom: 1,
			wantTo:   8,
		},
		{
			name:     "two weeks widens to 1-16",
			response: `{"nightsFrom":14,"nightsTo":14}`,
			wantFrom: 1,
			wantTo:   16,
		},
		{
			name:     "short stay widens to 1-5",
			response: `{"nightsFrom":3,"nightsTo":3}`,
			wantFrom: 1,
			wantTo:   5,
		},
		{
			name:     "explicit range clamps lower bound only",
			response: `{"nightsFrom":5,"nightsTo":10}`,
			wantFrom: 1,
			wantTo:   10,
		},
		{
			name:     "single night stays single",
			response: `{"nightsFrom":1,"nightsTo":1}`,
			wantFrom: 1,
			wantTo:   1,
		},
		{
			name:     "missing upper bound treated as exact",
			response: `{"nightsFrom":7}`,
			wantFrom: 1,
			wantTo:   8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewScripted().Fallback(tt.response)
			e := newExtractor(client)

			got, err := e.Extract(context.Background(),
				transcriptOf("тур", "Куда поедем?", "на неделю"), trip.SlotSet{})
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if got.NightsFrom != tt.wantFrom || got.NightsTo != tt.wantTo {
				t.Errorf("nights = %d-%d, want %d-%d",
					got.NightsFrom, got.NightsTo, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestExtract_NoChildrenOverridesNullResult(t *testing.T) {
	// The model returned null children even though the user just said
	// "без детей"; the deterministic pass must force zero.
	client := llm.NewScripted().Fallback(
		`{"departureCity":"Москва","destinationCountry":"Турция","nightsFrom":7,"nightsTo":7,"adults":2,"children":null}`)
	e := newExtractor(client)

	got, err := e.Extract(context.Background(),
		transcriptOf("тур", "Куда поедем?", "в Турцию из Москвы на неделю вдвоем без детей"),
		trip.SlotSet{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !got.Children.Known() || got.Children.Count() != 0 {
		t.Errorf("children = %+v, want explicit zero", got.Children)
	}
	if !got.Complete() {
		t.Errorf("expected a complete slot set, got %d/5", got.CollectedCount())
	}
}

func TestExtract_ExplicitChildCountWins(t *testing.T) {
	client := llm.NewScripted().Fallback(`{"children":2}`)
	e := newExtractor(client)

	got, err := e.Extract(context.Background(),
		transcriptOf("тур", "Дети?", "двое детей"), trip.SlotSet{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got.Children.Count() != 2 {
		t.Errorf("children = %d, want 2", got.Children.Count())
	}
}

func TestExtract_TriggerOnlySkipsCall(t *testing.T) {
	client := llm.NewScripted().FallbackError(errors.New("should not be called"))
	e := newExtractor(client)

	current := trip.SlotSet{}
	got, err := e.Extract(context.Background(),
		[]trip.Message{{Role: trip.RoleUser, Text: "тур"}}, current)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got != current {
		t.Errorf("slots changed on bare trigger: %+v", got)
	}
	if client.CallCount() != 0 {
		t.Errorf("expected no extraction call, got %d", client.CallCount())
	}
}

func TestExtract_MalformedJSONSurfacesError(t *testing.T) {
	client := llm.NewScripted().Fallback(`I would love to help you plan a trip!`)
	e := newExtractor(client)

	current := trip.SlotSet{DepartureCity: "Москва"}
	got, err := e.Extract(context.Background(),
		transcriptOf("тур", "Куда поедем?", "в Турцию"), current)
	if !errors.Is(err, extract.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if got != current {
		t.Error("slots must stay untouched on a malformed response")
	}
}

func TestExtract_CallFailurePreservesSlots(t *testing.T) {
	callErr := errors.New("rate limited")
	client := llm.NewScripted().FallbackError(callErr)
	e := newExtractor(client)

	current := trip.SlotSet{DepartureCity: "Москва", Adults: 2}
	got, err := e.Extract(context.Background(),
		transcriptOf("тур", "Куда поедем?", "в Турцию"), current)
	if !errors.Is(err, callErr) {
		t.Fatalf("expected wrapped call error, got %v", err)
	}
	if got != current {
		t.Error("slots must stay untouched on a failed call")
	}
}

func TestExtract_MergeKeepsEarlierSlots(t *testing.T) {
	client := llm.NewScripted().Fallback(`{"adults":2}`)
	e := newExtractor(client)

	current := trip.SlotSet{DepartureCity: "Москва", DestinationCountry: "Турция"}
	got, err := e.Extract(context.Background(),
		transcriptOf("тур", "Сколько взрослых?", "двое"), current)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got.DepartureCity != "Москва" || got.DestinationCountry != "Турция" {
		t.Errorf("earlier slots lost: %+v", got)
	}
	if got.Adults != 2 {
		t.Errorf("adults = %d, want 2", got.Adults)
	}
}
