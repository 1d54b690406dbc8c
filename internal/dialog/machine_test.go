package dialog_test

import (
	"strings"
	"testing"

	"github.com/touraibot/tourai/internal/dialog"
	"github.com/touraibot/tourai/internal/trip"
)

func newTestMachine() *dialog.Machine {
	detector := dialog.NewPatternDetector("тур", nil)
	return dialog.NewMachine(detector, dialog.WithSelector(func(int) int { return 0 }))
}

func userMsg(text string) trip.Message {
	return trip.Message{Role: trip.RoleUser, Text: text}
}

func assistantMsg(text string) trip.Message {
	return trip.Message{Role: trip.RoleAssistant, Text: text}
}

// longTranscript pads a conversation past the onboarding window.
func longTranscript(texts ...string) []trip.Message {
	msgs := []trip.Message{
		userMsg("тур"),
		assistantMsg("Отлично! Расскажите о поездке."),
		userMsg("хочу на море"),
		assistantMsg("Прекрасный выбор!"),
	}
	for _, t := range texts {
		msgs = append(msgs, userMsg(t))
	}
	return msgs
}

func TestMachine_OnboardingForFirstMessages(t *testing.T) {
	m := newTestMachine()

	advice := m.Advance([]trip.Message{userMsg("тур")}, trip.SlotSet{})
	if advice.Prompt != dialog.OnboardingPrompt {
		t.Errorf("expected onboarding prompt, got %q", advice.Prompt)
	}
	if advice.Finalize {
		t.Error("must not finalize at conversation start")
	}
}

func TestMachine_AsksInPriorityOrder(t *testing.T) {
	m := newTestMachine()
	transcript := longTranscript("подбери что-нибудь")

	tests := []struct {
		name       string
		slots      trip.SlotSet
		candidates []string
	}{
		{
			name:       "departure first",
			slots:      trip.SlotSet{},
			candidates: dialog.DeparturePrompts(),
		},
		{
			name:       "destination second",
			slots:      trip.SlotSet{DepartureCity: "Москва"},
			candidates: dialog.DestinationPrompts(),
		},
		{
			name:       "nights third",
			slots:      trip.SlotSet{DepartureCity: "Москва", DestinationCountry: "Турция"},
			candidates: dialog.NightsPrompts("Турция"),
		},
		{
			name: "adults fourth",
			slots: trip.SlotSet{
				DepartureCity: "Москва", DestinationCountry: "Турция", NightsFrom: 7,
			},
			candidates: dialog.AdultsPrompts(),
		},
		{
			name: "children last",
			slots: trip.SlotSet{
				DepartureCity: "Москва", DestinationCountry: "Турция", NightsFrom: 7, Adults: 2,
			},
			candidates: dialog.ChildrenPrompts(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advice := m.Advance(transcript, tt.slots)
			if advice.Finalize {
				t.Fatal("unexpected finalize")
			}
			found := false
			for _, c := range tt.candidates {
				if advice.Prompt == c {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("prompt %q is not among the accepted variants", advice.Prompt)
			}
		})
	}
}

func TestMachine_PromptVariantsAreUniform(t *testing.T) {
	detector := dialog.NewPatternDetector("тур", nil)
	transcript := longTranscript("подбери что-нибудь")

	seen := make(map[string]bool)
	for i := range dialog.DeparturePrompts() {
		idx := i
		m := dialog.NewMachine(detector, dialog.WithSelector(func(int) int { return idx }))
		advice := m.Advance(transcript, trip.SlotSet{})
		seen[advice.Prompt] = true
	}
	if len(seen) != len(dialog.DeparturePrompts()) {
		t.Errorf("selector must reach every variant, saw %d of %d", len(seen), len(dialog.DeparturePrompts()))
	}
}

func TestMachine_FinalizeRequiresResolvedChildren(t *testing.T) {
	m := newTestMachine()
	transcript := longTranscript("вылет из Москвы")

	complete := trip.SlotSet{
		DepartureCity:      "Москва",
		DestinationCountry: "Турция",
		NightsFrom:         7,
		Adults:             2,
		Children:           trip.NoChildren(),
	}
	if advice := m.Advance(transcript, complete); !advice.Finalize {
		t.Error("five resolved slots must finalize")
	}

	unresolved := complete
	unresolved.Children = trip.UnknownChildren()
	advice := m.Advance(transcript, unresolved)
	if advice.Finalize {
		t.Error("four of five slots must not finalize")
	}
}

func TestMachine_NoChildrenNegationResolvesInsteadOfAsking(t *testing.T) {
	m := newTestMachine()
	transcript := longTranscript("летим без детей")

	slots := trip.SlotSet{
		DepartureCity:      "Москва",
		DestinationCountry: "Турция",
		NightsFrom:         7,
		Adults:             2,
	}

	advice := m.Advance(transcript, slots)
	if !advice.ResolvedNoChildren {
		t.Fatal("negation in recent messages must resolve the children slot")
	}
	for _, q := range dialog.ChildrenPrompts() {
		if advice.Prompt == q {
			t.Fatal("must not ask the children question after a negation")
		}
	}
	if !strings.Contains(advice.Prompt, "без детей") {
		t.Errorf("expected a near-final summary, got %q", advice.Prompt)
	}
}

func TestMachine_NeverReasksChildrenOnceResolved(t *testing.T) {
	m := newTestMachine()
	transcript := longTranscript("нет детей", "а какая погода в Турции?")

	slots := trip.SlotSet{
		DepartureCity:      "Москва",
		DestinationCountry: "Турция",
		NightsFrom:         7,
		Adults:             2,
		Children:           trip.NoChildren(),
	}

	// Resolved set finalizes; the question can never reappear.
	for i := 0; i < 3; i++ {
		advice := m.Advance(transcript, slots)
		for _, q := range dialog.ChildrenPrompts() {
			if advice.Prompt == q {
				t.Fatal("children question re-asked after explicit zero")
			}
		}
	}
}

func TestMachine_AcknowledgesMultiSlotFirstMessage(t *testing.T) {
	m := newTestMachine()
	transcript := []trip.Message{
		userMsg("тур"),
		assistantMsg("Отлично! Расскажите о поездке."),
		userMsg("Хотим в Турцию вдвоем"),
	}
	slots := trip.SlotSet{DestinationCountry: "Турция", Adults: 2}

	advice := m.Advance(transcript, slots)
	if !strings.Contains(advice.Prompt, "Турция") {
		t.Errorf("acknowledgment must restate the destination, got %q", advice.Prompt)
	}
	if !strings.Contains(advice.Prompt, "город") {
		t.Errorf("acknowledgment must continue with the departure question, got %q", advice.Prompt)
	}
}

func TestPatternDetector_Trigger(t *testing.T) {
	d := dialog.NewPatternDetector("тур", nil)

	for _, text := range []string{"тур", "ТУР", "  Тур  "} {
		if !d.IsSearchTrigger(text) {
			t.Errorf("expected %q to trigger search mode", text)
		}
	}
	for _, text := range []string{"турция", "хочу тур в Египет", ""} {
		if d.IsSearchTrigger(text) {
			t.Errorf("%q must not trigger search mode", text)
		}
	}
}

func TestPatternDetector_NoChildrenScan(t *testing.T) {
	d := dialog.NewPatternDetector("тур", nil)

	tests := []struct {
		name       string
		transcript []trip.Message
		want       bool
	}{
		{
			name:       "plain negation",
			transcript: []trip.Message{userMsg("нет")},
			want:       true,
		},
		{
			name:       "without children phrase",
			transcript: []trip.Message{userMsg("едем без детей")},
			want:       true,
		},
		{
			name:       "adults only",
			transcript: []trip.Message{userMsg("только взрослые")},
			want:       true,
		},
		{
			name:       "english no kids",
			transcript: []trip.Message{userMsg("no kids please")},
			want:       true,
		},
		{
			name:       "assistant text is ignored",
			transcript: []trip.Message{assistantMsg("без детей?")},
			want:       false,
		},
		{
			name: "negation too far back",
			transcript: []trip.Message{
				userMsg("без детей"),
				userMsg("из Москвы"), userMsg("в Турцию"), userMsg("на двоих"),
				userMsg("на неделю"), userMsg("в сентябре"),
			},
			want: false,
		},
		{
			name:       "unrelated text",
			transcript: []trip.Message{userMsg("хочу на море")},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IndicatesNoChildren(tt.transcript); got != tt.want {
				t.Errorf("IndicatesNoChildren() = %v, want %v", got, tt.want)
			}
		})
	}
}
