package dialog

import (
	"fmt"
	"math/rand/v2"

	"github.com/touraibot/tourai/internal/trip"
)

// earlyMessageCount bounds the "start of conversation" window used by
// the onboarding and acknowledgment rules.
const earlyMessageCount = 2

// Advice is the state machine's decision for one turn.
type Advice struct {
	// Prompt is the next message to send. Empty when finalizing.
	Prompt string

	// Finalize reports that every slot is resolved and the caller
	// should attempt the one-time search transition.
	Finalize bool

	// ResolvedNoChildren reports that the negation re-check resolved
	// the children slot; the caller must persist the explicit zero.
	ResolvedNoChildren bool
}

// Selector picks an index in [0,n) among equivalent prompt phrasings.
type Selector func(n int) int

// Machine decides, per turn, whether to ask another question or to
// hand off to the search flow.
type Machine struct {
	detector IntentDetector
	pick     Selector
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithSelector replaces the random phrasing selector, giving tests a
// deterministic seam.
func WithSelector(pick Selector) MachineOption {
	return func(m *Machine) {
		if pick != nil {
			m.pick = pick
		}
	}
}

// NewMachine creates a state machine over the given intent detector.
func NewMachine(detector IntentDetector, opts ...MachineOption) *Machine {
	m := &Machine{
		detector: detector,
		pick:     rand.IntN,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advance inspects the transcript and slot set and returns the next
// action. It never mutates its inputs; slot changes it wants are
// reported through the Advice.
func (m *Machine) Advance(transcript []trip.Message, slots trip.SlotSet) Advice {
	if slots.Complete() {
		return Advice{Finalize: true}
	}

	// Rule 1: at the very start the individual slot state is ignored
	// in favor of one example-rich onboarding prompt.
	if len(transcript) <= earlyMessageCount {
		return Advice{Prompt: OnboardingPrompt}
	}

	// Rule 2: when one early message yielded several slots at once,
	// acknowledge what was understood before the next question.
	if prompt, ok := m.acknowledgeEarlyMessage(transcript, slots); ok {
		return Advice{Prompt: prompt}
	}

	if slots.DepartureCity == "" {
		return Advice{Prompt: m.choose(DeparturePrompts())}
	}
	if slots.DestinationCountry == "" {
		return Advice{Prompt: m.choose(DestinationPrompts())}
	}
	if slots.NightsFrom == 0 {
		return Advice{Prompt: m.choose(NightsPrompts(slots.DestinationCountry))}
	}
	if slots.Adults == 0 {
		return Advice{Prompt: m.choose(AdultsPrompts())}
	}

	if !slots.Children.Known() {
		// Re-check negation before asking: once a user has said "no
		// children" in any accepted phrasing, the question must never
		// come back.
		if m.detector.IndicatesNoChildren(transcript) {
			resolved := slots
			resolved.Children = trip.NoChildren()
			return Advice{
				Prompt:             NearFinalSummary(resolved),
				ResolvedNoChildren: true,
			}
		}
		return Advice{Prompt: m.choose(ChildrenPrompts())}
	}

	return Advice{Prompt: CompleteSummary(slots)}
}

// acknowledgeEarlyMessage handles the case where the first real
// message carried several slots: restate the understanding, then ask
// for the first missing item.
func (m *Machine) acknowledgeEarlyMessage(transcript []trip.Message, slots trip.SlotSet) (string, bool) {
	userMessages := 0
	lastUserText := ""
	for _, msg := range transcript {
		if msg.Role == trip.RoleUser {
			userMessages++
			lastUserText = msg.Text
		}
	}
	if lastUserText == "" || userMessages > earlyMessageCount {
		return "", false
	}

	inferred := 0
	if slots.DestinationCountry != "" {
		inferred++
	}
	if slots.Adults > 0 {
		inferred++
	}
	if inferred < 2 {
		return "", false
	}

	ack := fmt.Sprintf("Отлично! Я понял, что вы ищете поездку в %s для %d %s. ",
		slots.DestinationCountry, slots.Adults, adultsWord(slots.Adults))

	switch {
	case slots.DepartureCity == "":
		return ack + "Из какого города планируете вылет?", true
	case slots.NightsFrom == 0:
		return ack + fmt.Sprintf("На сколько ночей планируете поездку в %s?", slots.DestinationCountry), true
	case !slots.Children.Known():
		return ack + "Будут ли с вами дети? Если да, то сколько?", true
	}
	return "", false
}

func (m *Machine) choose(options []string) string {
	return options[m.pick(len(options))]
}
