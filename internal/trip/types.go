// Package trip defines the travel-search domain types shared by the
// extraction, dialog and search packages.
package trip

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser marks a message written by the chat participant.
	RoleUser Role = "user"

	// RoleAssistant marks a message written by the bot.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	Timestamp time.Time
	Role      Role
	Text      string
}

// ChildCount distinguishes "not yet known" from an explicit zero.
// A plain int cannot express that difference, and the difference is
// load-bearing: zero children is a resolved answer, not a missing one.
type ChildCount struct {
	n     int
	known bool
}

// UnknownChildren returns the unresolved child count.
func UnknownChildren() ChildCount {
	return ChildCount{}
}

// NoChildren returns the explicit "travelling without children" count.
func NoChildren() ChildCount {
	return ChildCount{known: true}
}

// Children returns a resolved child count of n. Negative counts are
// normalized to zero.
func Children(n int) ChildCount {
	if n < 0 {
		n = 0
	}
	return ChildCount{n: n, known: true}
}

// Known reports whether the count has been resolved, including an
// explicit zero.
func (c ChildCount) Known() bool {
	return c.known
}

// Count returns the resolved count. Only meaningful when Known is true.
func (c ChildCount) Count() int {
	return c.n
}

// SlotSet holds the six structured fields collected from conversation.
// String fields are empty and int fields are zero until resolved;
// Children carries its own resolved/unresolved state.
type SlotSet struct {
	DepartureCity      string
	DestinationCountry string
	NightsFrom         int
	NightsTo           int
	Adults             int
	Children           ChildCount
}

// CollectedCount returns how many of the five decision-relevant slots
// are resolved. NightsTo is derived from NightsFrom and does not count
// separately. Children counts only when explicitly resolved.
func (s SlotSet) CollectedCount() int {
	count := 0
	if s.DepartureCity != "" {
		count++
	}
	if s.DestinationCountry != "" {
		count++
	}
	if s.NightsFrom > 0 {
		count++
	}
	if s.Adults > 0 {
		count++
	}
	if s.Children.Known() {
		count++
	}
	return count
}

// Complete reports whether enough slots are resolved to run a search.
func (s SlotSet) Complete() bool {
	return s.CollectedCount() >= 5
}

// Merge overlays resolved fields of other onto s and returns the
// result. Unresolved fields in other never erase resolved fields in s.
func (s SlotSet) Merge(other SlotSet) SlotSet {
	out := s
	if other.DepartureCity != "" {
		out.DepartureCity = other.DepartureCity
	}
	if other.DestinationCountry != "" {
		out.DestinationCountry = other.DestinationCountry
	}
	if other.NightsFrom > 0 {
		out.NightsFrom = other.NightsFrom
	}
	if other.NightsTo > 0 {
		out.NightsTo = other.NightsTo
	}
	if other.Adults > 0 {
		out.Adults = other.Adults
	}
	if other.Children.Known() {
		out.Children = other.Children
	}
	return out
}
