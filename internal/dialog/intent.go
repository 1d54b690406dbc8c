// Package dialog implements the slot-filling state machine: deciding
// the next question to ask, detecting search intent and "no children"
// phrasing, and finalizing exactly once when enough is known.
package dialog

import (
	"regexp"
	"strings"

	"github.com/touraibot/tourai/internal/trip"
)

// noChildrenScanDepth is how many trailing user messages the negation
// scan considers.
const noChildrenScanDepth = 5

// IntentDetector recognizes conversational intents from raw text. The
// phrase sets are configuration, not logic, so a locale swap never
// touches the state machine.
type IntentDetector interface {
	// IsSearchTrigger reports whether text is the search-mode keyword.
	IsSearchTrigger(text string) bool

	// IndicatesNoChildren reports whether the recent user messages
	// contain a "travelling without children" statement.
	IndicatesNoChildren(transcript []trip.Message) bool
}

// DefaultNoChildrenPatterns match the ways users say "no children".
// The list mirrors production traffic: mostly Russian with the common
// English phrasings users mix in.
var DefaultNoChildrenPatterns = []string{
	`нет`,
	`не[тй]`,
	`без дет`,
	`не будет дет`,
	`0 дет`,
	`ноль дет`,
	`только взрослы`,
	`no kids`,
	`no children`,
	`adults only`,
	`\bnone\b`,
}

// PatternDetector implements IntentDetector with a trigger keyword and
// a set of case-insensitive negation patterns.
type PatternDetector struct {
	trigger    string
	noChildren []*regexp.Regexp
}

// NewPatternDetector compiles a detector. Invalid patterns are
// skipped; an empty pattern list falls back to the defaults.
func NewPatternDetector(trigger string, patterns []string) *PatternDetector {
	if len(patterns) == 0 {
		patterns = DefaultNoChildrenPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return &PatternDetector{
		trigger:    strings.ToLower(strings.TrimSpace(trigger)),
		noChildren: compiled,
	}
}

// IsSearchTrigger implements IntentDetector.
func (d *PatternDetector) IsSearchTrigger(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == d.trigger
}

// IndicatesNoChildren implements IntentDetector.
func (d *PatternDetector) IndicatesNoChildren(transcript []trip.Message) bool {
	scanned := 0
	for i := len(transcript) - 1; i >= 0 && scanned < noChildrenScanDepth; i-- {
		if transcript[i].Role != trip.RoleUser {
			continue
		}
		scanned++
		for _, re := range d.noChildren {
			if re.MatchString(transcript[i].Text) {
				return true
			}
		}
	}
	return false
}
