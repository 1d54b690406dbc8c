// Package session holds the per-user conversation state: transcript,
// slot values and the search-lifecycle flags. All state is process
// local; a restart discards it.
package session

import (
	"sync"
	"time"

	"github.com/touraibot/tourai/internal/trip"
)

// TranscriptSuffix is the number of recent messages handed to the
// extraction and conversation calls.
const TranscriptSuffix = 10

// Session is a read-only snapshot of one user's conversation state.
type Session struct {
	UserID          string
	Transcript      []trip.Message
	Slots           trip.SlotSet
	Searching       bool
	SearchFinalized bool
	LastInteraction time.Time
	HasEngaged      bool
}

// record is the mutable store-internal form of a session.
type record struct {
	transcript      []trip.Message
	slots           trip.SlotSet
	searching       bool
	searchFinalized bool
	lastInteraction time.Time
	hasEngaged      bool
}

// Store keeps one session record per user identifier.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*record
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*record),
		now:      time.Now,
	}
}

// GetOrCreate returns a snapshot of the user's session, creating it on
// first contact. The second return value reports whether the session
// was just created.
func (s *Store) GetOrCreate(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[userID]
	if !ok {
		rec = &record{lastInteraction: s.now()}
		s.sessions[userID] = rec
		return s.snapshot(userID, rec), true
	}
	return s.snapshot(userID, rec), false
}

// Get returns a snapshot of an existing session.
func (s *Store) Get(userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return s.snapshot(userID, rec), true
}

// Append adds a message to the user's transcript.
func (s *Store) Append(userID string, msg trip.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[userID]; ok {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = s.now()
		}
		rec.transcript = append(rec.transcript, msg)
	}
}

// RecentTranscript returns at most n trailing transcript messages.
func (s *Store) RecentTranscript(userID string, n int) []trip.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	start := len(rec.transcript) - n
	if start < 0 {
		start = 0
	}
	out := make([]trip.Message, len(rec.transcript)-start)
	copy(out, rec.transcript[start:])
	return out
}

// Slots returns the user's current slot set.
func (s *Store) Slots(userID string) trip.SlotSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.sessions[userID]; ok {
		return rec.slots
	}
	return trip.SlotSet{}
}

// SetSlots replaces the user's slot set. Callers merge first and
// replace once, so a failed extraction never leaves a half-applied
// update behind.
func (s *Store) SetSlots(userID string, slots trip.SlotSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[userID]; ok {
		rec.slots = slots
	}
}

// SetChildrenNone resolves the children slot to an explicit zero.
func (s *Store) SetChildrenNone(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[userID]; ok {
		rec.slots.Children = trip.NoChildren()
	}
}

// SetSearching flips the slot-filling mode flag.
func (s *Store) SetSearching(userID string, searching bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[userID]; ok {
		rec.searching = searching
	}
}

// SetEngaged records that casual conversation has occurred.
func (s *Store) SetEngaged(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[userID]; ok {
		rec.hasEngaged = true
	}
}

// TryFinalize performs the one-time transition into search submission.
// It returns true exactly once per session life, so duplicate inbound
// deliveries of the completing message cannot submit two searches.
func (s *Store) TryFinalize(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[userID]
	if !ok || rec.searchFinalized {
		return false
	}
	rec.searchFinalized = true
	return true
}

// Touch updates the user's last-interaction timestamp.
func (s *Store) Touch(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[userID]; ok {
		rec.lastInteraction = s.now()
	}
}

// LastInteraction returns the user's last-interaction timestamp.
func (s *Store) LastInteraction(userID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.sessions[userID]; ok {
		return rec.lastInteraction
	}
	return time.Time{}
}

// Reset clears slots and search flags after a completed search or an
// unrecoverable error. The transcript and engagement flag survive so
// the conversation keeps its context.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[userID]
	if !ok {
		return
	}
	rec.slots = trip.SlotSet{}
	rec.searching = false
	rec.searchFinalized = false
}

func (s *Store) snapshot(userID string, rec *record) Session {
	transcript := make([]trip.Message, len(rec.transcript))
	copy(transcript, rec.transcript)
	return Session{
		UserID:          userID,
		Transcript:      transcript,
		Slots:           rec.slots,
		Searching:       rec.searching,
		SearchFinalized: rec.searchFinalized,
		LastInteraction: rec.lastInteraction,
		HasEngaged:      rec.hasEngaged,
	}
}
