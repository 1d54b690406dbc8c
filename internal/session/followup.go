package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/touraibot/tourai/internal/trip"
)

const (
	// DefaultFollowUpDelay is how long after a delivered search the
	// re-engagement check fires.
	DefaultFollowUpDelay = time.Hour

	// followUpSendTimeout bounds the deferred send.
	followUpSendTimeout = 30 * time.Second
)

// FollowUpText is the single re-engagement prompt.
const FollowUpText = `Здравствуйте! Как вам понравились варианты туров, которые я подобрал? Возможно, у вас остались вопросы или вы хотите посмотреть другие направления? Я всегда на связи и готов помочь!`

// Sender delivers an outbound chat message.
type Sender interface {
	Send(ctx context.Context, recipient string, text string) error
}

// FollowUpScheduler arms a one-shot re-engagement message per user
// after a completed search. The check is fire-and-forget relative to
// message handling and never blocks it.
type FollowUpScheduler struct {
	store  *Store
	sender Sender
	delay  time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewFollowUpScheduler creates a scheduler over the given store and
// sender. A non-positive delay falls back to DefaultFollowUpDelay.
func NewFollowUpScheduler(store *Store, sender Sender, delay time.Duration, logger *slog.Logger) *FollowUpScheduler {
	if delay <= 0 {
		delay = DefaultFollowUpDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FollowUpScheduler{
		store:  store,
		sender: sender,
		delay:  delay,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms the re-engagement check for a user, replacing any
// previously armed one. The timestamp recorded now decides later
// whether the user has been active in the meantime: a raw flag would
// race with a newer search resetting the session.
func (f *FollowUpScheduler) Schedule(userID string) {
	mark := f.store.LastInteraction(userID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if t, ok := f.timers[userID]; ok {
		t.Stop()
	}
	f.timers[userID] = time.AfterFunc(f.delay, func() {
		f.fire(userID, mark)
	})
}

// Stop cancels all armed checks. Used on shutdown.
func (f *FollowUpScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, t := range f.timers {
		t.Stop()
		delete(f.timers, id)
	}
}

func (f *FollowUpScheduler) fire(userID string, mark time.Time) {
	f.mu.Lock()
	delete(f.timers, userID)
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return
	}

	// Any interaction after scheduling means the user came back; a
	// newer completed search re-arms its own check.
	last := f.store.LastInteraction(userID)
	if last.IsZero() || last.After(mark) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), followUpSendTimeout)
	defer cancel()

	if err := f.sender.Send(ctx, userID, FollowUpText); err != nil {
		f.logger.WarnContext(ctx, "follow-up send failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return
	}

	f.store.Touch(userID)
	f.store.Append(userID, trip.Message{Role: trip.RoleAssistant, Text: FollowUpText})
}
