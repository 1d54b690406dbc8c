// Package bot is the conversational core: it routes every incoming
// WhatsApp message to the greeting, the slot-filling search flow or the
// free-form sales chat, and hands finalized requests to the search layer.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/touraibot/tourai/internal/config"
	"github.com/touraibot/tourai/internal/dialog"
	"github.com/touraibot/tourai/internal/extract"
	"github.com/touraibot/tourai/internal/llm"
	"github.com/touraibot/tourai/internal/search"
	"github.com/touraibot/tourai/internal/session"
	"github.com/touraibot/tourai/internal/trip"
	"github.com/touraibot/tourai/internal/whatsapp"
)

const (
	// upsellMinMessages is how long a casual conversation must run
	// before the bot may pitch a tour search.
	upsellMinMessages = 6
	// upsellScanDepth is how many trailing messages are checked for an
	// earlier pitch before adding another one.
	upsellScanDepth = 6

	casualTemperature = 0.7
	teaserMaxTokens   = 100
)

// upsellMarkers flag assistant messages that already steer the user
// toward a search, so the pitch is not repeated back to back.
var upsellMarkers = []string{"тур", "поиск", "забронировать"}

// Searcher runs a finalized tour request end to end.
type Searcher interface {
	Run(ctx context.Context, userID string, slots trip.SlotSet) search.Outcome
}

// FollowUps schedules the post-search nudge for a user.
type FollowUps interface {
	Schedule(userID string)
}

// TourAccount is implemented by clients whose credentials can be swapped
// at runtime, such as the Tourvisor client.
type TourAccount interface {
	Reconfigure(login, password, baseURL string)
}

// Handler processes incoming messages for all users.
type Handler struct {
	store     *session.Store
	messenger whatsapp.Messenger
	searcher  Searcher
	followUps FollowUps
	logger    *slog.Logger
	random    func() float64
	selector  dialog.Selector
	tours     TourAccount

	mu        sync.RWMutex
	client    llm.Client
	settings  config.Settings
	detector  dialog.IntentDetector
	machine   *dialog.Machine
	extractor *extract.Extractor
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithRandom overrides the randomness source used for the upsell coin
// flip, for tests.
func WithRandom(r func() float64) Option {
	return func(h *Handler) { h.random = r }
}

// WithSelector overrides prompt variant selection, for tests.
func WithSelector(s dialog.Selector) Option {
	return func(h *Handler) { h.selector = s }
}

// WithTourAccount registers a client to reconfigure when settings change.
func WithTourAccount(t TourAccount) Option {
	return func(h *Handler) { h.tours = t }
}

// New builds a Handler wired to the given collaborators.
func New(client llm.Client, store *session.Store, messenger whatsapp.Messenger,
	searcher Searcher, followUps FollowUps, settings config.Settings, opts ...Option) *Handler {
	h := &Handler{
		store:     store,
		messenger: messenger,
		searcher:  searcher,
		followUps: followUps,
		logger:    slog.Default(),
		random:    rand.Float64,
		client:    client,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.apply(settings)
	return h
}

// apply rebuilds everything derived from the settings. Callers hold no
// lock; apply takes it.
func (h *Handler) apply(settings config.Settings) {
	detector := dialog.NewPatternDetector(settings.TriggerKeyword, nil)

	var machineOpts []dialog.MachineOption
	if h.selector != nil {
		machineOpts = append(machineOpts, dialog.WithSelector(h.selector))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings = settings
	h.detector = detector
	h.machine = dialog.NewMachine(detector, machineOpts...)
	h.extractor = extract.New(h.client, detector, h.logger)
}

// UpdateSettings applies new settings to every component the handler
// owns: the LLM client, the trigger detector and the tour account.
func (h *Handler) UpdateSettings(settings config.Settings) {
	h.mu.RLock()
	client := h.client
	h.mu.RUnlock()

	if rc, ok := client.(interface{ Reconfigure(apiKey, model string) }); ok {
		rc.Reconfigure(settings.OpenAIKey, settings.OpenAIModel)
	}
	if h.tours != nil {
		h.tours.Reconfigure(settings.TourvisorLogin, settings.TourvisorPassword, settings.TourvisorBaseURL)
	}

	h.apply(settings)
	h.logger.Info("settings applied", "trigger", settings.TriggerKeyword)
}

// Settings returns the currently active settings.
func (h *Handler) Settings() config.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

func (h *Handler) components() (llm.Client, dialog.IntentDetector, *dialog.Machine, *extract.Extractor, config.Settings) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client, h.detector, h.machine, h.extractor, h.settings
}

// HandleMessage processes one incoming message. Messages from the bot's
// own account are ignored.
func (h *Handler) HandleMessage(ctx context.Context, msg whatsapp.IncomingMessage) error {
	if msg.FromSelf {
		return nil
	}
	userID := msg.From
	h.logger.Info("message received", "user_id", userID, "length", len(msg.Text))

	_, created := h.store.GetOrCreate(userID)
	if created {
		// First contact gets the greeting; the message itself is not
		// interpreted further.
		h.reply(ctx, userID, greetingText)
		return nil
	}

	h.store.Touch(userID)
	h.store.Append(userID, trip.Message{Role: trip.RoleUser, Text: msg.Text})

	_, detector, _, _, _ := h.components()
	sess, _ := h.store.Get(userID)

	switch {
	case detector.IsSearchTrigger(msg.Text):
		h.store.SetSearching(userID, true)
		h.reply(ctx, userID, openingText)
	case sess.Searching:
		h.continueSearch(ctx, userID)
	default:
		h.casualChat(ctx, userID)
	}
	return nil
}

func (h *Handler) continueSearch(ctx context.Context, userID string) {
	_, _, machine, extractor, _ := h.components()
	sess, ok := h.store.Get(userID)
	if !ok {
		return
	}

	slots, err := extractor.Extract(ctx, sess.Transcript, sess.Slots)
	if err != nil {
		h.logger.Error("slot extraction failed", "user_id", userID, "error", err)
		if errors.Is(err, llm.ErrNoAPIKey) || llm.IsAuthError(err) {
			h.reply(ctx, userID, missingAPIKeyText)
		} else {
			h.reply(ctx, userID, extractionFailureText)
		}
		h.store.Reset(userID)
		return
	}
	h.store.SetSlots(userID, slots)

	if slots.Complete() {
		h.finalize(ctx, userID, slots, true)
		return
	}

	advice := machine.Advance(sess.Transcript, slots)
	switch {
	case advice.ResolvedNoChildren:
		// The negation answered the last open question; deliver the
		// recap and move straight to the search.
		h.store.SetChildrenNone(userID)
		h.reply(ctx, userID, advice.Prompt)
		slots.Children = trip.NoChildren()
		if slots.Complete() {
			h.finalize(ctx, userID, slots, false)
		}
	case advice.Finalize:
		h.finalize(ctx, userID, slots, true)
	default:
		h.reply(ctx, userID, advice.Prompt)
	}
}

// finalize runs the search exactly once per collected slot set. The
// withSummary flag suppresses the recap when one was just sent.
func (h *Handler) finalize(ctx context.Context, userID string, slots trip.SlotSet, withSummary bool) {
	if !h.store.TryFinalize(userID) {
		h.logger.Debug("search already finalized", "user_id", userID)
		return
	}

	if withSummary {
		h.reply(ctx, userID, finalSummary(slots))
	}
	h.sendTeaser(ctx, userID, slots.DestinationCountry)

	outcome := h.searcher.Run(ctx, userID, slots)
	h.logger.Info("search finished", "user_id", userID, "outcome", outcome)

	// Whatever the outcome, the slate is wiped so the user can start a
	// new search, and the nudge timer starts ticking.
	h.followUps.Schedule(userID)
	h.store.Reset(userID)
}

func (h *Handler) sendTeaser(ctx context.Context, userID, country string) {
	if teaser, ok := destinationTeasers[country]; ok {
		h.reply(ctx, userID, teaser)
		return
	}

	client, _, _, _, _ := h.components()
	teaser, err := client.Complete(ctx, llm.Request{
		System: "Ты - копирайтер туристического агентства.",
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: "Создай короткое (1-2 предложения) и привлекательное описание страны " + country +
				" как туристического направления. Используй эмодзи в начале, подчеркни уникальные особенности, " +
				"которые делают это место особенным для туристов. Сделай текст энтузиастичным, но не перехваливай " +
				"и не используй клише. Фокусируйся на реальных преимуществах.",
		}},
		MaxTokens: teaserMaxTokens,
	})
	if err != nil || strings.TrimSpace(teaser) == "" {
		teaser = genericTeaser(country)
	}
	h.reply(ctx, userID, teaser)
}

func (h *Handler) casualChat(ctx context.Context, userID string) {
	h.store.SetEngaged(userID)
	client, _, _, _, settings := h.components()

	transcript := h.store.RecentTranscript(userID, session.TranscriptSuffix)
	messages := make([]llm.Message, 0, len(transcript))
	for _, m := range transcript {
		role := llm.RoleUser
		if m.Role == trip.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Text})
	}

	response, err := client.Complete(ctx, llm.Request{
		System:      settings.SystemPrompt + casualGuidance,
		Messages:    messages,
		Temperature: casualTemperature,
	})
	if err != nil {
		h.logger.Error("casual reply failed", "user_id", userID, "error", err)
		if errors.Is(err, llm.ErrNoAPIKey) || llm.IsAuthError(err) {
			h.reply(ctx, userID, missingAPIKeyText)
		} else {
			h.reply(ctx, userID, casualFailureText)
		}
		return
	}
	h.reply(ctx, userID, response)

	h.maybeUpsell(ctx, userID)
}

func (h *Handler) maybeUpsell(ctx context.Context, userID string) {
	sess, ok := h.store.Get(userID)
	if !ok || !sess.HasEngaged || len(sess.Transcript) < upsellMinMessages {
		return
	}
	if h.recentlyPitched(sess.Transcript) {
		return
	}
	if h.random() > 0.5 {
		return
	}
	h.reply(ctx, userID, upsellText)
}

func (h *Handler) recentlyPitched(transcript []trip.Message) bool {
	start := len(transcript) - upsellScanDepth
	if start < 0 {
		start = 0
	}
	for _, m := range transcript[start:] {
		if m.Role != trip.RoleAssistant {
			continue
		}
		lower := strings.ToLower(m.Text)
		for _, marker := range upsellMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// reply sends text and records it in the transcript. Delivery failures
// are logged; the conversation state still advances.
func (h *Handler) reply(ctx context.Context, userID, text string) {
	if err := h.messenger.Send(ctx, userID, text); err != nil {
		h.logger.Error("sending reply failed", "user_id", userID, "error", err)
	}
	h.store.Append(userID, trip.Message{Role: trip.RoleAssistant, Text: text})
}
