// Package search runs a finalized tour request end to end: it resolves
// place names to API IDs, registers the search, waits for the engine,
// ranks what came back and delivers the offers to the user.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/touraibot/tourai/internal/location"
	"github.com/touraibot/tourai/internal/tourvisor"
	"github.com/touraibot/tourai/internal/trip"
)

const (
	// MaxOffers caps how many hotels one search delivers to the user.
	MaxOffers = 5

	defaultPollDelay    = 5 * time.Second
	defaultMessageDelay = time.Second

	dateFromOffset = 24 * time.Hour
	dateToOffset   = 30 * 24 * time.Hour
)

// Outcome describes how a search run ended.
type Outcome int

const (
	// OutcomeDelivered means offers reached the user.
	OutcomeDelivered Outcome = iota
	// OutcomeNoResults means the search finished empty-handed.
	OutcomeNoResults
	// OutcomePending means the engine was still working when we polled.
	OutcomePending
	// OutcomeFailed means an API call failed along the way.
	OutcomeFailed
)

// TourAPI is the slice of the Tourvisor client the orchestrator uses.
type TourAPI interface {
	SubmitSearch(ctx context.Context, params tourvisor.SearchParams) (string, error)
	FetchResults(ctx context.Context, requestID string) (*tourvisor.Results, error)
}

// Sender delivers outgoing messages to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// Orchestrator drives one search from slot set to delivered offers.
type Orchestrator struct {
	api      TourAPI
	resolver *location.Resolver
	sender   Sender
	logger   *slog.Logger

	pollDelay    time.Duration
	messageDelay time.Duration
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration)
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithPollDelay sets how long to wait before polling for results.
func WithPollDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.pollDelay = d }
}

// WithMessageDelay sets the pause between consecutive offer messages.
func WithMessageDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.messageDelay = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New builds an Orchestrator.
func New(api TourAPI, resolver *location.Resolver, sender Sender, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		api:          api,
		resolver:     resolver,
		sender:       sender,
		logger:       logger,
		pollDelay:    defaultPollDelay,
		messageDelay: defaultMessageDelay,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the search for one user and reports how it ended. Every
// outcome sends a user-facing message; the caller only decides what to do
// with the session afterwards.
func (o *Orchestrator) Run(ctx context.Context, userID string, slots trip.SlotSet) Outcome {
	params := o.buildParams(ctx, slots)

	o.logger.Info("starting tour search",
		"user_id", userID,
		"departure", params.DepartureID,
		"country", params.CountryID,
		"nights_from", params.NightsFrom,
		"nights_to", params.NightsTo,
		"adults", params.Adults,
		"children", params.Children)

	requestID, err := o.api.SubmitSearch(ctx, params)
	if err != nil {
		o.logger.Error("search submission failed", "user_id", userID, "error", err)
		o.send(ctx, userID, submitFailureText)
		return OutcomeFailed
	}

	o.send(ctx, userID, searchingText)
	o.sleep(ctx, o.pollDelay)

	results, err := o.api.FetchResults(ctx, requestID)
	if err != nil {
		o.logger.Error("fetching results failed",
			"user_id", userID, "request_id", requestID, "error", err)
		o.send(ctx, userID, failureText)
		return OutcomeFailed
	}

	if len(results.Hotels) == 0 {
		if results.Finished() {
			o.send(ctx, userID, noResultsText)
			return OutcomeNoResults
		}
		o.send(ctx, userID, pendingText)
		return OutcomePending
	}

	o.deliver(ctx, userID, results.Hotels)
	return OutcomeDelivered
}

func (o *Orchestrator) buildParams(ctx context.Context, slots trip.SlotSet) tourvisor.SearchParams {
	now := o.now()
	nightsFrom := slots.NightsFrom
	if nightsFrom < 1 {
		nightsFrom = 1
	}
	nightsTo := slots.NightsTo
	if nightsTo < nightsFrom {
		nightsTo = nightsFrom
	}
	return tourvisor.SearchParams{
		DepartureID: o.resolver.ResolveDeparture(ctx, slots.DepartureCity),
		CountryID:   o.resolver.ResolveDestination(ctx, slots.DestinationCountry),
		DateFrom:    now.Add(dateFromOffset),
		DateTo:      now.Add(dateToOffset),
		NightsFrom:  nightsFrom,
		NightsTo:    nightsTo,
		Adults:      slots.Adults,
		Children:    slots.Children.Count(),
	}
}

func (o *Orchestrator) deliver(ctx context.Context, userID string, hotels []tourvisor.Hotel) {
	Rank(hotels)

	top := hotels
	if len(top) > MaxOffers {
		top = top[:MaxOffers]
	}

	o.send(ctx, userID, foundText(len(hotels)))
	for i, h := range top {
		o.send(ctx, userID, FormatOffer(h, i == 0))
		if i < len(top)-1 {
			o.sleep(ctx, o.messageDelay)
		}
	}
	o.send(ctx, userID, ctaText)
}

// Rank orders hotels in place by star rating descending, then price
// ascending within the same rating.
func Rank(hotels []tourvisor.Hotel) {
	sort.SliceStable(hotels, func(i, j int) bool {
		si, sj := hotels[i].StarsCount(), hotels[j].StarsCount()
		if si != sj {
			return si > sj
		}
		return hotels[i].PriceValue() < hotels[j].PriceValue()
	})
}

func (o *Orchestrator) send(ctx context.Context, userID, text string) {
	if err := o.sender.Send(ctx, userID, text); err != nil {
		o.logger.Error("sending search message failed",
			"user_id", userID, "error", fmt.Errorf("search delivery: %w", err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
