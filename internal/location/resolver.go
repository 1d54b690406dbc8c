// Package location maps free-form Russian place names to Tourvisor numeric
// IDs. Lookups go through the built-in tables first and fall back to the
// LLM only for names the tables do not know.
package location

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/touraibot/tourai/internal/llm"
)

const (
	// DefaultDepartureID is used when a departure city cannot be resolved.
	DefaultDepartureID = "47"
	// DefaultDestinationID is used when a destination cannot be resolved.
	DefaultDestinationID = "4"

	resolveTemperature = 0.0
	resolveMaxTokens   = 10
)

var numericID = regexp.MustCompile(`^\d+$`)

// Resolver turns place names into Tourvisor IDs. It never returns an empty
// ID: unresolvable names degrade to the defaults.
type Resolver struct {
	client llm.Client
	logger *slog.Logger

	countryIDs map[string]string
}

// NewResolver builds a Resolver backed by the given LLM client. The client
// may be nil, in which case unknown names resolve to the defaults.
func NewResolver(client llm.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	ids := make(map[string]string)
	for _, c := range Countries() {
		ids[strings.ToLower(c.Name)] = c.ID
	}
	for alias, country := range resortAliases {
		if id, ok := ids[strings.ToLower(country)]; ok {
			ids[alias] = id
		}
	}

	return &Resolver{
		client:     client,
		logger:     logger,
		countryIDs: ids,
	}
}

// ResolveDeparture maps a departure city to its Tourvisor departure ID.
func (r *Resolver) ResolveDeparture(ctx context.Context, name string) string {
	key := normalize(name)
	if key == "" {
		return DefaultDepartureID
	}
	if id, ok := departureCities[key]; ok {
		return id
	}
	if id, ok := r.countryIDs[key]; ok {
		return id
	}
	return r.askModel(ctx, name, DefaultDepartureID)
}

// ResolveDestination maps a destination country or resort to its Tourvisor
// country ID.
func (r *Resolver) ResolveDestination(ctx context.Context, name string) string {
	key := normalize(name)
	if key == "" {
		return DefaultDestinationID
	}
	if id, ok := r.countryIDs[key]; ok {
		return id
	}
	if id, ok := departureCities[key]; ok {
		return id
	}
	return r.askModel(ctx, name, DefaultDestinationID)
}

func (r *Resolver) askModel(ctx context.Context, name, fallback string) string {
	if r.client == nil {
		return fallback
	}

	var list strings.Builder
	for _, c := range Countries() {
		fmt.Fprintf(&list, "%s: %s\n", c.Name, c.ID)
	}

	system := fmt.Sprintf(`You are a travel assistant that identifies country codes for a tour search API.

Match the given location (city or country) to the correct country ID in this list:

%s
Rules:
1. ONLY return the numeric ID of the country, nothing else
2. If the location is a city, identify which country it belongs to and return that country's ID
3. Use common sense for well-known locations (e.g., "Анталия" is in Turkey, whose ID is 4)
4. If you can't identify with certainty, return 47 for locations likely in Russia and 78 for locations likely in Kazakhstan
5. Return the numeric ID with NO explanation and NO quotation marks`, list.String())

	reply, err := r.client.Complete(ctx, llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Identify the country ID for this location: %s", name)},
		},
		Temperature: resolveTemperature,
		MaxTokens:   resolveMaxTokens,
	})
	if err != nil {
		r.logger.Warn("location lookup failed, using default",
			"location", name, "default", fallback, "error", err)
		return fallback
	}

	id := strings.TrimSpace(reply)
	if !numericID.MatchString(id) {
		r.logger.Warn("location lookup returned a non-numeric ID, using default",
			"location", name, "reply", reply, "default", fallback)
		return fallback
	}
	return id
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
