package bot_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/touraibot/tourai/internal/bot"
	"github.com/touraibot/tourai/internal/config"
	"github.com/touraibot/tourai/internal/llm"
	"github.com/touraibot/tourai/internal/search"
	"github.com/touraibot/tourai/internal/session"
	"github.com/touraibot/tourai/internal/trip"
	"github.com/touraibot/tourai/internal/whatsapp"
)

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingMessenger) Send(_ context.Context, _, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingMessenger) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

type fakeSearcher struct {
	mu    sync.Mutex
	runs  []trip.SlotSet
	users []string
}

func (f *fakeSearcher) Run(_ context.Context, userID string, slots trip.SlotSet) search.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, slots)
	f.users = append(f.users, userID)
	return search.OutcomeDelivered
}

type fakeFollowUps struct {
	mu        sync.Mutex
	scheduled []string
}

func (f *fakeFollowUps) Schedule(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, userID)
}

func testSettings() config.Settings {
	return config.Settings{
		TriggerKeyword: "тур",
		SystemPrompt:   "Ты — консультант по путешествиям.",
	}
}

type fixture struct {
	handler   *bot.Handler
	store     *session.Store
	messenger *recordingMessenger
	searcher  *fakeSearcher
	followUps *fakeFollowUps
}

func newFixture(t *testing.T, client llm.Client, opts ...bot.Option) *fixture {
	t.Helper()
	f := &fixture{
		store:     session.NewStore(),
		messenger: &recordingMessenger{},
		searcher:  &fakeSearcher{},
		followUps: &fakeFollowUps{},
	}
	f.handler = bot.New(client, f.store, f.messenger, f.searcher, f.followUps, testSettings(), opts...)
	return f
}

func (f *fixture) deliver(t *testing.T, from, text string) {
	t.Helper()
	err := f.handler.HandleMessage(context.Background(), whatsapp.IncomingMessage{
		From:      from,
		Text:      text,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("HandleMessage(%q) error: %v", text, err)
	}
}

func TestHandleMessage_GreetsNewUser(t *testing.T) {
	f := newFixture(t, llm.NewScripted().Fallback("ответ"))

	f.deliver(t, "u@c.us", "привет")

	msgs := f.messenger.all()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "Здравствуйте") {
		t.Fatalf("messages = %v", msgs)
	}
	if len(f.searcher.runs) != 0 {
		t.Error("no search may run on first contact")
	}
}

func TestHandleMessage_IgnoresOwnMessages(t *testing.T) {
	f := newFixture(t, llm.NewScripted().FallbackError(context.Canceled))

	err := f.handler.HandleMessage(context.Background(), whatsapp.IncomingMessage{
		From:     "u@c.us",
		Text:     "тур",
		FromSelf: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.messenger.all()) != 0 {
		t.Error("own messages must not produce replies")
	}
}

func TestHandleMessage_SingleMessageFillsEverything(t *testing.T) {
	client := llm.NewScripted().
		Script(llm.ScriptedReply{
			Pattern: "без детей",
			Reply:   `{"departureCity":"Москва","destinationCountry":"Турция","nightsFrom":7,"nightsTo":7,"adults":2,"children":null}`,
		}).
		Fallback("Хорошо!")
	f := newFixture(t, client)

	f.deliver(t, "u@c.us", "привет")
	f.deliver(t, "u@c.us", "тур")
	f.deliver(t, "u@c.us", "Тур в Турцию на двоих из Москвы на неделю без детей")

	if len(f.searcher.runs) != 1 {
		t.Fatalf("searches = %d, want exactly 1", len(f.searcher.runs))
	}
	slots := f.searcher.runs[0]
	if slots.DepartureCity != "Москва" || slots.DestinationCountry != "Турция" {
		t.Errorf("route = %s → %s", slots.DepartureCity, slots.DestinationCountry)
	}
	if slots.NightsFrom != 1 || slots.NightsTo != 8 {
		t.Errorf("nights = %d-%d, want 1-8", slots.NightsFrom, slots.NightsTo)
	}
	if !slots.Children.Known() || slots.Children.Count() != 0 {
		t.Errorf("children = %+v, want explicit zero", slots.Children)
	}
	if slots.Adults != 2 {
		t.Errorf("adults = %d, want 2", slots.Adults)
	}

	if len(f.followUps.scheduled) != 1 {
		t.Errorf("follow-ups scheduled = %d, want 1", len(f.followUps.scheduled))
	}

	// The slate is wiped after the search, ready for a fresh one.
	sess, _ := f.store.Get("u@c.us")
	if sess.Searching || sess.SearchFinalized {
		t.Error("session must be reset after delivery")
	}

	// The recap and the destination teaser went out before the search.
	joined := strings.Join(f.messenger.all(), "\n")
	if !strings.Contains(joined, "Вылет из: Москва") {
		t.Error("missing search recap")
	}
	if !strings.Contains(joined, "Турция сейчас предлагает") {
		t.Error("missing destination teaser")
	}
}

func TestHandleMessage_StepByStepFlow(t *testing.T) {
	client := llm.NewScripted().
		Script(llm.ScriptedReply{
			Pattern: "в Египет",
			Reply:   `{"destinationCountry":"Египет"}`,
		}).
		Script(llm.ScriptedReply{
			Pattern: "из Москвы",
			Reply:   `{"departureCity":"Москва"}`,
		}).
		Fallback(`{}`)
	f := newFixture(t, client)

	f.deliver(t, "u@c.us", "привет")
	f.deliver(t, "u@c.us", "тур")
	f.deliver(t, "u@c.us", "хочу в Египет")
	f.deliver(t, "u@c.us", "из Москвы")

	if len(f.searcher.runs) != 0 {
		t.Fatal("incomplete slots must not start a search")
	}
	slots := f.store.Slots("u@c.us")
	if slots.DestinationCountry != "Египет" || slots.DepartureCity != "Москва" {
		t.Errorf("slots = %+v", slots)
	}

	// The last reply asks for one of the still-missing fields.
	msgs := f.messenger.all()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last, "ночей") && !strings.Contains(last, "взрослых") &&
		!strings.Contains(last, "длительность") && !strings.Contains(last, "поедет") {
		t.Errorf("unexpected follow-up question: %q", last)
	}
}

func TestHandleMessage_ExtractionFailureResetsSearch(t *testing.T) {
	client := llm.NewScripted().FallbackError(context.DeadlineExceeded)
	f := newFixture(t, client)

	f.deliver(t, "u@c.us", "привет")
	f.deliver(t, "u@c.us", "тур")
	f.deliver(t, "u@c.us", "в Турцию")

	sess, _ := f.store.Get("u@c.us")
	if sess.Searching {
		t.Error("failed extraction must reset the search state")
	}
	msgs := f.messenger.all()
	if !strings.Contains(msgs[len(msgs)-1], "ошибка") {
		t.Errorf("last message = %q", msgs[len(msgs)-1])
	}
}

func TestHandleMessage_MissingAPIKeyDiagnostic(t *testing.T) {
	client := llm.NewScripted().FallbackError(llm.ErrNoAPIKey)
	f := newFixture(t, client)

	f.deliver(t, "u@c.us", "привет")
	f.deliver(t, "u@c.us", "тур")
	f.deliver(t, "u@c.us", "в Турцию")

	msgs := f.messenger.all()
	if !strings.Contains(msgs[len(msgs)-1], "не настроен") {
		t.Errorf("last message = %q", msgs[len(msgs)-1])
	}
}

func TestHandleMessage_CasualChatAndUpsell(t *testing.T) {
	client := llm.NewScripted().Fallback("Лето - отличное время для отдыха на море.")
	f := newFixture(t, client, bot.WithRandom(func() float64 { return 0.0 }))

	f.deliver(t, "u@c.us", "привет")
	f.deliver(t, "u@c.us", "как дела?")
	f.deliver(t, "u@c.us", "что посоветуешь летом?")
	f.deliver(t, "u@c.us", "расскажи про море")

	joined := strings.Join(f.messenger.all(), "\n")
	if !strings.Contains(joined, "горящих предложениях") {
		t.Error("expected an upsell pitch in a long casual conversation")
	}
}

func TestHandleMessage_NoUpsellWhenCoinFlipFails(t *testing.T) {
	client := llm.NewScripted().Fallback("Обычный ответ без ключевых слов.")
	f := newFixture(t, client, bot.WithRandom(func() float64 { return 1.0 }))

	f.deliver(t, "u@c.us", "привет")
	for i := 0; i < 5; i++ {
		f.deliver(t, "u@c.us", "расскажи что-нибудь")
	}

	joined := strings.Join(f.messenger.all(), "\n")
	if strings.Contains(joined, "горящих предложениях") {
		t.Error("upsell must respect the coin flip")
	}
}

func TestUpdateSettings_SwapsTrigger(t *testing.T) {
	client := llm.NewScripted().Fallback("ответ")
	f := newFixture(t, client)

	settings := testSettings()
	settings.TriggerKeyword = "поездка"
	f.handler.UpdateSettings(settings)

	f.deliver(t, "u@c.us", "привет")
	f.deliver(t, "u@c.us", "поездка")

	sess, _ := f.store.Get("u@c.us")
	if !sess.Searching {
		t.Error("new trigger keyword must start a search")
	}
	if got := f.handler.Settings().TriggerKeyword; got != "поездка" {
		t.Errorf("settings trigger = %q", got)
	}
}
