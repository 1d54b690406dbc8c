package dialog

import (
	"fmt"

	"github.com/touraibot/tourai/internal/trip"
)

// OnboardingPrompt is sent at the very start of a search conversation,
// regardless of which slots are already known.
const OnboardingPrompt = `Привет! 👋 Я помогу вам найти идеальный тур для отдыха. Расскажите, куда бы вы хотели поехать? Например: "Тур в Турцию на двоих на неделю из Москвы"`

// DeparturePrompts are the interchangeable ways to ask for the
// departure city. The variants differ only in phrasing; tests assert
// set membership, not a particular string.
func DeparturePrompts() []string {
	return []string{
		"Из какого города планируете вылет?",
		"Откуда бы вы хотели начать путешествие?",
		"Укажите, пожалуйста, город вылета.",
	}
}

// DestinationPrompts are the ways to ask for the destination country.
func DestinationPrompts() []string {
	return []string{
		"Какую страну вы рассматриваете для отдыха?",
		"Куда бы вы хотели отправиться?",
		"Какое направление вас интересует?",
	}
}

// NightsPrompts are the ways to ask for the trip length.
func NightsPrompts(destination string) []string {
	return []string{
		fmt.Sprintf("На сколько ночей планируете поездку в %s?", destination),
		"Какова длительность вашего отдыха (количество ночей)?",
		"Сколько ночей вы хотели бы провести там?",
	}
}

// AdultsPrompts are the ways to ask for the adult count.
func AdultsPrompts() []string {
	return []string{
		"Сколько взрослых человек поедет?",
		"Укажите, пожалуйста, количество взрослых туристов.",
		"Сколько взрослых будет в поездке?",
	}
}

// ChildrenPrompts are the ways to ask for the child count. Each
// variant tells the user an explicit "нет" is a valid answer.
func ChildrenPrompts() []string {
	return []string{
		`Будут ли с вами дети? Если да, то сколько? Если нет, просто ответьте "нет".`,
		`Планируете ли взять детей? Укажите количество или ответьте "нет".`,
		`Сколько детей поедет с вами? Если детей нет, просто напишите "нет".`,
	}
}

// NearFinalSummary announces that the search is about to run, phrased
// for a party without children.
func NearFinalSummary(slots trip.SlotSet) string {
	return fmt.Sprintf("Отлично! Сейчас подберу для вас варианты тура в %s из %s на %d ночей для %d %s без детей.",
		slots.DestinationCountry, slots.DepartureCity, slots.NightsFrom, slots.Adults, adultsWord(slots.Adults))
}

// CompleteSummary recaps a fully collected slot set.
func CompleteSummary(slots trip.SlotSet) string {
	childrenText := ""
	if slots.Children.Known() && slots.Children.Count() > 0 {
		childrenText = fmt.Sprintf(" и %d %s", slots.Children.Count(), childrenWord(slots.Children.Count()))
	}
	return fmt.Sprintf("Спасибо! Я нашёл для вас отличные варианты тура в %s из %s на %d ночей для %d %s%s.",
		slots.DestinationCountry, slots.DepartureCity, slots.NightsFrom, slots.Adults, adultsWord(slots.Adults), childrenText)
}

// adultsWord declines "взрослый" for the given count.
func adultsWord(count int) string {
	if count == 1 {
		return "взрослого"
	}
	return "взрослых"
}

// childrenWord declines "ребёнок" for the given count.
func childrenWord(count int) string {
	if count == 1 {
		return "ребенка"
	}
	return "детей"
}
