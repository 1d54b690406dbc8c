package bot

import (
	"fmt"

	"github.com/touraibot/tourai/internal/trip"
)

const greetingText = `👋 Здравствуйте! Я ваш персональный помощник по путешествиям. Я могу подобрать для вас идеальный тур, ответить на вопросы о популярных направлениях или рассказать о специальных предложениях.

Расскажите, о каком путешествии вы мечтаете? Или просто напишите "тур", чтобы я помог подобрать для вас оптимальный вариант отдыха.`

const openingText = `Отлично! Я обожаю помогать с планированием отдыха. Расскажите немного о том, какое путешествие вы представляете — может быть, есть страна, которая вас особенно привлекает? Или предпочитаете пляжный отдых, экскурсии, горы?`

const upsellText = `У меня тут появилась информация о нескольких горящих предложениях. Хотите, я помогу подобрать для вас идеальный вариант? Просто напишите "тур", и мы начнем поиск.`

const extractionFailureText = `Произошла ошибка при обработке вашего запроса. Пожалуйста, давайте начнем обсуждение заново.`

const missingAPIKeyText = `⚠️ Извините, сервис подбора туров сейчас не настроен. Пожалуйста, попробуйте позже или свяжитесь с нами напрямую.`

const casualFailureText = `Извините, я сейчас не могу ответить. Попробуйте, пожалуйста, чуть позже.`

// casualGuidance is appended to the persona prompt for free-form chat.
const casualGuidance = `

Based on the user's message, provide a friendly and helpful response.
If they mention anything related to travel, ask about their preferences and gently suggest booking options.
If they haven't mentioned travel, find a natural way to bring up travel topics or current travel deals.
After a few exchanges, if appropriate, remind them they can type "тур" to search for perfect vacation options.`

// destinationTeasers are the hand-written pitches for the most requested
// countries. Anything else gets a generated or generic one.
var destinationTeasers = map[string]string{
	"Турция":   "☀️ Турция сейчас предлагает отличное соотношение цены и качества! Прекрасные пляжи, вкусная еда и отличный сервис all-inclusive ждут вас.",
	"Египет":   "🏝️ Египет - это идеальный выбор для любителей снорклинга и дайвинга! Красивейшие коралловые рифы и круглогодичное солнце гарантированы.",
	"Таиланд":  "🌴 Таиланд славится своим гостеприимством, экзотической кухней и великолепными пляжами. Сейчас там отличная погода для отдыха!",
	"ОАЭ":      "🌇 ОАЭ - это воплощение роскоши и комфорта. Идеальное место для шоппинга, пляжного отдыха и впечатляющих достопримечательностей.",
	"Мальдивы": "💙 Мальдивы - райское место для незабываемого отдыха! Бирюзовая вода, белоснежные пляжи и потрясающие закаты.",
	"Греция":   "🏛️ Греция предлагает уникальное сочетание богатой истории, великолепных пляжей и вкусной средиземноморской кухни.",
}

func genericTeaser(country string) string {
	return fmt.Sprintf("✨ %s - отличный выбор! Это направление становится все более популярным среди туристов. Уверен, там вас ждет незабываемый отдых!", country)
}

func finalSummary(slots trip.SlotSet) string {
	var nights string
	switch {
	case slots.NightsFrom == 1 && slots.NightsTo > 7:
		if slots.NightsTo >= 14 {
			nights = fmt.Sprintf("до двух недель (%d-%d ночей)", slots.NightsFrom, slots.NightsTo)
		} else {
			nights = fmt.Sprintf("до недели или больше (%d-%d ночей)", slots.NightsFrom, slots.NightsTo)
		}
	case slots.NightsFrom != slots.NightsTo:
		nights = fmt.Sprintf("%d - %d ночей", slots.NightsFrom, slots.NightsTo)
	default:
		nights = fmt.Sprintf("%d ночей", slots.NightsFrom)
	}

	children := "👨‍👩‍👧‍👦 Без детей"
	if slots.Children.Count() > 0 {
		children = fmt.Sprintf("👶 Детей: %d", slots.Children.Count())
	}

	return fmt.Sprintf(`🌴 Отлично! Я подбираю для вас идеальный вариант отдыха:

🛫 Вылет из: %s
🏝️ Направление: %s
📅 Продолжительность: %s
👥 Взрослых: %d
%s

Это популярное направление, и я уверен, что смогу найти для вас отличные варианты! Секундочку...`,
		slots.DepartureCity, slots.DestinationCountry, nights, slots.Adults, children)
}
