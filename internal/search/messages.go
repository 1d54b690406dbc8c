package search

import (
	"fmt"
	"strings"

	"github.com/touraibot/tourai/internal/tourvisor"
)

const (
	searchingText = "🔍 Ищем туры, это может занять несколько секунд..."

	pendingText = "🔄 Поиск все еще выполняется. Пожалуйста, повторите поиск через несколько минут, написав \"тур\""

	noResultsText = "😔 К сожалению, по вашему запросу сейчас нет доступных туров. " +
		"Давайте попробуем изменить параметры поиска? Например, рассмотрим другие даты " +
		"или направление. Просто напишите \"тур\", чтобы начать новый поиск."

	failureText = "😔 Произошла ошибка при получении результатов поиска. Пожалуйста, попробуйте позже."

	submitFailureText = "Произошла ошибка при отправке запроса на поиск туров."

	ctaText = `Эти предложения действительны на текущий момент и могут быстро измениться!

Чтобы забронировать тур или узнать подробности:
📞 Позвоните нам: +7 (XXX) XXX-XX-XX
💬 Или продолжите общение здесь

Хотите посмотреть другие варианты? Напишите "тур" для нового поиска с другими параметрами.`

	hotelDetailsBase = "http://manyhotels.ru/"
)

func foundText(n int) string {
	return fmt.Sprintf("🎉 Отлично! Я нашел %d вариантов для вашего отпуска! Вот несколько лучших предложений:", n)
}

func tierLabel(stars int) string {
	switch {
	case stars >= 5:
		return "⭐⭐⭐⭐⭐ ПРЕМИУМ!"
	case stars == 4:
		return "⭐⭐⭐⭐ РЕКОМЕНДУЕМ!"
	case stars == 3:
		return "⭐⭐⭐ ХОРОШИЙ ВЫБОР!"
	default:
		return "⭐⭐ БЮДЖЕТНО!"
	}
}

// FormatOffer renders one hotel as an outgoing message. The first offer in
// a batch gets the top-pick footer.
func FormatOffer(h tourvisor.Hotel, topPick bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", tierLabel(h.StarsCount()))
	fmt.Fprintf(&b, "🏨 *%s*\n", h.Name)
	fmt.Fprintf(&b, "📍 %s\n", h.Country)
	fmt.Fprintf(&b, "💎 %s\n", h.Description)
	fmt.Fprintf(&b, "💰 *ЦЕНА: %s*\n", h.Price)
	fmt.Fprintf(&b, "✈️ Ближайшие вылеты: %s\n\n", h.FlyDates())
	fmt.Fprintf(&b, "🔍 [Подробнее об отеле](%s%s)", hotelDetailsBase, h.DetailsLink)
	if topPick {
		b.WriteString("\n\n🔝 *ТОП ПРЕДЛОЖЕНИЕ!* Это самый популярный вариант среди наших клиентов.")
	}
	return b.String()
}
